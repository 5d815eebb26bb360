package storytools

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"papaya/internal/model/movie"
)

func TestAnalyzeDuration(t *testing.T) {
	Convey("AnalyzeDuration 时长分析", t, func() {
		Convey("无剧本分析时只给建议", func() {
			result := AnalyzeDuration(nil, 30)
			So(result.OptimalDuration, ShouldEqual, 0)
			So(result.Suggestion, ShouldContainSubstring, "no script analysis")
		})

		Convey("无节拍的剧本时只给建议", func() {
			result := AnalyzeDuration(&movie.ScriptAnalysis{}, 30)
			So(result.OptimalDuration, ShouldEqual, 0)
			So(result.Suggestion, ShouldContainSubstring, "no beats")
		})

		// 两场戏：第一场两个无对白节拍（5+5），第二场一个 action 对白节拍（7-2）
		analysis := &movie.ScriptAnalysis{
			Scenes: []movie.Scene{
				{
					Title: "街角",
					Beats: []movie.Beat{
						{Description: "雨夜街角"},
						{Description: "人影走近"},
					},
				},
				{
					Title: "追逐",
					Beats: []movie.Beat{
						{
							Description:   "追逐开始",
							EmotionalTone: "action",
							Dialogue:      []movie.DialogueLine{{Character: "Vera", Line: "Run!"}},
						},
					},
				},
			},
		}

		Convey("逐节拍估计自然时长并给出场景拆分", func() {
			result := AnalyzeDuration(analysis, 15)
			So(result.OptimalDuration, ShouldEqual, 15)
			So(result.MinViableDuration, ShouldEqual, 9)
			So(result.MaxComfortDuration, ShouldEqual, 21)
			So(len(result.SceneBreakdown), ShouldEqual, 2)
			So(result.SceneBreakdown[0].BeatCount, ShouldEqual, 2)
			So(result.SceneBreakdown[0].EstimatedSeconds, ShouldEqual, 10)
			So(result.SceneBreakdown[1].EstimatedSeconds, ShouldEqual, 5)
		})

		Convey("目标在 ±15% 内得满分且无建议", func() {
			result := AnalyzeDuration(analysis, 15)
			So(result.FitScore, ShouldEqual, 100)
			So(result.Suggestion, ShouldBeEmpty)
		})

		Convey("偏差 100% 以上得 0 分", func() {
			So(AnalyzeDuration(analysis, 30).FitScore, ShouldEqual, 0)
			So(AnalyzeDuration(analysis, 45).FitScore, ShouldEqual, 0)
		})

		Convey("中间偏差线性衰减", func() {
			// 目标 12，偏差 3/15=0.2 → round(100*(1-0.05/0.85)) = 94
			result := AnalyzeDuration(analysis, 12)
			So(result.FitScore, ShouldEqual, 94)
			So(result.Suggestion, ShouldBeEmpty)
		})

		Convey("目标过短时给收紧建议", func() {
			// 目标 5，偏差 10/15≈0.667 → round(100*(1-0.517/0.85)) = 39
			result := AnalyzeDuration(analysis, 5)
			So(result.FitScore, ShouldEqual, 39)
			So(result.Suggestion, ShouldContainSubstring, "tight")
			So(result.Suggestion, ShouldContainSubstring, "3 beats")
		})

		Convey("目标过长时给拉伸建议", func() {
			result := AnalyzeDuration(analysis, 28)
			So(result.FitScore, ShouldBeLessThan, 70)
			So(result.Suggestion, ShouldContainSubstring, "thin")
		})
	})
}
