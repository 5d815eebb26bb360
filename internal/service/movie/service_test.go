package movie

import (
	"context"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"papaya/internal/model/movie"
)

func sampleAnalysis() *movie.ScriptAnalysis {
	return &movie.ScriptAnalysis{
		Synopsis: "A detective uncovers a conspiracy.",
		Genre:    "noir",
		Scenes: []movie.Scene{
			{
				Title:     "The office",
				Location:  "Rainy Office",
				TimeOfDay: "night",
				Beats: []movie.Beat{
					{Description: "Vera studies the case board", EmotionalTone: "tense"},
					{
						Description:   "Marlowe enters and confronts Vera",
						EmotionalTone: "dramatic",
						Dialogue: []movie.DialogueLine{
							{Character: "Marlowe", Line: "You knew all along.", Emotion: "bitter"},
						},
					},
				},
			},
		},
	}
}

func TestMovieCRUD(t *testing.T) {
	ctx := context.Background()

	Convey("测试影片基础操作", t, func() {
		Convey("创建影片使用默认画幅", func() {
			env := newTestEnv()
			m, err := env.svc.CreateMovie(ctx, &CreateMovieInput{
				UserID: "u1", Title: "Neon Rain",
			})
			So(err, ShouldBeNil)
			So(m.ID, ShouldNotBeEmpty)
			So(m.AspectRatio, ShouldEqual, "16:9")
			So(m.Status, ShouldEqual, movie.MovieStatusDrafting)
		})

		Convey("标题为空时拒绝创建", func() {
			env := newTestEnv()
			_, err := env.svc.CreateMovie(ctx, &CreateMovieInput{UserID: "u1"})
			So(err, ShouldNotBeNil)
		})

		Convey("删除影片时连带清理镜头", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})
			seedShot(env, &movie.Shot{ID: "s1", SceneIndex: 0, Order: 0})

			So(env.svc.DeleteMovie(ctx, "m1"), ShouldBeNil)

			_, err := env.movies.FindByID(ctx, "m1")
			So(err, ShouldNotBeNil)
			shots, _ := env.shots.FindByMovieID(ctx, "m1")
			So(shots, ShouldBeEmpty)
		})

		Convey("为不存在的影片添加角色报错", func() {
			env := newTestEnv()
			_, err := env.svc.AddCharacter(ctx, &AddCharacterInput{
				MovieID: "missing", Name: "Vera",
			})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestAnalyzeScriptService(t *testing.T) {
	ctx := context.Background()

	Convey("测试剧本分析服务", t, func() {
		Convey("分析结果与风格圣经一并落库", func() {
			env := newTestEnv()
			env.analyzer.analysis = sampleAnalysis()
			env.analyzer.style = &movie.StyleBible{
				FilmStock:   "35mm Kodak Vision3 500T",
				StyleString: "shot on 35mm, desaturated teal palette, wet asphalt textures",
			}
			seedMovie(env, &movie.Movie{ID: "m1", Title: "Neon Rain"})

			analysis, err := env.svc.AnalyzeScript(ctx, "m1", "A detective story...")
			So(err, ShouldBeNil)
			So(analysis.Scenes, ShouldHaveLength, 1)

			m, _ := env.movies.FindByID(ctx, "m1")
			So(m.ScriptAnalysis, ShouldNotBeNil)
			So(m.StyleBible.FilmStock, ShouldContainSubstring, "Kodak")
			// 影片类型为空时用分析结果回填
			So(m.Genre, ShouldEqual, "noir")
		})

		Convey("风格圣经失败不阻塞剧本分析", func() {
			env := newTestEnv()
			env.analyzer.analysis = sampleAnalysis()
			env.analyzer.styleErr = fmt.Errorf("model overloaded")
			seedMovie(env, &movie.Movie{ID: "m1"})

			_, err := env.svc.AnalyzeScript(ctx, "m1", "A detective story...")
			So(err, ShouldBeNil)

			m, _ := env.movies.FindByID(ctx, "m1")
			So(m.ScriptAnalysis, ShouldNotBeNil)
			So(m.StyleBible, ShouldBeNil)
		})

		Convey("影片显式设置的类型不被覆盖", func() {
			env := newTestEnv()
			env.analyzer.analysis = sampleAnalysis()
			env.analyzer.style = &movie.StyleBible{StyleString: "noir look"}
			seedMovie(env, &movie.Movie{ID: "m1", Genre: "thriller"})

			_, err := env.svc.AnalyzeScript(ctx, "m1", "A detective story...")
			So(err, ShouldBeNil)

			m, _ := env.movies.FindByID(ctx, "m1")
			So(m.Genre, ShouldEqual, "thriller")
		})
	})
}

func TestEstimateDurationService(t *testing.T) {
	ctx := context.Background()

	Convey("测试时长估计服务", t, func() {
		env := newTestEnv()
		seedMovie(env, &movie.Movie{
			ID: "m1", TargetDuration: 12,
			ScriptAnalysis: sampleAnalysis(),
		})

		Convey("显式目标时长优先", func() {
			// 30 秒远超自然时长 12 秒（4 + 8）
			analysis, err := env.svc.EstimateDuration(ctx, "m1", 30)
			So(err, ShouldBeNil)
			So(analysis.FitScore, ShouldEqual, 0)
			So(analysis.Suggestion, ShouldContainSubstring, "thin")
		})

		Convey("目标时长缺省时用影片设置", func() {
			// 影片目标 12 秒正好等于故事自然时长
			analysis, err := env.svc.EstimateDuration(ctx, "m1", 0)
			So(err, ShouldBeNil)
			So(analysis.OptimalDuration, ShouldEqual, 12)
			So(analysis.FitScore, ShouldEqual, 100)
		})
	})
}

func TestPlanShotsService(t *testing.T) {
	ctx := context.Background()

	Convey("测试镜头规划服务", t, func() {
		Convey("规划产出镜头并落库", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{
				ID: "m1", Genre: "noir",
				ScriptAnalysis: sampleAnalysis(),
			})

			shots, err := env.svc.PlanShots(ctx, "m1")
			So(err, ShouldBeNil)
			So(shots, ShouldHaveLength, 2)
			So(shots[0].ID, ShouldNotBeEmpty)
			So(shots[0].MovieID, ShouldEqual, "m1")

			saved, _ := env.shots.FindByMovieID(ctx, "m1")
			So(saved, ShouldHaveLength, 2)
		})

		Convey("重新规划覆盖旧镜头", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{
				ID: "m1", ScriptAnalysis: sampleAnalysis(),
			})
			seedShot(env, &movie.Shot{ID: "old", SceneIndex: 0, Order: 0})

			_, err := env.svc.PlanShots(ctx, "m1")
			So(err, ShouldBeNil)

			_, err = env.shots.FindByID(ctx, "old")
			So(err, ShouldNotBeNil)
		})

		Convey("没有剧本分析时拒绝规划", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})

			_, err := env.svc.PlanShots(ctx, "m1")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "analyze the script first")
		})
	})
}

func TestScenePackService(t *testing.T) {
	ctx := context.Background()

	Convey("测试场景元素包", t, func() {
		Convey("给满 2 张可用图片时直接标记完成", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{
				ID: "m1", ScriptAnalysis: sampleAnalysis(),
			})

			pack, err := env.svc.CreateScenePack(ctx, &CreateScenePackInput{
				MovieID: "m1", SceneIndex: 0,
				Images: []string{"https://img.example.com/a.jpg", "https://img.example.com/b.jpg"},
			})
			So(err, ShouldBeNil)
			So(pack.Name, ShouldEqual, "element_rainy-office")
			So(pack.Status, ShouldEqual, movie.TaskStatusCompleted)
		})

		Convey("图片不足时保持待处理", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{
				ID: "m1", ScriptAnalysis: sampleAnalysis(),
			})

			pack, err := env.svc.CreateScenePack(ctx, &CreateScenePackInput{
				MovieID: "m1", SceneIndex: 0,
				Images: []string{"https://img.example.com/a.jpg"},
			})
			So(err, ShouldBeNil)
			So(pack.Status, ShouldEqual, movie.TaskStatusPending)
		})

		Convey("场景下标越界时报错", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{
				ID: "m1", ScriptAnalysis: sampleAnalysis(),
			})

			_, err := env.svc.CreateScenePack(ctx, &CreateScenePackInput{
				MovieID: "m1", SceneIndex: 5,
			})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestSelectHeroTake(t *testing.T) {
	ctx := context.Background()

	Convey("测试手动选择 hero take", t, func() {
		Convey("换 hero 后尾帧与下一镜头续接帧失效", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})
			shot := seedShot(env, &movie.Shot{
				ID: "s1", SceneIndex: 0, Order: 0,
				EndFrameURL: "https://frames.example.com/old-end.jpg",
			})
			next := seedShot(env, &movie.Shot{
				ID: "s2", SceneIndex: 0, Order: 1,
				StartFrameURL: "https://frames.example.com/old-end.jpg",
			})
			_ = env.takes.Create(ctx, &movie.Take{ID: "t1", ShotID: "s1", MovieID: "m1", IsHero: true})
			_ = env.takes.Create(ctx, &movie.Take{ID: "t2", ShotID: "s1", MovieID: "m1"})

			So(env.svc.SelectHeroTake(ctx, "s1", "t2"), ShouldBeNil)

			hero, _ := env.takes.FindHeroByShotID(ctx, "s1")
			So(hero.ID, ShouldEqual, "t2")

			freshShot, _ := env.shots.FindByID(ctx, shot.ID)
			So(freshShot.EndFrameURL, ShouldBeEmpty)
			freshNext, _ := env.shots.FindByID(ctx, next.ID)
			So(freshNext.StartFrameURL, ShouldBeEmpty)
		})

		Convey("不属于该镜头的 take 拒绝选择", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})
			seedShot(env, &movie.Shot{ID: "s1", SceneIndex: 0, Order: 0})
			_ = env.takes.Create(ctx, &movie.Take{ID: "t1", ShotID: "other", MovieID: "m1"})

			err := env.svc.SelectHeroTake(ctx, "s1", "t1")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "does not belong")
		})
	})
}
