package storytools

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"papaya/internal/model/movie"
)

// zeroRand 永远返回 0 的随机源，让规划器每次都取第一个候选
type zeroRand struct{}

func (zeroRand) Next() float64 { return 0 }

func noirAnalysis() *movie.ScriptAnalysis {
	return &movie.ScriptAnalysis{
		Synopsis: "A detective follows a woman he should not trust.",
		Genre:    "noir",
		Scenes: []movie.Scene{
			{
				Title:     "街角",
				Location:  "a neon-lit alley",
				TimeOfDay: "night",
				Beats: []movie.Beat{
					{Description: "Vera steps out of the shadows", EmotionalTone: "mysterious"},
					{Description: "Marlowe follows her", EmotionalTone: "tense"},
				},
			},
			{
				Title:     "办公室",
				Location:  "a cramped office",
				TimeOfDay: "interior",
				Beats: []movie.Beat{
					{
						Description:   "Marlowe confronts Vera",
						EmotionalTone: "dramatic",
						Dialogue:      []movie.DialogueLine{{Character: "Marlowe", Line: "You knew all along.", Emotion: "bitter"}},
					},
					{Description: "Vera turns away", EmotionalTone: "dramatic"},
				},
			},
		},
	}
}

func noirCharacters() []*movie.Character {
	return []*movie.Character{
		{ID: "c1", Name: "Vera", VisualDescription: "a woman in a red trench coat",
			VoiceProfile: "husky", ReferenceImages: []string{"vera-1.png", "vera-2.png"}},
		{ID: "c2", Name: "Marlowe", VisualDescription: "a tired detective in a gray suit",
			VoiceProfile: "gravelly"},
	}
}

func TestShotPlanner_PlanShots(t *testing.T) {
	Convey("ShotPlanner.PlanShots 镜头规划", t, func() {
		catalog := DefaultCameraCatalog()
		noir, _ := DefaultGenrePresets().Get("noir")
		style := &movie.StyleBible{
			StyleString:    "Shot on 35mm film, desaturated palette, heavy grain",
			NegativePrompt: "cartoon, low quality",
		}

		Convey("无剧本分析或无场景时返回 nil", func() {
			planner := NewShotPlanner(catalog, NewPromptBuilder(), zeroRand{})
			So(planner.PlanShots(nil, nil, nil, nil, 30), ShouldBeNil)
			So(planner.PlanShots(&movie.ScriptAnalysis{}, nil, nil, nil, 30), ShouldBeNil)
		})

		Convey("黑色电影双场景剧本的完整规划", func() {
			planner := NewShotPlanner(catalog, NewPromptBuilder(), zeroRand{})
			shots := planner.PlanShots(noirAnalysis(), noirCharacters(), style, &noir, 26)

			Convey("每个节拍产出一个镜头，序号连续且场景下标正确", func() {
				So(len(shots), ShouldEqual, 4)
				for i, shot := range shots {
					So(shot.Order, ShouldEqual, i)
				}
				So(shots[0].SceneIndex, ShouldEqual, 0)
				So(shots[1].SceneIndex, ShouldEqual, 0)
				So(shots[2].SceneIndex, ShouldEqual, 1)
				So(shots[3].SceneIndex, ShouldEqual, 1)
			})

			Convey("第一个镜头强制使用定场运镜", func() {
				So(shots[0].CameraMovement, ShouldEqual, "aerial_establish")
				So(shots[0].ShotType, ShouldEqual, "wide")
			})

			Convey("带对白的节拍优先对白运镜并绑定说话人", func() {
				So(shots[2].CameraMovement, ShouldEqual, "over_the_shoulder")
				So(shots[2].Dialogue, ShouldNotBeNil)
				So(shots[2].Dialogue.CharacterID, ShouldEqual, "c2")
				So(shots[2].Dialogue.Line, ShouldEqual, "You knew all along.")
			})

			Convey("时长 = 预设平均 + 情绪修正，收束在 3-10 秒", func() {
				So(shots[0].DurationSeconds, ShouldEqual, 7) // 6 + mysterious(+1)
				So(shots[1].DurationSeconds, ShouldEqual, 5) // 6 + tense(-1)
				So(shots[2].DurationSeconds, ShouldEqual, 7) // 6 + dramatic(+1)
				So(shots[3].DurationSeconds, ShouldEqual, 7)
			})

			Convey("主体按节拍描述中的角色名提取，有参考图的角色换成元素 token", func() {
				So(shots[0].Subject, ShouldEqual, "Vera, a woman in a red trench coat")
				So(shots[2].Subject, ShouldContainSubstring, "Vera")
				So(shots[2].Subject, ShouldContainSubstring, "Marlowe")
				So(shots[0].GeneratedPrompt, ShouldContainSubstring, "Vera (element_vera)")
				So(shots[0].GeneratedPrompt, ShouldNotContainSubstring, "red trench coat")
			})

			Convey("同一场景内光线完全一致，场景间独立", func() {
				So(shots[0].Lighting, ShouldEqual, shots[1].Lighting)
				So(shots[2].Lighting, ShouldEqual, shots[3].Lighting)
				So(shots[0].Lighting, ShouldEqual, PickLighting(&noir, "night", 0))
				So(shots[2].Lighting, ShouldEqual, PickLighting(&noir, "interior", 1))
			})

			Convey("环境块为地点加时间段", func() {
				So(shots[0].Environment, ShouldEqual, "a neon-lit alley, night")
				So(shots[2].Environment, ShouldEqual, "a cramped office, interior")
			})

			Convey("每个镜头都带拼装好的 prompt（含对白）与负面 prompt", func() {
				for _, shot := range shots {
					So(shot.GeneratedPrompt, ShouldNotBeEmpty)
					So(shot.GeneratedPrompt, ShouldEndWith, ".")
					So(shot.NegativePrompt, ShouldContainSubstring, "cartoon")
					So(shot.Status, ShouldEqual, movie.ShotStatusPlanned)
				}
				So(shots[2].GeneratedPrompt, ShouldContainSubstring, `[Marlowe, bitter voice]: "You knew all along."`)
				So(shots[0].GeneratedPrompt, ShouldStartWith, "Wide shot. ")
			})

			Convey("长镜头使用展开后的运镜句式", func() {
				// 7 秒的 aerial_establish 用展开句式而不是静态句式
				So(shots[0].GeneratedPrompt, ShouldContainSubstring, "drifts slowly downward")
			})
		})

		Convey("总时长偏差超过 15% 时等比缩放并逐镜头重新收束", func() {
			planner := NewShotPlanner(catalog, NewPromptBuilder(), zeroRand{})
			// 原始总时长 26 秒，目标 13 秒 → 缩放系数 0.5
			shots := planner.PlanShots(noirAnalysis(), noirCharacters(), style, &noir, 13)

			So(shots[0].DurationSeconds, ShouldEqual, 4) // round(3.5)，aerial 下限 4
			So(shots[1].DurationSeconds, ShouldEqual, 3) // round(2.5)=3
			So(shots[2].DurationSeconds, ShouldEqual, 4)
			So(shots[3].DurationSeconds, ShouldEqual, 4)
		})

		Convey("偏差在 15% 以内时不做缩放", func() {
			planner := NewShotPlanner(catalog, NewPromptBuilder(), zeroRand{})
			shots := planner.PlanShots(noirAnalysis(), noirCharacters(), style, &noir, 25)
			So(shots[0].DurationSeconds, ShouldEqual, 7)
		})

		Convey("新近排除：连续镜头不重复前两个镜头的运镜", func() {
			beats := make([]movie.Beat, 7)
			for i := range beats {
				beats[i] = movie.Beat{Description: "the chase continues", EmotionalTone: "tense"}
			}
			analysis := &movie.ScriptAnalysis{
				Scenes: []movie.Scene{{Title: "追逐", Location: "the docks", TimeOfDay: "night", Beats: beats}},
			}

			planner := NewShotPlanner(catalog, NewPromptBuilder(), zeroRand{})
			shots := planner.PlanShots(analysis, nil, nil, nil, 0)
			So(len(shots), ShouldEqual, 7)
			for i := 2; i < len(shots); i++ {
				So(shots[i].CameraMovement, ShouldNotEqual, shots[i-1].CameraMovement)
				So(shots[i].CameraMovement, ShouldNotEqual, shots[i-2].CameraMovement)
			}
		})

		Convey("orbit_360 受运镜自身的时长边界约束", func() {
			analysis := &movie.ScriptAnalysis{
				Scenes: []movie.Scene{{
					Title: "相遇", Location: "a rooftop garden", TimeOfDay: "dawn",
					Beats: []movie.Beat{
						{Description: "the city wakes", EmotionalTone: "peaceful"},
						{Description: "they finally embrace", EmotionalTone: "romantic"},
					},
				}},
			}

			planner := NewShotPlanner(catalog, NewPromptBuilder(), zeroRand{})
			shots := planner.PlanShots(analysis, nil, nil, nil, 0)
			So(shots[1].CameraMovement, ShouldEqual, OrbitMovementID)
			So(shots[1].DurationSeconds, ShouldEqual, 10) // 5+1=6 被下限 10 抬起
			So(shots[1].GeneratedPrompt, ShouldContainSubstring, "full rotation")
			So(shots[1].NegativePrompt, ShouldContainSubstring, "warped geometry")
		})

		Convey("未识别情绪回退到 dramatic 条目", func() {
			analysis := &movie.ScriptAnalysis{
				Scenes: []movie.Scene{{
					Title: "开场", Location: "a lobby", TimeOfDay: "day",
					Beats: []movie.Beat{
						{Description: "doors open"},
						{Description: "a stranger enters", EmotionalTone: "elated"},
					},
				}},
			}

			planner := NewShotPlanner(catalog, NewPromptBuilder(), zeroRand{})
			shots := planner.PlanShots(analysis, nil, nil, nil, 0)
			So(shots[1].CameraMovement, ShouldEqual, "dolly_push_in")
			So(shots[1].DurationSeconds, ShouldEqual, 6) // 5 + dramatic(+1)
		})

		Convey("节拍没提到任何角色时主体退回场景地点", func() {
			planner := NewShotPlanner(catalog, NewPromptBuilder(), zeroRand{})
			analysis := &movie.ScriptAnalysis{
				Scenes: []movie.Scene{{
					Title: "空镜", Location: "an empty platform", TimeOfDay: "night",
					Beats: []movie.Beat{{Description: "wind moves the litter"}},
				}},
			}
			shots := planner.PlanShots(analysis, noirCharacters(), nil, nil, 0)
			So(shots[0].Subject, ShouldEqual, "an empty platform")
		})

		Convey("对白说话人在角色表找不到时 CharacterID 为空串", func() {
			planner := NewShotPlanner(catalog, NewPromptBuilder(), zeroRand{})
			analysis := &movie.ScriptAnalysis{
				Scenes: []movie.Scene{{
					Title: "电话", Location: "a phone booth", TimeOfDay: "night",
					Beats: []movie.Beat{{
						Description: "a voice on the line",
						Dialogue:    []movie.DialogueLine{{Character: "Unknown Caller", Line: "Stop digging."}},
					}},
				}},
			}
			shots := planner.PlanShots(analysis, noirCharacters(), nil, nil, 0)
			So(shots[0].Dialogue, ShouldNotBeNil)
			So(shots[0].Dialogue.CharacterID, ShouldBeEmpty)
			So(shots[0].Dialogue.CharacterName, ShouldEqual, "Unknown Caller")
		})

		Convey("未注入随机源时按剧本内容派生种子，同一剧本规划可复现", func() {
			planner := NewShotPlanner(catalog, NewPromptBuilder(), nil)
			first := planner.PlanShots(noirAnalysis(), noirCharacters(), style, &noir, 26)
			second := planner.PlanShots(noirAnalysis(), noirCharacters(), style, &noir, 26)
			So(len(first), ShouldEqual, len(second))
			for i := range first {
				So(first[i].CameraMovement, ShouldEqual, second[i].CameraMovement)
				So(first[i].ShotType, ShouldEqual, second[i].ShotType)
				So(first[i].DurationSeconds, ShouldEqual, second[i].DurationSeconds)
				So(first[i].GeneratedPrompt, ShouldEqual, second[i].GeneratedPrompt)
			}
		})

		Convey("多种种子下第一个镜头始终是定场运镜", func() {
			establishing := make(map[string]bool)
			for _, id := range EstablishingMovements {
				establishing[id] = true
			}
			for seed := int64(0); seed < 20; seed++ {
				planner := NewShotPlanner(catalog, NewPromptBuilder(), NewSeededRand(seed))
				shots := planner.PlanShots(noirAnalysis(), noirCharacters(), style, &noir, 26)
				So(establishing[shots[0].CameraMovement], ShouldBeTrue)
			}
		})
	})
}
