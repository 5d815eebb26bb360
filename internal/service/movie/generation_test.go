package movie

import (
	"context"
	"fmt"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"papaya/internal/model/movie"
)

func seedMovie(env *testEnv, m *movie.Movie) *movie.Movie {
	if m.ID == "" {
		m.ID = "m1"
	}
	if m.AspectRatio == "" {
		m.AspectRatio = "16:9"
	}
	if m.Status == "" {
		m.Status = movie.MovieStatusDrafting
	}
	_ = env.movies.Create(context.Background(), m)
	return m
}

func seedShot(env *testEnv, shot *movie.Shot) *movie.Shot {
	if shot.MovieID == "" {
		shot.MovieID = "m1"
	}
	if shot.ShotType == "" {
		shot.ShotType = "medium"
	}
	if shot.CameraMovement == "" {
		shot.CameraMovement = "dolly_push_in"
	}
	if shot.Subject == "" {
		shot.Subject = "Vera, a detective in a gray coat"
	}
	if shot.Action == "" {
		shot.Action = "She studies the case board"
	}
	if shot.Environment == "" {
		shot.Environment = "Rain-streaked office, night"
	}
	if shot.Lighting == "" {
		shot.Lighting = "low-key lighting, hard shadows"
	}
	if shot.DurationSeconds == 0 {
		shot.DurationSeconds = 5
	}
	if shot.Status == "" {
		shot.Status = movie.ShotStatusPlanned
	}
	_ = env.shots.Create(context.Background(), shot)
	return shot
}

func TestGenerateShot(t *testing.T) {
	ctx := context.Background()

	Convey("测试单镜头生成", t, func() {
		Convey("首个镜头无任何续接来源时从零生成", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})
			shot := seedShot(env, &movie.Shot{ID: "s1", SceneIndex: 0, Order: 0})

			result, err := env.svc.GenerateShot(ctx, shot.ID, nil)
			So(err, ShouldBeNil)
			So(result.ChainSource, ShouldEqual, ChainSourceNone)
			So(result.VideoURL, ShouldNotBeEmpty)
			So(result.Cancelled, ShouldBeFalse)
			So(result.CreditCost, ShouldEqual, 25) // 5 秒 × std 每秒 5

			fresh, _ := env.shots.FindByID(ctx, shot.ID)
			So(fresh.Status, ShouldEqual, movie.ShotStatusCompleted)
			So(fresh.EndFrameURL, ShouldContainSubstring, "frames.example.com")

			hero, _ := env.takes.FindHeroByShotID(ctx, shot.ID)
			So(hero, ShouldNotBeNil)
			So(hero.ID, ShouldEqual, result.TakeID)
			So(hero.GenerationParams.Quality, ShouldEqual, "std")
		})

		Convey("生成成功后写入场景参考帧（首写生效）", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})
			shot := seedShot(env, &movie.Shot{ID: "s1", SceneIndex: 2, Order: 0})

			_, err := env.svc.GenerateShot(ctx, shot.ID, nil)
			So(err, ShouldBeNil)

			m, _ := env.movies.FindByID(ctx, "m1")
			So(m.SceneReferenceFrames["2"], ShouldContainSubstring, "frames.example.com")
		})

		Convey("同场景上一镜头完成时续接其尾帧", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})
			seedShot(env, &movie.Shot{
				ID: "s1", SceneIndex: 0, Order: 0,
				Status:      movie.ShotStatusCompleted,
				EndFrameURL: "https://frames.example.com/prev-end.jpg",
			})
			shot := seedShot(env, &movie.Shot{ID: "s2", SceneIndex: 0, Order: 1})

			result, err := env.svc.GenerateShot(ctx, shot.ID, nil)
			So(err, ShouldBeNil)
			So(result.ChainSource, ShouldEqual, ChainSourceChain)
			So(env.video.lastRequest().StartImageURL, ShouldEqual, "https://frames.example.com/prev-end.jpg")

			// 续接帧缓存到了本镜头
			fresh, _ := env.shots.FindByID(ctx, shot.ID)
			So(fresh.StartFrameURL, ShouldEqual, "https://frames.example.com/prev-end.jpg")
		})

		Convey("上一镜头跨场景时降级到场景参考帧", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{
				ID: "m1",
				SceneReferenceFrames: map[string]string{
					"1": "https://frames.example.com/scene1-ref.jpg",
				},
			})
			seedShot(env, &movie.Shot{
				ID: "s1", SceneIndex: 0, Order: 0,
				Status:      movie.ShotStatusCompleted,
				EndFrameURL: "https://frames.example.com/prev-end.jpg",
			})
			shot := seedShot(env, &movie.Shot{ID: "s2", SceneIndex: 1, Order: 1})

			result, err := env.svc.GenerateShot(ctx, shot.ID, nil)
			So(err, ShouldBeNil)
			So(result.ChainSource, ShouldEqual, ChainSourceScene)
			So(env.video.lastRequest().StartImageURL, ShouldEqual, "https://frames.example.com/scene1-ref.jpg")
		})

		Convey("上一镜头的尾帧缺失时按需抽取 hero take 的尾帧", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})
			prev := seedShot(env, &movie.Shot{
				ID: "s1", SceneIndex: 0, Order: 0,
				Status: movie.ShotStatusCompleted,
			})
			_ = env.takes.Create(ctx, &movie.Take{
				ID: "t0", ShotID: prev.ID, MovieID: "m1",
				VideoURL: "https://videos.example.com/t0.mp4", IsHero: true,
			})
			shot := seedShot(env, &movie.Shot{ID: "s2", SceneIndex: 0, Order: 1})

			result, err := env.svc.GenerateShot(ctx, shot.ID, nil)
			So(err, ShouldBeNil)
			So(result.ChainSource, ShouldEqual, ChainSourceChain)

			// 抽取结果回写到上一镜头
			freshPrev, _ := env.shots.FindByID(ctx, prev.ID)
			So(freshPrev.EndFrameURL, ShouldContainSubstring, "t0.jpg")
		})

		Convey("重新生成使下一镜头缓存的续接帧失效", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})
			shot := seedShot(env, &movie.Shot{ID: "s1", SceneIndex: 0, Order: 0})
			next := seedShot(env, &movie.Shot{
				ID: "s2", SceneIndex: 0, Order: 1,
				StartFrameURL: "https://frames.example.com/stale.jpg",
			})
			later := seedShot(env, &movie.Shot{
				ID: "s3", SceneIndex: 0, Order: 2,
				StartFrameURL: "https://frames.example.com/keep.jpg",
			})

			result, err := env.svc.GenerateShot(ctx, shot.ID, nil)
			So(err, ShouldBeNil)
			So(result.StaleShotIDs, ShouldResemble, []string{next.ID})

			freshNext, _ := env.shots.FindByID(ctx, next.ID)
			So(freshNext.StartFrameURL, ShouldBeEmpty)

			// 只有紧邻的下一镜头失效
			freshLater, _ := env.shots.FindByID(ctx, later.ID)
			So(freshLater.StartFrameURL, ShouldEqual, "https://frames.example.com/keep.jpg")
		})

		Convey("生成期间被取消的镜头保留产物但不标 hero", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})
			shot := seedShot(env, &movie.Shot{ID: "s1", SceneIndex: 0, Order: 0})

			env.video.onGenerate = func() {
				_ = env.shots.UpdateStatus(ctx, shot.ID, movie.ShotStatusPlanned, "")
			}

			result, err := env.svc.GenerateShot(ctx, shot.ID, nil)
			So(err, ShouldBeNil)
			So(result.Cancelled, ShouldBeTrue)
			So(result.TakeID, ShouldNotBeEmpty)

			hero, _ := env.takes.FindHeroByShotID(ctx, shot.ID)
			So(hero, ShouldBeNil)

			fresh, _ := env.shots.FindByID(ctx, shot.ID)
			So(fresh.Status, ShouldEqual, movie.ShotStatusPlanned)
			So(fresh.EndFrameURL, ShouldBeEmpty)
		})

		Convey("生成失败时镜头进入 failed 并记录错误", func() {
			env := newTestEnv()
			env.video.err = fmt.Errorf("provider quota exceeded")
			seedMovie(env, &movie.Movie{ID: "m1"})
			shot := seedShot(env, &movie.Shot{ID: "s1", SceneIndex: 0, Order: 0})

			_, err := env.svc.GenerateShot(ctx, shot.ID, nil)
			So(err, ShouldNotBeNil)

			fresh, _ := env.shots.FindByID(ctx, shot.ID)
			So(fresh.Status, ShouldEqual, movie.ShotStatusFailed)
			So(fresh.ErrorMessage, ShouldContainSubstring, "quota")
		})

		Convey("生成中的镜头拒绝重复生成", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})
			shot := seedShot(env, &movie.Shot{
				ID: "s1", SceneIndex: 0, Order: 0,
				Status: movie.ShotStatusGenerating,
			})

			_, err := env.svc.GenerateShot(ctx, shot.ID, nil)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "already generating")
		})

		Convey("全部镜头完成后影片推进到 assembling", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1", Status: movie.MovieStatusGenerating})
			seedShot(env, &movie.Shot{
				ID: "s1", SceneIndex: 0, Order: 0,
				Status: movie.ShotStatusCompleted,
			})
			shot := seedShot(env, &movie.Shot{ID: "s2", SceneIndex: 0, Order: 1})

			_, err := env.svc.GenerateShot(ctx, shot.ID, nil)
			So(err, ShouldBeNil)

			m, _ := env.movies.FindByID(ctx, "m1")
			So(m.Status, ShouldEqual, movie.MovieStatusAssembling)
		})
	})
}

func TestGenerateShotElements(t *testing.T) {
	ctx := context.Background()

	Convey("测试生成请求的元素绑定", t, func() {
		Convey("出镜且有 2 张以上参考图的角色绑定为元素", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})
			_ = env.characters.Create(ctx, &movie.Character{
				ID: "c1", MovieID: "m1", Name: "Vera",
				VisualDescription: "a detective in a gray coat",
				ReferenceImages:   []string{"https://img.example.com/vera-1.jpg", "https://img.example.com/vera-2.jpg"},
			})
			shot := seedShot(env, &movie.Shot{ID: "s1", SceneIndex: 0, Order: 0})

			result, err := env.svc.GenerateShot(ctx, shot.ID, nil)
			So(err, ShouldBeNil)
			So(result.ElementsUsed, ShouldContain, "element_vera")

			request := env.video.lastRequest()
			So(request.Elements, ShouldHaveLength, 1)
			So(request.Elements[0].Name, ShouldEqual, "element_vera")
			So(request.Elements[0].Images, ShouldHaveLength, 2)
		})

		Convey("镜头文本未提到的角色不绑定", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})
			_ = env.characters.Create(ctx, &movie.Character{
				ID: "c1", MovieID: "m1", Name: "Marlowe",
				ReferenceImages: []string{"https://img.example.com/m-1.jpg", "https://img.example.com/m-2.jpg"},
			})
			shot := seedShot(env, &movie.Shot{ID: "s1", SceneIndex: 0, Order: 0})

			result, err := env.svc.GenerateShot(ctx, shot.ID, nil)
			So(err, ShouldBeNil)
			So(result.ElementsUsed, ShouldBeEmpty)
		})

		Convey("对白说话人即使不在主体文本中也算出镜", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})
			_ = env.characters.Create(ctx, &movie.Character{
				ID: "c1", MovieID: "m1", Name: "Marlowe",
				ReferenceImages: []string{"https://img.example.com/m-1.jpg", "https://img.example.com/m-2.jpg"},
			})
			shot := seedShot(env, &movie.Shot{
				ID: "s1", SceneIndex: 0, Order: 0,
				Subject: "A figure by the window",
				Dialogue: &movie.ShotDialogue{
					CharacterID: "c1", CharacterName: "Marlowe",
					Line: "You knew all along.", Emotion: "bitter",
				},
			})

			result, err := env.svc.GenerateShot(ctx, shot.ID, nil)
			So(err, ShouldBeNil)
			So(result.ElementsUsed, ShouldContain, "element_marlowe")
		})

		Convey("只有 1 张参考图的角色跳过绑定", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})
			_ = env.characters.Create(ctx, &movie.Character{
				ID: "c1", MovieID: "m1", Name: "Vera",
				ReferenceImages: []string{"https://img.example.com/vera-1.jpg"},
			})
			shot := seedShot(env, &movie.Shot{ID: "s1", SceneIndex: 0, Order: 0})

			result, err := env.svc.GenerateShot(ctx, shot.ID, nil)
			So(err, ShouldBeNil)
			So(result.ElementsUsed, ShouldBeEmpty)
		})

		Convey("不支持格式的参考图被剔除后可导致跳过绑定", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})
			_ = env.characters.Create(ctx, &movie.Character{
				ID: "c1", MovieID: "m1", Name: "Vera",
				ReferenceImages: []string{
					"https://img.example.com/vera-1.jpg",
					"https://img.example.com/vera-2.heic",
					"https://img.example.com/vera-3.gif",
				},
			})
			shot := seedShot(env, &movie.Shot{ID: "s1", SceneIndex: 0, Order: 0})

			result, err := env.svc.GenerateShot(ctx, shot.ID, nil)
			So(err, ShouldBeNil)
			So(result.ElementsUsed, ShouldBeEmpty)
		})

		Convey("超过 4 张参考图时截断到 4 张", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})
			images := make([]string, 6)
			for i := range images {
				images[i] = fmt.Sprintf("https://img.example.com/vera-%d.jpg", i)
			}
			_ = env.characters.Create(ctx, &movie.Character{
				ID: "c1", MovieID: "m1", Name: "Vera", ReferenceImages: images,
			})
			shot := seedShot(env, &movie.Shot{ID: "s1", SceneIndex: 0, Order: 0})

			_, err := env.svc.GenerateShot(ctx, shot.ID, nil)
			So(err, ShouldBeNil)
			So(env.video.lastRequest().Elements[0].Images, ShouldHaveLength, 4)
		})

		Convey("出镜但无参考图的角色在生成后回填自举参考", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})
			_ = env.characters.Create(ctx, &movie.Character{
				ID: "c1", MovieID: "m1", Name: "Vera",
			})
			shot := seedShot(env, &movie.Shot{ID: "s1", SceneIndex: 0, Order: 0})

			_, err := env.svc.GenerateShot(ctx, shot.ID, nil)
			So(err, ShouldBeNil)

			c, _ := env.characters.FindByID(ctx, "c1")
			So(c.GeneratedReferenceURL, ShouldContainSubstring, "frames.example.com")
		})

		Convey("请求级追加参考图并入可用图池后可凑足绑定", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})
			_ = env.characters.Create(ctx, &movie.Character{
				ID: "c1", MovieID: "m1", Name: "Vera",
				VisualDescription: "a detective in a gray coat",
				ReferenceImages:   []string{"https://img.example.com/vera-1.jpg"},
			})
			shot := seedShot(env, &movie.Shot{ID: "s1", SceneIndex: 0, Order: 0})

			result, err := env.svc.GenerateShot(ctx, shot.ID, &GenerateOptions{
				ExtraReferenceImages: map[string][]string{
					"c1": {"https://img.example.com/vera-extra.jpg"},
				},
			})
			So(err, ShouldBeNil)
			So(result.ElementsUsed, ShouldContain, "element_vera")

			request := env.video.lastRequest()
			So(request.Elements, ShouldHaveLength, 1)
			So(request.Elements[0].Images, ShouldHaveLength, 2)
			So(request.Elements[0].Images, ShouldContain, "https://img.example.com/vera-extra.jpg")
		})

		Convey("有上传参考图但缺生成参考的出镜角色同样回填", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})
			_ = env.characters.Create(ctx, &movie.Character{
				ID: "c1", MovieID: "m1", Name: "Vera",
				ReferenceImages: []string{"https://img.example.com/vera-1.jpg", "https://img.example.com/vera-2.jpg"},
			})
			shot := seedShot(env, &movie.Shot{ID: "s1", SceneIndex: 0, Order: 0})

			_, err := env.svc.GenerateShot(ctx, shot.ID, nil)
			So(err, ShouldBeNil)

			c, _ := env.characters.FindByID(ctx, "c1")
			So(c.GeneratedReferenceURL, ShouldContainSubstring, "frames.example.com")
		})

		Convey("已完成的场景元素包追加为场景元素并写入环境块", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})
			_ = env.packs.Create(ctx, &movie.ScenePack{
				ID: "p1", MovieID: "m1", SceneIndex: 0,
				Name:        "element_rainy-office",
				Description: "rain-streaked detective office",
				Images:      []string{"https://img.example.com/o1.jpg", "https://img.example.com/o2.jpg"},
				Status:      movie.TaskStatusCompleted,
			})
			shot := seedShot(env, &movie.Shot{ID: "s1", SceneIndex: 0, Order: 0})

			result, err := env.svc.GenerateShot(ctx, shot.ID, nil)
			So(err, ShouldBeNil)
			So(result.ElementsUsed, ShouldContain, "element_rainy-office")
			So(env.video.lastRequest().Prompt, ShouldContainSubstring, "(element_rainy-office)")
		})
	})
}

func TestGenerateShotPrompt(t *testing.T) {
	ctx := context.Background()

	Convey("测试生成时的 prompt 复用与重拼", t, func() {
		Convey("要音频、无场景元素且全片还没有角色参考图时直接复用规划期的 prompt", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})
			shot := seedShot(env, &movie.Shot{
				ID: "s1", SceneIndex: 0, Order: 0,
				GeneratedPrompt: "Planned prompt from the shot planner.",
				NegativePrompt:  "blurry",
			})

			_, err := env.svc.GenerateShot(ctx, shot.ID, &GenerateOptions{GenerateAudio: true})
			So(err, ShouldBeNil)

			request := env.video.lastRequest()
			So(request.Prompt, ShouldEqual, "Planned prompt from the shot planner.")
			So(request.NegativePrompt, ShouldEqual, "blurry")
			So(request.GenerateAudio, ShouldBeTrue)
		})

		Convey("影片里已有角色持有参考图时不复用而重拼", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})
			_ = env.characters.Create(ctx, &movie.Character{
				ID: "c1", MovieID: "m1", Name: "Vera",
				VisualDescription: "a detective in a gray coat",
				ReferenceImages:   []string{"https://img.example.com/vera-1.jpg", "https://img.example.com/vera-2.jpg"},
			})
			shot := seedShot(env, &movie.Shot{
				ID: "s1", SceneIndex: 0, Order: 0,
				GeneratedPrompt: "Planned prompt from the shot planner.",
			})

			result, err := env.svc.GenerateShot(ctx, shot.ID, &GenerateOptions{GenerateAudio: true})
			So(err, ShouldBeNil)
			So(result.ElementsUsed, ShouldContain, "element_vera")

			// 规划期的 prompt 不含元素 token，绑定了元素就必须重拼对账
			request := env.video.lastRequest()
			So(request.Prompt, ShouldNotEqual, "Planned prompt from the shot planner.")
			So(request.Prompt, ShouldContainSubstring, "element_vera")
		})

		Convey("不要音频时重拼 prompt 并去掉对白块", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})
			shot := seedShot(env, &movie.Shot{
				ID: "s1", SceneIndex: 0, Order: 0,
				GeneratedPrompt: `Planned prompt. [Vera, low voice]: "Stored line."`,
				Dialogue: &movie.ShotDialogue{
					CharacterName: "Vera", Line: "Stored line.", Emotion: "low",
				},
			})

			_, err := env.svc.GenerateShot(ctx, shot.ID, nil)
			So(err, ShouldBeNil)

			request := env.video.lastRequest()
			So(request.Prompt, ShouldNotContainSubstring, "Stored line.")
			So(strings.Contains(request.Prompt, shot.Action), ShouldBeTrue)
		})
	})
}

func TestCreditCost(t *testing.T) {
	Convey("测试积分消耗计算", t, func() {
		env := newTestEnv()

		Convey("标准档按 std 每秒单价", func() {
			So(env.svc.creditCost(5, movie.QualityStandard, false), ShouldEqual, 25)
		})

		Convey("高质量档按 pro 每秒单价", func() {
			So(env.svc.creditCost(5, movie.QualityPro, false), ShouldEqual, 50)
		})

		Convey("原生音频追加百分比附加费", func() {
			So(env.svc.creditCost(4, movie.QualityStandard, true), ShouldEqual, 25) // 20 + 25%
			So(env.svc.creditCost(5, movie.QualityPro, true), ShouldEqual, 62)      // 50 + 12（整数截断）
		})
	})
}

func TestCancelShot(t *testing.T) {
	ctx := context.Background()

	Convey("测试取消镜头生成", t, func() {
		Convey("生成中的镜头取消后回到 planned", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})
			shot := seedShot(env, &movie.Shot{
				ID: "s1", SceneIndex: 0, Order: 0,
				Status: movie.ShotStatusGenerating,
			})

			err := env.svc.CancelShot(ctx, shot.ID)
			So(err, ShouldBeNil)

			fresh, _ := env.shots.FindByID(ctx, shot.ID)
			So(fresh.Status, ShouldEqual, movie.ShotStatusPlanned)
		})

		Convey("非生成中的镜头不允许取消", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})
			shot := seedShot(env, &movie.Shot{ID: "s1", SceneIndex: 0, Order: 0})

			err := env.svc.CancelShot(ctx, shot.ID)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "not generating")
		})
	})
}
