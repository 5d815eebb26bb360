package movie

import (
	"context"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"papaya/internal/model/movie"
	"papaya/internal/pkg/cache"
)

func TestGenerateMovie(t *testing.T) {
	ctx := context.Background()

	Convey("测试整片顺序生成", t, func() {
		Convey("按顺序生成全部未完成镜头", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})
			seedShot(env, &movie.Shot{ID: "s1", SceneIndex: 0, Order: 0})
			seedShot(env, &movie.Shot{ID: "s2", SceneIndex: 0, Order: 1})
			seedShot(env, &movie.Shot{ID: "s3", SceneIndex: 1, Order: 2})

			result, err := env.svc.GenerateMovie(ctx, "m1", nil)
			So(err, ShouldBeNil)
			So(result.GeneratedShots, ShouldEqual, 3)
			So(result.SkippedShots, ShouldEqual, 0)
			So(result.Paused, ShouldBeFalse)
			So(result.TotalCredits, ShouldEqual, 75) // 3 × 5 秒 × 5

			// 第二个镜头应续接第一个镜头的尾帧
			So(result.Results[1].ChainSource, ShouldEqual, ChainSourceChain)

			m, _ := env.movies.FindByID(ctx, "m1")
			So(m.Status, ShouldEqual, movie.MovieStatusAssembling)
		})

		Convey("已完成的镜头跳过，失败修复后可续跑", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})
			seedShot(env, &movie.Shot{
				ID: "s1", SceneIndex: 0, Order: 0,
				Status: movie.ShotStatusCompleted,
			})
			seedShot(env, &movie.Shot{ID: "s2", SceneIndex: 0, Order: 1})

			result, err := env.svc.GenerateMovie(ctx, "m1", nil)
			So(err, ShouldBeNil)
			So(result.SkippedShots, ShouldEqual, 1)
			So(result.GeneratedShots, ShouldEqual, 1)
		})

		Convey("单镜头失败立即停止", func() {
			env := newTestEnv()
			env.video.err = fmt.Errorf("provider down")
			seedMovie(env, &movie.Movie{ID: "m1"})
			seedShot(env, &movie.Shot{ID: "s1", SceneIndex: 0, Order: 0})
			seedShot(env, &movie.Shot{ID: "s2", SceneIndex: 0, Order: 1})

			result, err := env.svc.GenerateMovie(ctx, "m1", nil)
			So(err, ShouldNotBeNil)
			So(result.FailedShotID, ShouldEqual, "s1")
			So(result.GeneratedShots, ShouldEqual, 0)

			// 第二个镜头未被触碰
			s2, _ := env.shots.FindByID(ctx, "s2")
			So(s2.Status, ShouldEqual, movie.ShotStatusPlanned)
		})

		Convey("暂停标记在镜头之间生效", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})
			seedShot(env, &movie.Shot{ID: "s1", SceneIndex: 0, Order: 0})
			seedShot(env, &movie.Shot{ID: "s2", SceneIndex: 0, Order: 1})

			// 第一个镜头生成期间用户按下暂停
			env.video.onGenerate = func() {
				_ = env.svc.PauseGeneration(ctx, "m1")
			}

			result, err := env.svc.GenerateMovie(ctx, "m1", nil)
			So(err, ShouldBeNil)
			So(result.Paused, ShouldBeTrue)
			So(result.GeneratedShots, ShouldEqual, 1)

			// 恢复后续跑剩余镜头
			env.video.onGenerate = nil
			So(env.svc.ResumeGeneration(ctx, "m1"), ShouldBeNil)

			resumed, err := env.svc.GenerateMovie(ctx, "m1", nil)
			So(err, ShouldBeNil)
			So(resumed.Paused, ShouldBeFalse)
			So(resumed.SkippedShots, ShouldEqual, 1)
			So(resumed.GeneratedShots, ShouldEqual, 1)
		})

		Convey("没有规划镜头的影片直接报错", func() {
			env := newTestEnv()
			seedMovie(env, &movie.Movie{ID: "m1"})

			_, err := env.svc.GenerateMovie(ctx, "m1", nil)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "no planned shots")
		})
	})
}

func TestPauseResume(t *testing.T) {
	ctx := context.Background()

	Convey("测试暂停与恢复标记", t, func() {
		env := newTestEnv()
		seedMovie(env, &movie.Movie{ID: "m1"})

		Convey("暂停写入标记，恢复清除标记", func() {
			So(env.svc.PauseGeneration(ctx, "m1"), ShouldBeNil)
			paused, _ := env.cache.Exists(ctx, cache.MoviePauseKey("m1"))
			So(paused, ShouldBeTrue)

			So(env.svc.ResumeGeneration(ctx, "m1"), ShouldBeNil)
			paused, _ = env.cache.Exists(ctx, cache.MoviePauseKey("m1"))
			So(paused, ShouldBeFalse)
		})

		Convey("暂停不存在的影片报错", func() {
			So(env.svc.PauseGeneration(ctx, "missing"), ShouldNotBeNil)
		})
	})
}
