package movie

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"papaya/internal/model/movie"
	"papaya/internal/pkg/cache"
)

// GenerateMovieResult 整片生成结果
type GenerateMovieResult struct {
	GeneratedShots int                   `json:"generated_shots"` // 本次实际生成的镜头数
	SkippedShots   int                   `json:"skipped_shots"`   // 已完成、直接跳过的镜头数
	TotalCredits   int                   `json:"total_credits"`   // 累计上报的积分消耗
	Paused         bool                  `json:"paused"`          // 被暂停标记打断
	FailedShotID   string                `json:"failed_shot_id,omitempty"`
	Results        []*GenerateShotResult `json:"results,omitempty"` // 按顺序的每镜头结果
}

// GenerateMovie 顺序生成影片的全部未完成镜头
// 串行是刻意的：续接帧依赖上一镜头的成片，并行会破坏连续性链
// 每个镜头开始前检查暂停标记；单镜头失败立即停止（fail-fast），
// 已生成的镜头保留，修复后重新调用会跳过它们继续
func (s *movieService) GenerateMovie(ctx context.Context, movieID string, opts *GenerateOptions) (*GenerateMovieResult, error) {
	if _, err := s.movieRepo.FindByID(ctx, movieID); err != nil {
		return nil, fmt.Errorf("find movie: %w", err)
	}

	shots, err := s.shotRepo.FindByMovieID(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("find shots: %w", err)
	}
	if len(shots) == 0 {
		return nil, fmt.Errorf("movie %s has no planned shots", movieID)
	}

	if err := s.movieRepo.UpdateStatus(ctx, movieID, movie.MovieStatusGenerating); err != nil {
		return nil, fmt.Errorf("mark movie generating: %w", err)
	}

	result := &GenerateMovieResult{}
	for _, shot := range shots {
		if shot.Status == movie.ShotStatusCompleted {
			result.SkippedShots++
			continue
		}

		paused := false
		if s.cache != nil {
			var err error
			paused, err = s.cache.Exists(ctx, cache.MoviePauseKey(movieID))
			if err != nil {
				log.Warn().Err(err).Str("movie_id", movieID).Msg("暂停标记查询失败，按未暂停处理")
			}
		}
		if paused {
			log.Info().Str("movie_id", movieID).Int("order", shot.Order).Msg("整片生成被暂停")
			result.Paused = true
			return result, nil
		}

		shotResult, err := s.GenerateShot(ctx, shot.ID, opts)
		if err != nil {
			result.FailedShotID = shot.ID
			return result, fmt.Errorf("generate shot %d (%s): %w", shot.Order, shot.ID, err)
		}

		result.GeneratedShots++
		result.TotalCredits += shotResult.CreditCost
		result.Results = append(result.Results, shotResult)
	}

	log.Info().
		Str("movie_id", movieID).
		Int("generated", result.GeneratedShots).
		Int("skipped", result.SkippedShots).
		Int("credits", result.TotalCredits).
		Msg("整片生成完成")

	return result, nil
}

// PauseGeneration 设置整片生成的暂停标记
// 只影响镜头之间的推进，生成中的镜头照常跑完
func (s *movieService) PauseGeneration(ctx context.Context, movieID string) error {
	if s.cache == nil {
		return fmt.Errorf("pause is unavailable: cache is not configured")
	}
	if _, err := s.movieRepo.FindByID(ctx, movieID); err != nil {
		return fmt.Errorf("find movie: %w", err)
	}
	if err := s.cache.Set(ctx, cache.MoviePauseKey(movieID), "1", 24*time.Hour); err != nil {
		return fmt.Errorf("set pause flag: %w", err)
	}
	log.Info().Str("movie_id", movieID).Msg("已设置暂停标记")
	return nil
}

// ResumeGeneration 清除整片生成的暂停标记
func (s *movieService) ResumeGeneration(ctx context.Context, movieID string) error {
	if s.cache == nil {
		return fmt.Errorf("resume is unavailable: cache is not configured")
	}
	if err := s.cache.Delete(ctx, cache.MoviePauseKey(movieID)); err != nil {
		return fmt.Errorf("clear pause flag: %w", err)
	}
	log.Info().Str("movie_id", movieID).Msg("已清除暂停标记")
	return nil
}
