package movie

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"papaya/internal/model/movie"
	"papaya/internal/pkg/id"
	"papaya/internal/pkg/storytools"
)

// PlanShots 规划影片的全部镜头
// 覆盖式：旧规划（含未生成的镜头）整体丢弃后重建，已生成的 Take 保留在产物表里
func (s *movieService) PlanShots(ctx context.Context, movieID string) ([]*movie.Shot, error) {
	m, err := s.movieRepo.FindByID(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("find movie: %w", err)
	}
	if m.ScriptAnalysis == nil || len(m.ScriptAnalysis.Scenes) == 0 {
		return nil, fmt.Errorf("movie has no script analysis; analyze the script first")
	}

	characters, err := s.characterRepo.FindByMovieID(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("find characters: %w", err)
	}

	preset := s.presetFor(m)
	shots := s.planner.PlanShots(m.ScriptAnalysis, characters, m.StyleBible, preset, m.TargetDuration)
	if len(shots) == 0 {
		return nil, fmt.Errorf("planner produced no shots")
	}

	for _, shot := range shots {
		shot.ID = id.New()
		shot.MovieID = movieID
	}

	if err := s.shotRepo.DeleteByMovieID(ctx, movieID); err != nil {
		return nil, fmt.Errorf("clear previous plan: %w", err)
	}
	if err := s.shotRepo.CreateMany(ctx, shots); err != nil {
		return nil, fmt.Errorf("save shots: %w", err)
	}

	log.Info().
		Str("movie_id", movieID).
		Int("shots", len(shots)).
		Int("scenes", len(m.ScriptAnalysis.Scenes)).
		Msg("镜头规划完成")

	return shots, nil
}

// GetShots 获取影片的全部镜头（按全局顺序）
func (s *movieService) GetShots(ctx context.Context, movieID string) ([]*movie.Shot, error) {
	return s.shotRepo.FindByMovieID(ctx, movieID)
}

// presetFor 查影片的类型预设
// 影片显式设置的类型优先，否则用剧本分析推断的类型；都查不到时返回 nil（规划器自会降级）
func (s *movieService) presetFor(m *movie.Movie) *storytools.GenrePreset {
	for _, genre := range []string{m.Genre, analysisGenre(m)} {
		if genre == "" {
			continue
		}
		if preset, ok := s.genres.Get(genre); ok {
			return &preset
		}
	}
	return nil
}

func analysisGenre(m *movie.Movie) string {
	if m.ScriptAnalysis == nil {
		return ""
	}
	return m.ScriptAnalysis.Genre
}
