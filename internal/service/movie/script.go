package movie

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"papaya/internal/model/movie"
	"papaya/internal/pkg/storytools"
)

// AnalyzeScript 分析故事文本并生成风格圣经
// 流程：
// 1. 调用 LLM 把自由文本解析为场景/节拍结构
// 2. 按解析出的类型生成风格圣经
// 3. 一并落库；影片的类型为空时用分析结果回填
func (s *movieService) AnalyzeScript(ctx context.Context, movieID, script string) (*movie.ScriptAnalysis, error) {
	m, err := s.movieRepo.FindByID(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("find movie: %w", err)
	}
	if s.analyzer == nil {
		return nil, fmt.Errorf("script analyzer is not configured")
	}

	analysis, err := s.analyzer.AnalyzeScript(ctx, m.Title, script)
	if err != nil {
		return nil, fmt.Errorf("analyze script: %w", err)
	}

	genre := m.Genre
	if genre == "" {
		genre = analysis.Genre
	}

	updates := map[string]interface{}{
		"script_analysis": analysis,
		"genre":           genre,
	}

	// 风格圣经失败不阻塞剧本分析结果，规划时风格块留空即可
	style, err := s.analyzer.GenerateStyleBible(ctx, genre, analysis.Synopsis)
	if err != nil {
		log.Warn().Err(err).Str("movie_id", movieID).Msg("风格圣经生成失败，继续保存剧本分析")
	} else {
		updates["style_bible"] = style
	}

	if err := s.movieRepo.Update(ctx, movieID, updates); err != nil {
		return nil, fmt.Errorf("save script analysis: %w", err)
	}
	return analysis, nil
}

// EstimateDuration 估计故事自然时长并为目标时长打分
// 纯咨询接口：不修改影片，也不触发规划
func (s *movieService) EstimateDuration(ctx context.Context, movieID string, targetDuration int) (*storytools.DurationAnalysis, error) {
	m, err := s.movieRepo.FindByID(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("find movie: %w", err)
	}
	if targetDuration <= 0 {
		targetDuration = m.TargetDuration
	}
	return storytools.AnalyzeDuration(m.ScriptAnalysis, targetDuration), nil
}
