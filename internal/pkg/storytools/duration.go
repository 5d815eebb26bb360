package storytools

import (
	"fmt"
	"math"

	"papaya/internal/model/movie"
)

// SceneDurationEstimate 单个场景的时长估计
type SceneDurationEstimate struct {
	SceneIndex       int    `json:"scene_index"`       // 场景下标
	Title            string `json:"title"`             // 场景标题
	BeatCount        int    `json:"beat_count"`        // 节拍数
	EstimatedSeconds int    `json:"estimated_seconds"` // 估计秒数
}

// DurationAnalysis 时长分析结果
// 纯咨询性质：只打分和建议，从不修改任何规划
type DurationAnalysis struct {
	OptimalDuration    int                     `json:"optimal_duration"`     // 故事的自然时长（秒）
	MinViableDuration  int                     `json:"min_viable_duration"`  // 最短可行时长（optimal 的 60%）
	MaxComfortDuration int                     `json:"max_comfort_duration"` // 最长舒适时长（optimal 的 140%）
	SceneBreakdown     []SceneDurationEstimate `json:"scene_breakdown"`      // 按场景拆分
	FitScore           int                     `json:"fit_score"`            // 目标时长匹配度（0-100）
	Suggestion         string                  `json:"suggestion,omitempty"` // 建议（fitScore < 70 时给出）
}

// 每个节拍的基础时长估计（秒）
const (
	beatBaseSeconds     = 5 // 无对白节拍
	dialogueBaseSeconds = 7 // 带对白节拍
)

// AnalyzeDuration 估计故事的自然时长并为候选目标时长打分
// 逐节拍估计：带对白 7 秒、无对白 5 秒，叠加与规划器相同的情绪时长修正。
// 目标在自然时长 ±15% 内得满分，偏差向 100% 逼近时线性衰减到 0。
func AnalyzeDuration(analysis *movie.ScriptAnalysis, targetDuration int) *DurationAnalysis {
	result := &DurationAnalysis{}
	if analysis == nil {
		result.Suggestion = "no script analysis available yet; analyze the script before picking a duration"
		return result
	}

	var optimal, beatCount, dialogueBeats int
	for i, scene := range analysis.Scenes {
		sceneSeconds := 0
		for _, beat := range scene.Beats {
			seconds := beatBaseSeconds
			if len(beat.Dialogue) > 0 {
				seconds = dialogueBaseSeconds
				dialogueBeats++
			}
			seconds += toneBias(beat.EmotionalTone)
			sceneSeconds += seconds
			beatCount++
		}
		optimal += sceneSeconds
		result.SceneBreakdown = append(result.SceneBreakdown, SceneDurationEstimate{
			SceneIndex:       i,
			Title:            scene.Title,
			BeatCount:        len(scene.Beats),
			EstimatedSeconds: sceneSeconds,
		})
	}

	result.OptimalDuration = optimal
	result.MinViableDuration = int(math.Round(float64(optimal) * 0.6))
	result.MaxComfortDuration = int(math.Round(float64(optimal) * 1.4))

	if optimal == 0 {
		result.Suggestion = "the script has no beats; add scenes before picking a duration"
		return result
	}

	deviation := math.Abs(float64(targetDuration-optimal)) / float64(optimal)
	switch {
	case deviation <= 0.15:
		result.FitScore = 100
	case deviation >= 1.0:
		result.FitScore = 0
	default:
		result.FitScore = int(math.Round(100 * (1 - (deviation-0.15)/0.85)))
	}

	if result.FitScore < 70 {
		if targetDuration < optimal {
			result.Suggestion = fmt.Sprintf(
				"a %ds target is tight for %d beats (%d with dialogue); consider at least %ds or trimming beats",
				targetDuration, beatCount, dialogueBeats, result.MinViableDuration)
		} else {
			result.Suggestion = fmt.Sprintf(
				"a %ds target stretches %d beats (%d with dialogue) thin; consider at most %ds or adding beats",
				targetDuration, beatCount, dialogueBeats, result.MaxComfortDuration)
		}
	}

	return result
}
