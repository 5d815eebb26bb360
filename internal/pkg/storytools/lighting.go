package storytools

import (
	"fmt"
	"strings"
)

// fallbackLighting 无类型预设时按时间段使用的固定光线短语
// 未识别的时间段统一降级为 "natural lighting"
var fallbackLighting = map[string]string{
	"day":      "bright natural daylight, soft shadows",
	"night":    "moonlight and practical light sources, deep shadows",
	"dawn":     "golden hour glow, long soft shadows",
	"interior": "warm tungsten practicals, pools of light",
}

// defaultLighting 未识别时间段的降级光线短语
const defaultLighting = "natural lighting"

// PickLighting 为场景确定性地选取光线描述
// 约束：同一场景内的所有镜头必须拿到完全相同的光线文本（光线方向不能在场景内跳变），
// 不同场景之间又要有变化，且不依赖任何网络调用。
// 实现：用 "scene-{index}-{timeOfDay}" 的哈希作为种子，对预设词表做 Fisher-Yates 洗牌，
// 取前 2 或 3 个（个数由种子奇偶决定）。preset 为 nil 时退回固定短语表。
func PickLighting(preset *GenrePreset, timeOfDay string, sceneIndex int) string {
	if preset == nil || len(preset.LightingKeywords) == 0 {
		if phrase, ok := fallbackLighting[strings.ToLower(timeOfDay)]; ok {
			return phrase
		}
		return defaultLighting
	}

	seed := SimpleHash(fmt.Sprintf("scene-%d-%s", sceneIndex, timeOfDay))
	rng := NewSeededRand(seed)

	keywords := make([]string, len(preset.LightingKeywords))
	copy(keywords, preset.LightingKeywords)

	// Fisher-Yates 洗牌
	for i := len(keywords) - 1; i > 0; i-- {
		j := int(rng.Next() * float64(i+1))
		keywords[i], keywords[j] = keywords[j], keywords[i]
	}

	count := 2
	if seed%2 == 1 {
		count = 3
	}
	if count > len(keywords) {
		count = len(keywords)
	}

	return strings.Join(keywords[:count], ", ")
}
