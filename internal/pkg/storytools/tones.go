package storytools

import (
	"strings"
)

// toneCameraEntry 情绪基调到运镜选择的映射条目
type toneCameraEntry struct {
	Category  MovementCategory // 候选兜底类别
	Preferred []string         // 偏好运镜ID（有序）
}

// defaultToneKey 未识别情绪的兜底条目
const defaultToneKey = "dramatic"

// toneCameraTable 情绪基调 → 运镜映射表
// EmotionalTone 是开放词表，表中没有的情绪统一落到 dramatic 条目
var toneCameraTable = map[string]toneCameraEntry{
	"dramatic":    {Category: CategoryCharacter, Preferred: []string{"dolly_push_in", OrbitMovementID, "static_close_up"}},
	"tense":       {Category: CategoryAction, Preferred: []string{"handheld_follow", "crash_zoom", "static_close_up"}},
	"nervous":     {Category: CategoryCharacter, Preferred: []string{"handheld_follow", "static_close_up", "dolly_push_in"}},
	"romantic":    {Category: CategoryCharacter, Preferred: []string{OrbitMovementID, "dolly_push_in", "rack_focus"}},
	"melancholic": {Category: CategoryCharacter, Preferred: []string{"dolly_pull_back", "static_medium", "rack_focus"}},
	"joyful":      {Category: CategoryAction, Preferred: []string{"tracking_lateral", "handheld_follow", "crane_up_away"}},
	"mysterious":  {Category: CategoryEstablishing, Preferred: []string{"pan_reveal", "crane_down", "rack_focus"}},
	"action":      {Category: CategoryAction, Preferred: []string{"handheld_follow", "whip_pan", "tracking_lateral", "crash_zoom"}},
	"peaceful":    {Category: CategoryEstablishing, Preferred: []string{"slow_push_establish", "aerial_establish", "static_medium"}},
	"hopeful":     {Category: CategoryCharacter, Preferred: []string{"crane_up_away", "dolly_push_in", "tracking_lateral"}},
}

// toneDurationBias 情绪基调对镜头时长的固定修正（秒，范围 -2..+2）
// 规划器和时长分析器共用同一张表；未识别情绪修正为 0
var toneDurationBias = map[string]int{
	"dramatic":    1,
	"tense":       -1,
	"nervous":     -1,
	"romantic":    1,
	"melancholic": 2,
	"joyful":      -1,
	"mysterious":  1,
	"action":      -2,
	"peaceful":    2,
	"hopeful":     0,
}

// toneCamera 查情绪基调的运镜条目（含 dramatic 兜底）
func toneCamera(tone string) toneCameraEntry {
	if entry, ok := toneCameraTable[strings.ToLower(strings.TrimSpace(tone))]; ok {
		return entry
	}
	return toneCameraTable[defaultToneKey]
}

// toneBias 查情绪基调的时长修正（未识别为 0）
func toneBias(tone string) int {
	return toneDurationBias[strings.ToLower(strings.TrimSpace(tone))]
}
