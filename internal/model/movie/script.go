package movie

// ScriptAnalysis 剧本分析结果
// 说明：由外部 LLM 协作方（internal/ai）产出，核心流程只读取不修改
type ScriptAnalysis struct {
	Synopsis          string  `bson:"synopsis" json:"synopsis"`                     // 故事梗概
	Genre             string  `bson:"genre" json:"genre"`                           // 类型（noir, thriller, romance...）
	SuggestedDuration int     `bson:"suggested_duration" json:"suggested_duration"` // 建议总时长（秒）
	Scenes            []Scene `bson:"scenes" json:"scenes"`                         // 场景列表（有序）
}

// Scene 场景
type Scene struct {
	Title     string `bson:"title" json:"title"`           // 场景标题
	Location  string `bson:"location" json:"location"`     // 地点描述
	TimeOfDay string `bson:"time_of_day" json:"time_of_day"` // 时间段：day, night, dawn, interior...
	Beats     []Beat `bson:"beats" json:"beats"`           // 情绪节拍列表（有序）
}

// Beat 情绪节拍（场景内的一个叙事微事件）
// EmotionalTone 为开放词表，未识别的情绪必须优雅降级，不能报错
type Beat struct {
	Description   string         `bson:"description" json:"description"`       // 节拍描述（自由文本）
	EmotionalTone string         `bson:"emotional_tone" json:"emotional_tone"` // 情绪基调
	Dialogue      []DialogueLine `bson:"dialogue,omitempty" json:"dialogue,omitempty"` // 对白（可选）
}

// DialogueLine 对白台词
type DialogueLine struct {
	Character string `bson:"character" json:"character"` // 说话角色名
	Line      string `bson:"line" json:"line"`           // 台词内容
	Emotion   string `bson:"emotion" json:"emotion"`     // 情绪（nervous, angry...）
}

// TotalBeats 统计所有场景的节拍总数
func (a *ScriptAnalysis) TotalBeats() int {
	total := 0
	for _, scene := range a.Scenes {
		total += len(scene.Beats)
	}
	return total
}
