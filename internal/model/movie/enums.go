package movie

// TaskStatus 任务状态（用于 ScenePack 等）
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"   // 待处理
	TaskStatusCompleted TaskStatus = "completed" // 已完成
	TaskStatusFailed    TaskStatus = "failed"    // 失败
)

// String 返回状态的字符串表示
func (s TaskStatus) String() string {
	return string(s)
}

// ShotStatus 镜头状态
// planned 为初始（未排队）状态；生成过程中用户把状态重置回 planned 即表示取消
type ShotStatus string

const (
	ShotStatusPlanned    ShotStatus = "planned"    // 已规划（初始状态）
	ShotStatusGenerating ShotStatus = "generating" // 生成中
	ShotStatusCompleted  ShotStatus = "completed"  // 已完成
	ShotStatusFailed     ShotStatus = "failed"     // 失败
)

// String 返回状态的字符串表示
func (s ShotStatus) String() string {
	return string(s)
}

// MovieStatus 影片粗粒度状态（流水线阶段）
type MovieStatus string

const (
	MovieStatusDrafting   MovieStatus = "drafting"   // 剧本/规划阶段
	MovieStatusGenerating MovieStatus = "generating" // 镜头生成中
	MovieStatusAssembling MovieStatus = "assembling" // 全部镜头完成，待剪辑合成
	MovieStatusCompleted  MovieStatus = "completed"  // 成片完成
)

// String 返回状态的字符串表示
func (s MovieStatus) String() string {
	return string(s)
}

// Quality 生成质量档位
type Quality string

const (
	QualityStandard Quality = "std" // 标准档
	QualityPro      Quality = "pro" // 高质量档
)

// String 返回档位的字符串表示
func (q Quality) String() string {
	return string(q)
}
