package movie

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Shot 镜头实体
// 说明：由 Shot Planner 一次性规划产出，每个情绪节拍对应一个镜头
// Order 为全局顺序（0 开始、连续无空洞）；SceneIndex 指回剧本分析中的场景下标
// 生成编排阶段可能重新拼装 prompt（不会重新规划镜头本身）
type Shot struct {
	ID      string `bson:"id" json:"id"`             // 镜头ID（UUID）
	MovieID string `bson:"movie_id" json:"movie_id"` // 关联的影片ID

	SceneIndex int `bson:"scene_index" json:"scene_index"` // 场景下标（0 开始）
	Order      int `bson:"order" json:"order"`             // 全局顺序（0 开始，连续）

	ShotType        string        `bson:"shot_type" json:"shot_type"`               // 景别：wide, medium, close-up...
	CameraMovement  string        `bson:"camera_movement" json:"camera_movement"`   // 运镜ID（对应 CameraMovement 目录）
	Subject         string        `bson:"subject" json:"subject"`                   // 主体描述
	Action          string        `bson:"action" json:"action"`                     // 动作描述
	Environment     string        `bson:"environment" json:"environment"`           // 环境描述
	Lighting        string        `bson:"lighting" json:"lighting"`                 // 光线描述（同场景内所有镜头一致）
	Dialogue        *ShotDialogue `bson:"dialogue,omitempty" json:"dialogue"`       // 对白绑定（无对白时为 null）
	DurationSeconds int           `bson:"duration_seconds" json:"duration_seconds"` // 时长（3-10 秒，orbit_360 可到 12 秒）

	GeneratedPrompt string `bson:"generated_prompt,omitempty" json:"generated_prompt,omitempty"` // 已拼装的生成 prompt
	NegativePrompt  string `bson:"negative_prompt,omitempty" json:"negative_prompt,omitempty"`   // 负面 prompt

	StartFrameURL string `bson:"start_frame_url,omitempty" json:"start_frame_url,omitempty"` // 连续性起始帧URL（缓存）
	EndFrameURL   string `bson:"end_frame_url,omitempty" json:"end_frame_url,omitempty"`     // 尾帧URL（缓存）

	Status       ShotStatus `bson:"status" json:"status"` // 状态：planned, generating, completed, failed
	ErrorMessage string     `bson:"error_message,omitempty" json:"error_message,omitempty"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at" json:"updated_at"`
	DeletedAt    *time.Time `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
}

// ShotDialogue 镜头的对白绑定
// CharacterID 仅在角色表中找不到同名角色时为空串，不存在 null 与缺失的二义性
type ShotDialogue struct {
	CharacterID   string `bson:"character_id" json:"character_id"`     // 解析到的角色ID（可为空串）
	CharacterName string `bson:"character_name" json:"character_name"` // 说话角色名
	Line          string `bson:"line" json:"line"`                     // 台词
	Emotion       string `bson:"emotion" json:"emotion"`               // 情绪
}

// Collection 返回集合名称
func (s *Shot) Collection() string { return "shots" }

// EnsureIndexes 创建和维护索引
func (s *Shot) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(s.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "movie_id", Value: 1}, {Key: "order", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_movie_order_unique"),
		},
		{
			Keys:    bson.D{{Key: "movie_id", Value: 1}, {Key: "scene_index", Value: 1}},
			Options: options.Index().SetName("idx_movie_scene"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_status"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
