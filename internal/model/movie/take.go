package movie

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Take 一次生成尝试的产物
// 一个镜头可以有多个 Take，其中至多一个标记为 hero（用于最终成片）
// 用户取消后到达的结果仍会落库（已经付费、已经渲染完成），但不标记 hero
type Take struct {
	ID      string `bson:"id" json:"id"`             // Take ID（UUID）
	ShotID  string `bson:"shot_id" json:"shot_id"`   // 关联的镜头ID
	MovieID string `bson:"movie_id" json:"movie_id"` // 关联的影片ID（冗余字段，方便查询）

	VideoURL       string `bson:"video_url" json:"video_url"`               // 生成视频URL
	IsHero         bool   `bson:"is_hero" json:"is_hero"`                   // 是否为 hero take
	ProviderTaskID string `bson:"provider_task_id" json:"provider_task_id"` // 生成服务商任务ID

	GenerationParams *GenerationParams `bson:"generation_params,omitempty" json:"generation_params,omitempty"` // 生成参数快照

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
}

// GenerationParams 生成参数快照
// 记录这次生成实际发出的请求内容，便于追溯和重放
type GenerationParams struct {
	Prompt          string   `bson:"prompt" json:"prompt"`
	NegativePrompt  string   `bson:"negative_prompt,omitempty" json:"negative_prompt,omitempty"`
	DurationSeconds int      `bson:"duration_seconds" json:"duration_seconds"`
	AspectRatio     string   `bson:"aspect_ratio" json:"aspect_ratio"`
	Quality         string   `bson:"quality" json:"quality"` // std / pro
	GenerateAudio   bool     `bson:"generate_audio" json:"generate_audio"`
	StartImageURL   string   `bson:"start_image_url,omitempty" json:"start_image_url,omitempty"`
	ElementNames    []string `bson:"element_names,omitempty" json:"element_names,omitempty"` // 绑定的元素名
}

// Collection 返回集合名称
func (t *Take) Collection() string { return "takes" }

// EnsureIndexes 创建和维护索引
func (t *Take) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(t.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "shot_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_shot_created"),
		},
		{
			Keys:    bson.D{{Key: "movie_id", Value: 1}},
			Options: options.Index().SetName("idx_movie_id"),
		},
		{
			Keys:    bson.D{{Key: "shot_id", Value: 1}, {Key: "is_hero", Value: 1}},
			Options: options.Index().SetName("idx_shot_hero"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
