package movie

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Character 角色实体（影片级别）
// ReferenceImages 为用户上传的参考图；GeneratedReferenceURL 为自举参考图，
// 即从已生成视频的尾帧中回填的角色形象（见生成编排的 bookkeeping 阶段）
type Character struct {
	ID      string `bson:"id" json:"id"`             // 角色ID（UUID）
	MovieID string `bson:"movie_id" json:"movie_id"` // 关联的影片ID

	Name              string   `bson:"name" json:"name"`                             // 角色姓名
	Role              string   `bson:"role,omitempty" json:"role,omitempty"`         // 角色定位：protagonist, antagonist, supporting...
	VisualDescription string   `bson:"visual_description" json:"visual_description"` // 外观描述（用于 prompt 内联）
	ReferenceImages   []string `bson:"reference_images,omitempty" json:"reference_images,omitempty"` // 参考图URL列表（0-N）

	GeneratedReferenceURL string `bson:"generated_reference_url,omitempty" json:"generated_reference_url,omitempty"` // 自举参考图URL
	VoiceProfile          string `bson:"voice_profile,omitempty" json:"voice_profile,omitempty"`                     // 音色描述（可选）

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
}

// Collection 返回集合名称
func (c *Character) Collection() string { return "characters" }

// EnsureIndexes 创建和维护索引
func (c *Character) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(c.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "movie_id", Value: 1}},
			Options: options.Index().SetName("idx_movie_id"),
		},
		{
			Keys:    bson.D{{Key: "movie_id", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_movie_name_unique"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
