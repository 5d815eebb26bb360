package movie

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ScenePack 场景元素包
// 一组绑定到命名元素（element_<slug>）的参考图，用于跨镜头锁定场景的视觉环境
// 与角色参考图同理，生成服务商要求 2-4 张可用图片才能组成元素
type ScenePack struct {
	ID      string `bson:"id" json:"id"`             // 元素包ID（UUID）
	MovieID string `bson:"movie_id" json:"movie_id"` // 关联的影片ID

	SceneIndex  int      `bson:"scene_index" json:"scene_index"` // 场景下标
	Name        string   `bson:"name" json:"name"`               // 元素名（element_<slug>）
	Description string   `bson:"description" json:"description"` // 环境描述
	Images      []string `bson:"images,omitempty" json:"images,omitempty"` // 参考图URL列表

	Status       TaskStatus `bson:"status" json:"status"` // 状态：pending, completed, failed
	ErrorMessage string     `bson:"error_message,omitempty" json:"error_message,omitempty"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at" json:"updated_at"`
	DeletedAt    *time.Time `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
}

// Collection 返回集合名称
func (p *ScenePack) Collection() string { return "scene_packs" }

// EnsureIndexes 创建和维护索引
func (p *ScenePack) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(p.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "movie_id", Value: 1}, {Key: "scene_index", Value: 1}},
			Options: options.Index().SetName("idx_movie_scene"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
