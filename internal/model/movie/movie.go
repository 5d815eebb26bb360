package movie

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Movie 影片实体
// 说明：一部影片对应一个剧本分析结果和一组镜头
// SceneReferenceFrames 缓存每个场景的参考帧（场景索引 → 帧URL），
// 首个写入者生效，后续写入不覆盖（幂等缓存，见 repository.SetSceneReferenceFrame）
type Movie struct {
	ID     string `bson:"id" json:"id"`           // 影片ID（UUID）
	UserID string `bson:"user_id" json:"user_id"` // 用户ID

	Title          string `bson:"title" json:"title"`                     // 影片标题
	Genre          string `bson:"genre" json:"genre"`                     // 类型（对应 GenrePreset ID）
	AspectRatio    string `bson:"aspect_ratio" json:"aspect_ratio"`       // 画幅比例，如 "16:9"
	TargetDuration int    `bson:"target_duration" json:"target_duration"` // 目标总时长（秒，0 表示不限制）

	ScriptAnalysis *ScriptAnalysis `bson:"script_analysis,omitempty" json:"script_analysis,omitempty"` // 剧本分析结果
	StyleBible     *StyleBible     `bson:"style_bible,omitempty" json:"style_bible,omitempty"`         // 风格圣经

	// SceneReferenceFrames 场景参考帧缓存（key 为场景索引的字符串形式，Mongo 要求字符串 key）
	SceneReferenceFrames map[string]string `bson:"scene_reference_frames,omitempty" json:"scene_reference_frames,omitempty"`

	Status    MovieStatus `bson:"status" json:"status"` // 状态：drafting, generating, assembling, completed
	CreatedAt time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time   `bson:"updated_at" json:"updated_at"`
	DeletedAt *time.Time  `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
}

// StyleBible 风格圣经
// 贯穿整部影片所有 prompt 的风格指令集
type StyleBible struct {
	FilmStock      string   `bson:"film_stock" json:"film_stock"`           // 胶片风格，如 "35mm Kodak Vision3"
	ColorPalette   string   `bson:"color_palette" json:"color_palette"`     // 色彩基调
	Textures       []string `bson:"textures,omitempty" json:"textures,omitempty"` // 质感关键词
	NegativePrompt string   `bson:"negative_prompt" json:"negative_prompt"` // 负面提示词
	StyleString    string   `bson:"style_string" json:"style_string"`       // 预拼装的风格串，追加到每条 prompt 末尾
}

// Collection 返回集合名称
func (m *Movie) Collection() string { return "movies" }

// EnsureIndexes 创建和维护索引
func (m *Movie) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(m.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_user_created"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_status"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
