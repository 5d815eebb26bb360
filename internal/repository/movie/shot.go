package movie

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"papaya/internal/model/movie"
)

// ShotRepository 镜头仓库接口
type ShotRepository interface {
	Create(ctx context.Context, shot *movie.Shot) error
	CreateMany(ctx context.Context, shots []*movie.Shot) error
	FindByID(ctx context.Context, id string) (*movie.Shot, error)
	FindByMovieID(ctx context.Context, movieID string) ([]*movie.Shot, error)
	FindByMovieIDAndOrder(ctx context.Context, movieID string, order int) (*movie.Shot, error)
	FindBySceneIndex(ctx context.Context, movieID string, sceneIndex int) ([]*movie.Shot, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	UpdateStatus(ctx context.Context, id string, status movie.ShotStatus, errorMessage string) error
	ClearStartFrame(ctx context.Context, id string) error
	DeleteByMovieID(ctx context.Context, movieID string) error
}

// ShotRepo 镜头仓库实现
type ShotRepo struct {
	coll *mongo.Collection
}

// NewShotRepo 创建镜头仓库
func NewShotRepo(db *mongo.Database) *ShotRepo {
	var s movie.Shot
	return &ShotRepo{coll: db.Collection(s.Collection())}
}

// Create 创建镜头
func (r *ShotRepo) Create(ctx context.Context, shot *movie.Shot) error {
	now := time.Now()
	shot.CreatedAt = now
	shot.UpdatedAt = now
	if shot.Status == "" {
		shot.Status = movie.ShotStatusPlanned
	}
	_, err := r.coll.InsertOne(ctx, shot)
	return err
}

// CreateMany 批量创建镜头（规划器一次产出整部影片的镜头）
func (r *ShotRepo) CreateMany(ctx context.Context, shots []*movie.Shot) error {
	if len(shots) == 0 {
		return nil
	}
	now := time.Now()
	docs := make([]interface{}, len(shots))
	for i, shot := range shots {
		shot.CreatedAt = now
		shot.UpdatedAt = now
		if shot.Status == "" {
			shot.Status = movie.ShotStatusPlanned
		}
		docs[i] = shot
	}
	_, err := r.coll.InsertMany(ctx, docs)
	return err
}

// FindByID 根据ID查询镜头
func (r *ShotRepo) FindByID(ctx context.Context, id string) (*movie.Shot, error) {
	var shot movie.Shot
	if err := r.coll.FindOne(ctx, bson.M{"id": id, "deleted_at": nil}).Decode(&shot); err != nil {
		return nil, err
	}
	return &shot, nil
}

// FindByMovieID 查询影片的全部镜头（按全局顺序排序）
func (r *ShotRepo) FindByMovieID(ctx context.Context, movieID string) ([]*movie.Shot, error) {
	filter := bson.M{"movie_id": movieID, "deleted_at": nil}
	opts := options.Find().SetSort(bson.M{"order": 1})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var shots []*movie.Shot
	if err := cur.All(ctx, &shots); err != nil {
		return nil, err
	}
	return shots, nil
}

// FindByMovieIDAndOrder 按全局顺序查询单个镜头
// 找不到时返回 mongo.ErrNoDocuments（最后一个镜头没有后继是正常情况，调用方自行判断）
func (r *ShotRepo) FindByMovieIDAndOrder(ctx context.Context, movieID string, order int) (*movie.Shot, error) {
	var shot movie.Shot
	filter := bson.M{"movie_id": movieID, "order": order, "deleted_at": nil}
	if err := r.coll.FindOne(ctx, filter).Decode(&shot); err != nil {
		return nil, err
	}
	return &shot, nil
}

// FindBySceneIndex 查询影片某个场景的全部镜头（按全局顺序排序）
func (r *ShotRepo) FindBySceneIndex(ctx context.Context, movieID string, sceneIndex int) ([]*movie.Shot, error) {
	filter := bson.M{"movie_id": movieID, "scene_index": sceneIndex, "deleted_at": nil}
	opts := options.Find().SetSort(bson.M{"order": 1})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var shots []*movie.Shot
	if err := cur.All(ctx, &shots); err != nil {
		return nil, err
	}
	return shots, nil
}

// Update 更新镜头字段
func (r *ShotRepo) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "deleted_at": nil},
		bson.M{"$set": updates},
	)
	return err
}

// UpdateStatus 更新镜头状态
func (r *ShotRepo) UpdateStatus(ctx context.Context, id string, status movie.ShotStatus, errorMessage string) error {
	updates := map[string]interface{}{"status": status}
	if errorMessage != "" {
		updates["error_message"] = errorMessage
	}
	return r.Update(ctx, id, updates)
}

// ClearStartFrame 失效镜头的续接首帧缓存
// 只有紧邻的下一个镜头需要失效，更远的镜头继续沿用场景参考帧
func (r *ShotRepo) ClearStartFrame(ctx context.Context, id string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "deleted_at": nil},
		bson.M{
			"$unset": bson.M{"start_frame_url": ""},
			"$set":   bson.M{"updated_at": time.Now()},
		},
	)
	return err
}

// DeleteByMovieID 删除影片的全部镜头（重新规划前调用）
// 物理删除：镜头上有 movie_id+order 的唯一索引，软删除会挡住新规划的写入
func (r *ShotRepo) DeleteByMovieID(ctx context.Context, movieID string) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"movie_id": movieID})
	return err
}
