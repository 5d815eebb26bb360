package movie

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"papaya/internal/model/movie"
)

// ScenePackRepository 场景元素包仓库接口
type ScenePackRepository interface {
	Create(ctx context.Context, pack *movie.ScenePack) error
	FindByID(ctx context.Context, id string) (*movie.ScenePack, error)
	FindByMovieID(ctx context.Context, movieID string) ([]*movie.ScenePack, error)
	FindCompletedByScene(ctx context.Context, movieID string, sceneIndex int) (*movie.ScenePack, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	UpdateStatus(ctx context.Context, id string, status movie.TaskStatus, errorMessage string) error
}

// ScenePackRepo 场景元素包仓库实现
type ScenePackRepo struct {
	coll *mongo.Collection
}

// NewScenePackRepo 创建场景元素包仓库
func NewScenePackRepo(db *mongo.Database) *ScenePackRepo {
	var p movie.ScenePack
	return &ScenePackRepo{coll: db.Collection(p.Collection())}
}

// Create 创建场景元素包
func (r *ScenePackRepo) Create(ctx context.Context, pack *movie.ScenePack) error {
	now := time.Now()
	pack.CreatedAt = now
	pack.UpdatedAt = now
	if pack.Status == "" {
		pack.Status = movie.TaskStatusPending
	}
	_, err := r.coll.InsertOne(ctx, pack)
	return err
}

// FindByID 根据ID查询场景元素包
func (r *ScenePackRepo) FindByID(ctx context.Context, id string) (*movie.ScenePack, error) {
	var pack movie.ScenePack
	if err := r.coll.FindOne(ctx, bson.M{"id": id, "deleted_at": nil}).Decode(&pack); err != nil {
		return nil, err
	}
	return &pack, nil
}

// FindByMovieID 查询影片的全部场景元素包（按场景下标排序）
func (r *ScenePackRepo) FindByMovieID(ctx context.Context, movieID string) ([]*movie.ScenePack, error) {
	filter := bson.M{"movie_id": movieID, "deleted_at": nil}
	opts := options.Find().SetSort(bson.M{"scene_index": 1})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var packs []*movie.ScenePack
	if err := cur.All(ctx, &packs); err != nil {
		return nil, err
	}
	return packs, nil
}

// FindCompletedByScene 查询场景的已完成元素包，不存在时返回 nil
// 只有已完成的包才能作为生成请求的元素使用
func (r *ScenePackRepo) FindCompletedByScene(ctx context.Context, movieID string, sceneIndex int) (*movie.ScenePack, error) {
	var pack movie.ScenePack
	filter := bson.M{
		"movie_id":    movieID,
		"scene_index": sceneIndex,
		"status":      movie.TaskStatusCompleted,
		"deleted_at":  nil,
	}
	err := r.coll.FindOne(ctx, filter).Decode(&pack)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pack, nil
}

// Update 更新场景元素包字段
func (r *ScenePackRepo) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "deleted_at": nil},
		bson.M{"$set": updates},
	)
	return err
}

// UpdateStatus 更新场景元素包状态
func (r *ScenePackRepo) UpdateStatus(ctx context.Context, id string, status movie.TaskStatus, errorMessage string) error {
	updates := map[string]interface{}{"status": status}
	if errorMessage != "" {
		updates["error_message"] = errorMessage
	}
	return r.Update(ctx, id, updates)
}
