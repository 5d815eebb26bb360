package movie

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"papaya/internal/model/movie"
)

// MovieRepository 影片仓库接口
type MovieRepository interface {
	Create(ctx context.Context, m *movie.Movie) error
	FindByID(ctx context.Context, id string) (*movie.Movie, error)
	FindByUserID(ctx context.Context, userID string, page, pageSize int) ([]*movie.Movie, int64, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	UpdateStatus(ctx context.Context, id string, status movie.MovieStatus) error
	SetSceneReferenceFrame(ctx context.Context, id string, sceneIndex int, frameURL string) (string, error)
	Delete(ctx context.Context, id string) error
}

// MovieRepo 影片仓库实现
type MovieRepo struct {
	coll *mongo.Collection
}

// NewMovieRepo 创建影片仓库
func NewMovieRepo(db *mongo.Database) *MovieRepo {
	var m movie.Movie
	return &MovieRepo{coll: db.Collection(m.Collection())}
}

// Create 创建影片
func (r *MovieRepo) Create(ctx context.Context, m *movie.Movie) error {
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	if m.Status == "" {
		m.Status = movie.MovieStatusDrafting
	}
	_, err := r.coll.InsertOne(ctx, m)
	return err
}

// FindByID 根据ID查询影片
func (r *MovieRepo) FindByID(ctx context.Context, id string) (*movie.Movie, error) {
	var m movie.Movie
	if err := r.coll.FindOne(ctx, bson.M{"id": id, "deleted_at": nil}).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// FindByUserID 分页查询用户的影片（按创建时间倒序）
func (r *MovieRepo) FindByUserID(ctx context.Context, userID string, page, pageSize int) ([]*movie.Movie, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	filter := bson.M{"user_id": userID, "deleted_at": nil}
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var movies []*movie.Movie
	if err := cur.All(ctx, &movies); err != nil {
		return nil, 0, err
	}
	return movies, total, nil
}

// Update 更新影片字段
func (r *MovieRepo) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "deleted_at": nil},
		bson.M{"$set": updates},
	)
	return err
}

// UpdateStatus 更新影片状态
func (r *MovieRepo) UpdateStatus(ctx context.Context, id string, status movie.MovieStatus) error {
	return r.Update(ctx, id, map[string]interface{}{"status": status})
}

// SetSceneReferenceFrame 写入场景参考帧（首个写入者生效）
// 并发的两次生成可能同时为同一场景抽到不同的参考帧，事务里先读后写保证只有第一帧落库，
// 返回值永远是生效的那一帧，调用方用返回值而不是自己传入的 URL
func (r *MovieRepo) SetSceneReferenceFrame(ctx context.Context, id string, sceneIndex int, frameURL string) (string, error) {
	key := fmt.Sprintf("%d", sceneIndex)
	field := "scene_reference_frames." + key

	session, err := r.coll.Database().Client().StartSession()
	if err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	winner, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var m movie.Movie
		if err := r.coll.FindOne(sc, bson.M{"id": id, "deleted_at": nil}).Decode(&m); err != nil {
			return nil, err
		}
		if existing, ok := m.SceneReferenceFrames[key]; ok && existing != "" {
			return existing, nil
		}
		_, err := r.coll.UpdateOne(sc,
			bson.M{"id": id},
			bson.M{"$set": bson.M{field: frameURL, "updated_at": time.Now()}},
		)
		if err != nil {
			return nil, err
		}
		return frameURL, nil
	})
	if err != nil {
		return "", err
	}
	return winner.(string), nil
}

// Delete 软删除影片
func (r *MovieRepo) Delete(ctx context.Context, id string) error {
	now := time.Now()
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "deleted_at": nil},
		bson.M{"$set": bson.M{"deleted_at": now, "updated_at": now}},
	)
	return err
}
