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

// TakeRepository 生成产物仓库接口
type TakeRepository interface {
	Create(ctx context.Context, take *movie.Take) error
	FindByID(ctx context.Context, id string) (*movie.Take, error)
	FindByShotID(ctx context.Context, shotID string) ([]*movie.Take, error)
	FindHeroByShotID(ctx context.Context, shotID string) (*movie.Take, error)
	MarkHero(ctx context.Context, shotID, takeID string) error
}

// TakeRepo 生成产物仓库实现
type TakeRepo struct {
	coll *mongo.Collection
}

// NewTakeRepo 创建生成产物仓库
func NewTakeRepo(db *mongo.Database) *TakeRepo {
	var t movie.Take
	return &TakeRepo{coll: db.Collection(t.Collection())}
}

// Create 创建 Take
func (r *TakeRepo) Create(ctx context.Context, take *movie.Take) error {
	take.CreatedAt = time.Now()
	_, err := r.coll.InsertOne(ctx, take)
	return err
}

// FindByID 根据ID查询 Take
func (r *TakeRepo) FindByID(ctx context.Context, id string) (*movie.Take, error) {
	var take movie.Take
	if err := r.coll.FindOne(ctx, bson.M{"id": id, "deleted_at": nil}).Decode(&take); err != nil {
		return nil, err
	}
	return &take, nil
}

// FindByShotID 查询镜头的全部 Take（按创建时间倒序）
func (r *TakeRepo) FindByShotID(ctx context.Context, shotID string) ([]*movie.Take, error) {
	filter := bson.M{"shot_id": shotID, "deleted_at": nil}
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var takes []*movie.Take
	if err := cur.All(ctx, &takes); err != nil {
		return nil, err
	}
	return takes, nil
}

// FindHeroByShotID 查询镜头的 hero take，不存在时返回 nil
func (r *TakeRepo) FindHeroByShotID(ctx context.Context, shotID string) (*movie.Take, error) {
	var take movie.Take
	filter := bson.M{"shot_id": shotID, "is_hero": true, "deleted_at": nil}
	err := r.coll.FindOne(ctx, filter).Decode(&take)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &take, nil
}

// MarkHero 把指定 Take 标记为镜头的 hero，同时摘掉同镜头的旧 hero
func (r *TakeRepo) MarkHero(ctx context.Context, shotID, takeID string) error {
	if _, err := r.coll.UpdateMany(ctx,
		bson.M{"shot_id": shotID, "is_hero": true},
		bson.M{"$set": bson.M{"is_hero": false}},
	); err != nil {
		return err
	}
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"id": takeID},
		bson.M{"$set": bson.M{"is_hero": true}},
	)
	return err
}
