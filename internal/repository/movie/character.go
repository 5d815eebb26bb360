package movie

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"papaya/internal/model/movie"
)

// CharacterRepository 角色仓库接口
type CharacterRepository interface {
	Create(ctx context.Context, character *movie.Character) error
	FindByID(ctx context.Context, id string) (*movie.Character, error)
	FindByMovieID(ctx context.Context, movieID string) ([]*movie.Character, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	BackfillGeneratedReferences(ctx context.Context, movieID string, urls map[string]string) error
	Delete(ctx context.Context, id string) error
}

// CharacterRepo 角色仓库实现
type CharacterRepo struct {
	coll *mongo.Collection
}

// NewCharacterRepo 创建角色仓库
func NewCharacterRepo(db *mongo.Database) *CharacterRepo {
	var c movie.Character
	return &CharacterRepo{coll: db.Collection(c.Collection())}
}

// Create 创建角色
func (r *CharacterRepo) Create(ctx context.Context, character *movie.Character) error {
	now := time.Now()
	character.CreatedAt = now
	character.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, character)
	return err
}

// FindByID 根据ID查询角色
func (r *CharacterRepo) FindByID(ctx context.Context, id string) (*movie.Character, error) {
	var character movie.Character
	if err := r.coll.FindOne(ctx, bson.M{"id": id, "deleted_at": nil}).Decode(&character); err != nil {
		return nil, err
	}
	return &character, nil
}

// FindByMovieID 查询影片的全部角色（按创建时间排序）
func (r *CharacterRepo) FindByMovieID(ctx context.Context, movieID string) ([]*movie.Character, error) {
	filter := bson.M{"movie_id": movieID, "deleted_at": nil}
	opts := options.Find().SetSort(bson.M{"created_at": 1})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var characters []*movie.Character
	if err := cur.All(ctx, &characters); err != nil {
		return nil, err
	}
	return characters, nil
}

// Update 更新角色字段
func (r *CharacterRepo) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "deleted_at": nil},
		bson.M{"$set": updates},
	)
	return err
}

// BackfillGeneratedReferences 批量回填生成参考图
// 生成编排从成片里为出镜角色抽到首个定妆帧后统一回填；
// 只填还没有参考图的角色，不覆盖已有值
func (r *CharacterRepo) BackfillGeneratedReferences(ctx context.Context, movieID string, urls map[string]string) error {
	if len(urls) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(urls))
	now := time.Now()
	for characterID, url := range urls {
		filter := bson.M{
			"id":       characterID,
			"movie_id": movieID,
			"$or": []bson.M{
				{"generated_reference_url": bson.M{"$exists": false}},
				{"generated_reference_url": ""},
			},
		}
		update := bson.M{"$set": bson.M{"generated_reference_url": url, "updated_at": now}}
		models = append(models, mongo.NewUpdateOneModel().SetFilter(filter).SetUpdate(update))
	}

	_, err := r.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	return err
}

// Delete 软删除角色
func (r *CharacterRepo) Delete(ctx context.Context, id string) error {
	now := time.Now()
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "deleted_at": nil},
		bson.M{"$set": bson.M{"deleted_at": now, "updated_at": now}},
	)
	return err
}
