package mongo

import (
	"Pibno/internal/backend"
	"Pibno/internal/model"
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type postRepoImpl struct {
	col *mongo.Collection
}

func NewPostRepo(db *mongo.Database) backend.PostStore {
	return &postRepoImpl{
		col: db.Collection(PostCollection),
	}
}

var newestFirst = bson.D{
	{Key: "created_at", Value: -1},
	{Key: "_id", Value: -1},
}

func (s *postRepoImpl) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Post, error) {
	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "find posts")
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	posts := make([]*model.Post, 0)
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, pkgerrors.Wrap(err, "decode posts")
	}
	return posts, nil
}

// FindPage 取游标之后 (不含) 的最新 limit 条，顺序与 newestFirst 一致
func (s *postRepoImpl) FindPage(ctx context.Context, limit int, after *model.PostCursor) ([]*model.Post, error) {
	opts := options.Find().SetSort(newestFirst).SetLimit(int64(limit))
	return s.find(ctx, pageFilter(after), opts)
}

func pageFilter(after *model.PostCursor) bson.M {
	if after == nil {
		return bson.M{}
	}
	if after.ID == "" {
		return bson.M{"created_at": bson.M{"$lt": after.CreatedAt}}
	}
	return bson.M{"$or": bson.A{
		bson.M{"created_at": bson.M{"$lt": after.CreatedAt}},
		bson.M{"created_at": after.CreatedAt, "_id": bson.M{"$lt": after.ID}},
	}}
}

func (s *postRepoImpl) FindByID(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, backend.ErrNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "find post")
	}
	return &post, nil
}

func (s *postRepoImpl) FindByAuthor(ctx context.Context, username string, limit int) ([]*model.Post, error) {
	opts := options.Find().SetSort(newestFirst).SetLimit(int64(limit))
	return s.find(ctx, bson.M{"author_username": username}, opts)
}

func (s *postRepoImpl) FindAll(ctx context.Context) ([]*model.Post, error) {
	return s.find(ctx, bson.M{}, options.Find().SetSort(newestFirst))
}

func (s *postRepoImpl) Insert(ctx context.Context, post *model.Post) error {
	if post.ID == "" {
		post.ID = primitive.NewObjectID().Hex()
	}
	_, err := s.col.InsertOne(ctx, post)
	if mongo.IsDuplicateKeyError(err) {
		return backend.ErrDuplicate
	}
	return pkgerrors.Wrap(err, "insert post")
}

func (s *postRepoImpl) Update(ctx context.Context, id string, patch *model.PostPatch, updatedAt time.Time) error {
	set, err := toSetDoc(patch)
	if err != nil {
		return err
	}
	set["updated_at"] = updatedAt

	result, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return pkgerrors.Wrap(err, "update post")
	}
	if result.MatchedCount == 0 {
		return backend.ErrNotFound
	}
	return nil
}

func (s *postRepoImpl) Delete(ctx context.Context, id string) error {
	result, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return pkgerrors.Wrap(err, "delete post")
	}
	if result.DeletedCount == 0 {
		return backend.ErrNotFound
	}
	return nil
}

// toSetDoc 把 patch 结构体转为 $set 文档，nil 字段由 omitempty 省略
func toSetDoc(patch any) (bson.M, error) {
	raw, err := bson.Marshal(patch)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "marshal patch")
	}
	set := bson.M{}
	if err = bson.Unmarshal(raw, &set); err != nil {
		return nil, pkgerrors.Wrap(err, "unmarshal patch")
	}
	return set, nil
}
