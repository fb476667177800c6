package mongo

import (
	"Pibno/internal/backend"
	"Pibno/internal/model"
	"context"
	"errors"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userRepoImpl struct {
	col *mongo.Collection
}

func NewUserRepo(db *mongo.Database) backend.UserStore {
	return &userRepoImpl{
		col: db.Collection(UserCollection),
	}
}

func (s *userRepoImpl) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var user model.User
	err := s.col.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, backend.ErrNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "find user")
	}
	return &user, nil
}

func (s *userRepoImpl) findMany(ctx context.Context, filter bson.M) ([]*model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "find users")
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	users := make([]*model.User, 0)
	if err = cursor.All(ctx, &users); err != nil {
		return nil, pkgerrors.Wrap(err, "decode users")
	}
	return users, nil
}

func (s *userRepoImpl) FindByID(ctx context.Context, id string) (*model.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *userRepoImpl) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *userRepoImpl) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *userRepoImpl) FindAll(ctx context.Context) ([]*model.User, error) {
	return s.findMany(ctx, bson.M{})
}

func (s *userRepoImpl) FindByRole(ctx context.Context, role string) ([]*model.User, error) {
	return s.findMany(ctx, bson.M{"role": role})
}

func (s *userRepoImpl) Insert(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = primitive.NewObjectID().Hex()
	}
	_, err := s.col.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		if strings.Contains(err.Error(), emailIndexName) {
			return backend.ErrDuplicateEmail
		}
		return backend.ErrDuplicate
	}
	return pkgerrors.Wrap(err, "insert user")
}

func (s *userRepoImpl) Update(ctx context.Context, id string, patch *model.UserPatch) error {
	set, err := toSetDoc(patch)
	if err != nil {
		return err
	}
	return s.updateOne(ctx, id, set)
}

func (s *userRepoImpl) SetRole(ctx context.Context, id string, role string, approvedAt time.Time) error {
	return s.updateOne(ctx, id, bson.M{
		"role":        role,
		"approved":    true,
		"approved_at": approvedAt,
	})
}

func (s *userRepoImpl) updateOne(ctx context.Context, id string, set bson.M) error {
	result, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return pkgerrors.Wrap(err, "update user")
	}
	if result.MatchedCount == 0 {
		return backend.ErrNotFound
	}
	return nil
}

func (s *userRepoImpl) Delete(ctx context.Context, id string) error {
	result, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return pkgerrors.Wrap(err, "delete user")
	}
	if result.DeletedCount == 0 {
		return backend.ErrNotFound
	}
	return nil
}
