package mongostore

import (
	"context"
	"strings"

	apierrors "github.com/yukikurage/pandora-pm/internal/errors"
	"github.com/yukikurage/pandora-pm/internal/models"
	"github.com/yukikurage/pandora-pm/internal/repository"
	"github.com/yukikurage/pandora-pm/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserStore implements repository.UserRepository on the users collection.
type UserStore struct {
	coll *mongo.Collection
}

var _ repository.UserRepository = (*UserStore)(nil)

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{coll: db.Collection(UsersCollection)}
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	repository.PrepareUser(user)
	_, err := s.coll.InsertOne(ctx, user)
	return mapError("create user", "user", err)
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"username_ci": strings.ToLower(strings.TrimSpace(username))})
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := s.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, mapError("find user", "user", err)
	}
	return &user, nil
}

func (s *UserStore) List(ctx context.Context, offset, limit int) ([]models.User, int64, error) {
	total, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, mapError("count users", "user", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "username_ci", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, mapError("list users", "user", err)
	}

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, mapError("list users", "user", err)
	}
	return users, total, nil
}

func (s *UserStore) Update(ctx context.Context, id string, upd repository.UserUpdate) (repository.UpdateResult, error) {
	set := setFields("", upd.Fields())
	set["updated_at"] = utils.Now()

	var before models.User
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&before)
	if err != nil {
		return repository.UpdateResult{}, mapError("update user", "user", err)
	}
	return repository.UpdateResult{
		Matched:  true,
		Modified: len(upd.Changes(&before)) > 0,
	}, nil
}

func (s *UserStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapError("delete user", "user", err)
	}
	if res.DeletedCount == 0 {
		return apierrors.NotFound("user")
	}
	return nil
}

func (s *UserStore) Count(ctx context.Context) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{})
	return n, mapError("count users", "user", err)
}

func (s *UserStore) CountAdmins(ctx context.Context) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"role": models.RoleAdmin})
	return n, mapError("count admins", "user", err)
}
