package repositoryimpl

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kazz187/taskdash/internal/user"
	"github.com/kazz187/taskdash/pkg/cerr"
	"github.com/kazz187/taskdash/pkg/mongodb"
	"github.com/kazz187/taskdash/pkg/storage"
)

const usersCollection = "users"

type MongoRepository struct {
	coll *mongodb.Collection[user.User]
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: mongodb.NewCollection[user.User](db, usersCollection)}
}

// EnsureIndexes creates the unique email index that Create and Update rely on.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	return r.coll.EnsureIndex(ctx, true, "email")
}

func (r *MongoRepository) Create(ctx context.Context, u *user.User) error {
	if err := r.coll.Insert(ctx, u); err != nil {
		return wrapWriteError(err)
	}
	return nil
}

func (r *MongoRepository) Get(ctx context.Context, id string) (*user.User, error) {
	u, err := r.coll.Get(ctx, id)
	if err != nil {
		return nil, cerr.WrapStorageReadError("user", err)
	}
	return u, nil
}

func (r *MongoRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	u, err := r.coll.FindOne(ctx, bson.M{"email": email})
	if err != nil {
		return nil, cerr.WrapStorageReadError("user", err)
	}
	return u, nil
}

func (r *MongoRepository) List(ctx context.Context, limit, offset int) ([]*user.User, int, error) {
	users, total, err := r.coll.Find(ctx, bson.M{}, limit, offset)
	if err != nil {
		return nil, 0, cerr.WrapStorageReadError("users", err)
	}
	return users, total, nil
}

func (r *MongoRepository) Update(ctx context.Context, u *user.User) error {
	if err := r.coll.Replace(ctx, u.ID, u); err != nil {
		return wrapWriteError(err)
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	if err := r.coll.Delete(ctx, id); err != nil {
		return cerr.WrapStorageDeleteError("user", err)
	}
	return nil
}

func wrapWriteError(err error) error {
	if errors.Is(err, storage.ErrConflict) {
		return cerr.NewError(cerr.AlreadyExists, "a user with this email already exists", err)
	}
	return cerr.WrapStorageWriteError("user", err)
}
