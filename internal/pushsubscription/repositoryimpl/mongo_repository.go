package repositoryimpl

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kazz187/taskdash/internal/pushsubscription"
	"github.com/kazz187/taskdash/pkg/cerr"
	"github.com/kazz187/taskdash/pkg/mongodb"
)

const pushSubscriptionsCollection = "push_subscriptions"

type MongoRepository struct {
	coll *mongodb.Collection[pushsubscription.Subscription]
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: mongodb.NewCollection[pushsubscription.Subscription](db, pushSubscriptionsCollection)}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	if err := r.coll.EnsureIndex(ctx, true, "endpoint"); err != nil {
		return err
	}
	return r.coll.EnsureIndex(ctx, false, "user_id")
}

// Save upserts on the endpoint and keeps the id of an earlier registration.
func (r *MongoRepository) Save(ctx context.Context, s *pushsubscription.Subscription) error {
	existing, err := r.FindByEndpoint(ctx, s.Endpoint)
	if err == nil {
		s.ID = existing.ID
	} else if !cerr.IsCode(err, cerr.NotFound) {
		return err
	}
	_, err = r.coll.Raw().ReplaceOne(ctx, bson.M{"_id": s.ID}, s, options.Replace().SetUpsert(true))
	if err != nil {
		return cerr.WrapStorageWriteError("push subscription", mongodb.MapError(err))
	}
	return nil
}

func (r *MongoRepository) ListByUser(ctx context.Context, userID string) ([]*pushsubscription.Subscription, error) {
	subs, _, err := r.coll.Find(ctx, bson.M{"user_id": userID}, 0, 0)
	if err != nil {
		return nil, cerr.WrapStorageReadError("push subscriptions", err)
	}
	return subs, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	if err := r.coll.Delete(ctx, id); err != nil {
		return cerr.WrapStorageDeleteError("push subscription", err)
	}
	return nil
}

func (r *MongoRepository) FindByEndpoint(ctx context.Context, endpoint string) (*pushsubscription.Subscription, error) {
	s, err := r.coll.FindOne(ctx, bson.M{"endpoint": endpoint})
	if err != nil {
		return nil, cerr.WrapStorageReadError("push subscription", err)
	}
	return s, nil
}
