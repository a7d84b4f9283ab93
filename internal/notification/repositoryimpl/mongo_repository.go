package repositoryimpl

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kazz187/taskdash/internal/notification"
	"github.com/kazz187/taskdash/pkg/cerr"
	"github.com/kazz187/taskdash/pkg/mongodb"
)

const notificationsCollection = "notifications"

type MongoRepository struct {
	coll *mongodb.Collection[notification.Notification]
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: mongodb.NewCollection[notification.Notification](db, notificationsCollection)}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	return r.coll.EnsureIndex(ctx, false, "user_id", "read")
}

func (r *MongoRepository) Create(ctx context.Context, n *notification.Notification) error {
	if err := r.coll.Insert(ctx, n); err != nil {
		return cerr.WrapStorageWriteError("notification", err)
	}
	return nil
}

func (r *MongoRepository) Get(ctx context.Context, id string) (*notification.Notification, error) {
	n, err := r.coll.Get(ctx, id)
	if err != nil {
		return nil, cerr.WrapStorageReadError("notification", err)
	}
	return n, nil
}

func listQuery(f notification.ListFilter) bson.M {
	q := bson.M{}
	if f.UserID != "" {
		q["user_id"] = f.UserID
	}
	if f.UnreadOnly {
		q["read"] = false
	}
	return q
}

func (r *MongoRepository) List(ctx context.Context, filter notification.ListFilter, limit, offset int) ([]*notification.Notification, int, error) {
	q := listQuery(filter)
	total, err := r.coll.Raw().CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, cerr.WrapStorageReadError("notifications", mongodb.MapError(err))
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetSkip(int64(offset))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.coll.Raw().Find(ctx, q, opts)
	if err != nil {
		return nil, 0, cerr.WrapStorageReadError("notifications", mongodb.MapError(err))
	}
	var items []*notification.Notification
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, cerr.WrapStorageReadError("notifications", mongodb.MapError(err))
	}
	return items, int(total), nil
}

func (r *MongoRepository) Update(ctx context.Context, n *notification.Notification) error {
	if err := r.coll.Replace(ctx, n.ID, n); err != nil {
		return cerr.WrapStorageWriteError("notification", err)
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	if err := r.coll.Delete(ctx, id); err != nil {
		return cerr.WrapStorageDeleteError("notification", err)
	}
	return nil
}

func (r *MongoRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	res, err := r.coll.Raw().UpdateMany(ctx,
		bson.M{"user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, cerr.WrapStorageWriteError("notifications", mongodb.MapError(err))
	}
	return int(res.ModifiedCount), nil
}

func (r *MongoRepository) ExistsByKey(ctx context.Context, userID, key string) (bool, error) {
	n, err := r.coll.Raw().CountDocuments(ctx, bson.M{"user_id": userID, "dedup_key": key}, options.Count().SetLimit(1))
	if err != nil {
		return false, cerr.WrapStorageReadError("notifications", mongodb.MapError(err))
	}
	return n > 0, nil
}
