package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/kazz187/taskdash/pkg/storage"
)

const connectTimeout = 10 * time.Second

// Connect dials uri and pings the primary before returning.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return client, nil
}

// MapError translates driver errors into the storage sentinels so the
// repositories can share cerr.WrapStorage* with the YAML implementations.
func MapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%w: %w", storage.ErrNotFound, err)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %w", storage.ErrConflict, err)
	default:
		return err
	}
}

// Collection is a typed view over a collection whose documents use a string
// "_id" field.
type Collection[T any] struct {
	coll *mongo.Collection
}

func NewCollection[T any](db *mongo.Database, name string) *Collection[T] {
	return &Collection[T]{coll: db.Collection(name)}
}

func (c *Collection[T]) Raw() *mongo.Collection {
	return c.coll
}

func (c *Collection[T]) Insert(ctx context.Context, doc *T) error {
	_, err := c.coll.InsertOne(ctx, doc)
	return MapError(err)
}

func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	return c.FindOne(ctx, bson.M{"_id": id})
}

func (c *Collection[T]) FindOne(ctx context.Context, filter bson.M) (*T, error) {
	var doc T
	if err := c.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, MapError(err)
	}
	return &doc, nil
}

// Replace overwrites the document with the given id. It fails with
// storage.ErrNotFound when nothing matched.
func (c *Collection[T]) Replace(ctx context.Context, id string, doc *T) error {
	res, err := c.coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return MapError(err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return MapError(err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (c *Collection[T]) DeleteMany(ctx context.Context, filter bson.M) (int64, error) {
	res, err := c.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, MapError(err)
	}
	return res.DeletedCount, nil
}

// Find returns one page of matches ordered by _id (ULIDs sort by creation
// time) together with the total number of matches.
func (c *Collection[T]) Find(ctx context.Context, filter bson.M, limit, offset int) ([]*T, int, error) {
	total, err := c.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, MapError(err)
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := c.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, MapError(err)
	}
	var docs []*T
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, MapError(err)
	}
	return docs, int(total), nil
}

// EnsureIndex creates an ascending index on keys, unique when requested.
func (c *Collection[T]) EnsureIndex(ctx context.Context, unique bool, keys ...string) error {
	doc := bson.D{}
	for _, k := range keys {
		doc = append(doc, bson.E{Key: k, Value: 1})
	}
	_, err := c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    doc,
		Options: options.Index().SetUnique(unique),
	})
	if err != nil {
		return fmt.Errorf("failed to create index on %s%v: %w", c.coll.Name(), keys, err)
	}
	return nil
}
