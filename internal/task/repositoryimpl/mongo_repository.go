package repositoryimpl

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kazz187/taskdash/internal/task"
	"github.com/kazz187/taskdash/pkg/cerr"
	"github.com/kazz187/taskdash/pkg/mongodb"
)

const tasksCollection = "tasks"

type MongoRepository struct {
	coll *mongodb.Collection[task.Task]
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: mongodb.NewCollection[task.Task](db, tasksCollection)}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	if err := r.coll.EnsureIndex(ctx, false, "project_id"); err != nil {
		return err
	}
	return r.coll.EnsureIndex(ctx, false, "assignee_id")
}

func (r *MongoRepository) Create(ctx context.Context, t *task.Task) error {
	if err := r.coll.Insert(ctx, t); err != nil {
		return cerr.WrapStorageWriteError("task", err)
	}
	return nil
}

func (r *MongoRepository) Get(ctx context.Context, id string) (*task.Task, error) {
	t, err := r.coll.Get(ctx, id)
	if err != nil {
		return nil, cerr.WrapStorageReadError("task", err)
	}
	return t, nil
}

func (r *MongoRepository) List(ctx context.Context, filter task.ListFilter, limit, offset int) ([]*task.Task, int, error) {
	tasks, total, err := r.coll.Find(ctx, listQuery(filter), limit, offset)
	if err != nil {
		return nil, 0, cerr.WrapStorageReadError("tasks", err)
	}
	return tasks, total, nil
}

func listQuery(f task.ListFilter) bson.M {
	q := bson.M{}
	switch {
	case f.Standalone:
		q["project_id"] = ""
	case f.ProjectID != "":
		q["project_id"] = f.ProjectID
	}
	if f.AssigneeID != "" {
		q["assignee_id"] = f.AssigneeID
	}
	if f.Status != "" {
		q["status"] = string(f.Status)
	}
	return q
}

func (r *MongoRepository) Update(ctx context.Context, t *task.Task) error {
	if err := r.coll.Replace(ctx, t.ID, t); err != nil {
		return cerr.WrapStorageWriteError("task", err)
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	if err := r.coll.Delete(ctx, id); err != nil {
		return cerr.WrapStorageDeleteError("task", err)
	}
	return nil
}
