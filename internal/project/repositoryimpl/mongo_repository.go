package repositoryimpl

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kazz187/taskdash/internal/project"
	"github.com/kazz187/taskdash/pkg/cerr"
	"github.com/kazz187/taskdash/pkg/mongodb"
)

const projectsCollection = "projects"

type MongoRepository struct {
	coll *mongodb.Collection[project.Project]
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: mongodb.NewCollection[project.Project](db, projectsCollection)}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	return r.coll.EnsureIndex(ctx, false, "team_member_ids")
}

func (r *MongoRepository) Create(ctx context.Context, p *project.Project) error {
	if err := r.coll.Insert(ctx, p); err != nil {
		return cerr.WrapStorageWriteError("project", err)
	}
	return nil
}

func (r *MongoRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	p, err := r.coll.Get(ctx, id)
	if err != nil {
		return nil, cerr.WrapStorageReadError("project", err)
	}
	return p, nil
}

func (r *MongoRepository) List(ctx context.Context, memberID string, limit, offset int) ([]*project.Project, int, error) {
	filter := bson.M{}
	if memberID != "" {
		filter = bson.M{"$or": bson.A{
			bson.M{"owner_id": memberID},
			bson.M{"team_member_ids": memberID},
		}}
	}
	projects, total, err := r.coll.Find(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, cerr.WrapStorageReadError("projects", err)
	}
	return projects, total, nil
}

func (r *MongoRepository) Update(ctx context.Context, p *project.Project) error {
	if err := r.coll.Replace(ctx, p.ID, p); err != nil {
		return cerr.WrapStorageWriteError("project", err)
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	if err := r.coll.Delete(ctx, id); err != nil {
		return cerr.WrapStorageDeleteError("project", err)
	}
	return nil
}
