package repositoryimpl

import (
	"context"

	"github.com/kazz187/taskdash/internal/task"
	"github.com/kazz187/taskdash/pkg/paging"
	"github.com/kazz187/taskdash/pkg/storage"
	"github.com/kazz187/taskdash/pkg/yamlstore"
)

const tasksPrefix = "tasks"

type YAMLRepository struct {
	docs *yamlstore.Collection[task.Task]
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{docs: yamlstore.NewCollection[task.Task](s, tasksPrefix, "task")}
}

func (r *YAMLRepository) Create(ctx context.Context, t *task.Task) error {
	return r.docs.Create(ctx, t.ID, t)
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*task.Task, error) {
	return r.docs.Get(ctx, id)
}

func (r *YAMLRepository) List(ctx context.Context, filter task.ListFilter, limit, offset int) ([]*task.Task, int, error) {
	all, err := r.docs.All(ctx)
	if err != nil {
		return nil, 0, err
	}
	matched := all[:0]
	for _, t := range all {
		if filter.Match(t) {
			matched = append(matched, t)
		}
	}
	items, total := paging.Slice(matched, limit, offset)
	return items, total, nil
}

func (r *YAMLRepository) Update(ctx context.Context, t *task.Task) error {
	return r.docs.Update(ctx, t.ID, t)
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	return r.docs.Delete(ctx, id)
}
