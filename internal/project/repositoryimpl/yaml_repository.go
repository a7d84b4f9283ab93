package repositoryimpl

import (
	"context"

	"github.com/kazz187/taskdash/internal/project"
	"github.com/kazz187/taskdash/pkg/paging"
	"github.com/kazz187/taskdash/pkg/storage"
	"github.com/kazz187/taskdash/pkg/yamlstore"
)

const projectsPrefix = "projects"

type YAMLRepository struct {
	docs *yamlstore.Collection[project.Project]
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{docs: yamlstore.NewCollection[project.Project](s, projectsPrefix, "project")}
}

func (r *YAMLRepository) Create(ctx context.Context, p *project.Project) error {
	return r.docs.Create(ctx, p.ID, p)
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	return r.docs.Get(ctx, id)
}

func (r *YAMLRepository) List(ctx context.Context, memberID string, limit, offset int) ([]*project.Project, int, error) {
	all, err := r.docs.All(ctx)
	if err != nil {
		return nil, 0, err
	}
	matched := all[:0]
	for _, p := range all {
		if memberID == "" || p.HasMember(memberID) {
			matched = append(matched, p)
		}
	}
	items, total := paging.Slice(matched, limit, offset)
	return items, total, nil
}

func (r *YAMLRepository) Update(ctx context.Context, p *project.Project) error {
	return r.docs.Update(ctx, p.ID, p)
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	return r.docs.Delete(ctx, id)
}
