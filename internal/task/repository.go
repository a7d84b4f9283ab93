package task

import "context"

type ListFilter struct {
	// ProjectID selects the tasks of one project. Standalone selects tasks
	// without a project; when neither is set every task is listed.
	ProjectID  string
	Standalone bool
	AssigneeID string
	Status     Status
}

type Repository interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Task, int, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id string) error
}

func (f ListFilter) Match(t *Task) bool {
	if f.Standalone && t.ProjectID != "" {
		return false
	}
	if f.ProjectID != "" && t.ProjectID != f.ProjectID {
		return false
	}
	if f.AssigneeID != "" && t.AssigneeID != f.AssigneeID {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	return true
}
