package project

import (
	"context"
	"time"

	"github.com/kazz187/taskdash/internal/task"
)

var _ task.ProjectLinker = (*Linker)(nil)

// Linker keeps a project's task list and progress in step with its tasks.
type Linker struct {
	repo     Repository
	taskRepo task.Repository
	now      func() time.Time
}

func NewLinker(repo Repository, taskRepo task.Repository) *Linker {
	return &Linker{repo: repo, taskRepo: taskRepo, now: time.Now}
}

func (l *Linker) CheckProject(ctx context.Context, projectID string) error {
	_, err := l.repo.Get(ctx, projectID)
	return err
}

func (l *Linker) SyncProject(ctx context.Context, projectID string) error {
	p, err := l.repo.Get(ctx, projectID)
	if err != nil {
		return err
	}
	tasks, _, err := l.taskRepo.List(ctx, task.ListFilter{ProjectID: projectID}, 0, 0)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	p.TaskIDs = ids
	p.Progress = ClampProgress(Progress(tasks))
	p.UpdatedAt = l.now().UTC()
	return l.repo.Update(ctx, p)
}
