// Package reminder periodically turns approaching and missed due dates into
// deadline notifications.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kazz187/taskdash/internal/config"
	"github.com/kazz187/taskdash/internal/notification"
	"github.com/kazz187/taskdash/internal/task"
	"github.com/kazz187/taskdash/internal/viewmodel"
	"github.com/kazz187/taskdash/pkg/metrics"
)

type Notifier interface {
	Notify(ctx context.Context, n *notification.Notification) (bool, error)
}

type Reminder struct {
	taskRepo task.Repository
	notifier Notifier
	metrics  *metrics.Metrics
	spec     string
	window   time.Duration
	loc      *time.Location
	now      func() time.Time
}

func New(env *config.ReminderEnv, taskRepo task.Repository, notifier Notifier, m *metrics.Metrics) *Reminder {
	return &Reminder{
		taskRepo: taskRepo,
		notifier: notifier,
		metrics:  m,
		spec:     env.Spec,
		window:   env.Window,
		loc:      env.Location(),
		now:      time.Now,
	}
}

// Start runs the reminder on its cron schedule until ctx is done.
func (r *Reminder) Start(ctx context.Context) error {
	c := cron.New(
		cron.WithLocation(r.loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(r.spec, func() {
		if _, err := r.RunOnce(ctx); err != nil {
			slog.Error("deadline reminder run failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", r.spec, err)
	}
	c.Start()
	slog.Info("deadline reminder started", "spec", r.spec, "window", r.window, "tz", r.loc.String())

	<-ctx.Done()
	<-c.Stop().Done()
	slog.Info("deadline reminder stopped")
	return nil
}

// RunOnce notifies the people on every open task that is overdue or due
// within the window. Each person hears about a task at most once per day.
func (r *Reminder) RunOnce(ctx context.Context) (int, error) {
	start := time.Now()
	if r.metrics != nil {
		defer func() { r.metrics.ReminderRunDuration.Observe(time.Since(start).Seconds()) }()
	}

	tasks, _, err := r.taskRepo.List(ctx, task.ListFilter{}, 0, 0)
	if err != nil {
		return 0, err
	}
	now := r.now()
	day := now.In(r.loc).Format("2006-01-02")

	sent := 0
	for _, t := range viewmodel.PendingDeadlines(tasks, now, r.window) {
		recipients := t.Recipients()
		if len(recipients) == 0 && t.OwnerID != "" {
			recipients = []string{t.OwnerID}
		}
		msg := message(t, now, r.loc)
		for _, userID := range recipients {
			created, err := r.notifier.Notify(ctx, &notification.Notification{
				UserID:    userID,
				Type:      notification.TypeDeadline,
				TaskID:    t.ID,
				ProjectID: t.ProjectID,
				Message:   msg,
				DedupKey:  fmt.Sprintf("deadline:%s:%s", t.ID, day),
			})
			if err != nil {
				slog.ErrorContext(ctx, "failed to create deadline notification", "task_id", t.ID, "user_id", userID, "error", err)
				continue
			}
			if created {
				sent++
			}
		}
	}
	if sent > 0 {
		slog.InfoContext(ctx, "deadline reminders sent", "count", sent)
	}
	return sent, nil
}

func message(t *task.Task, now time.Time, loc *time.Location) string {
	due := t.DueDate.In(loc).Format("Jan 2 15:04")
	if viewmodel.IsOverdue(t, now) {
		return fmt.Sprintf("%q is overdue (was due %s)", t.Title, due)
	}
	return fmt.Sprintf("%q is due %s", t.Title, due)
}
