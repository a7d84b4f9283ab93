package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kazz187/taskdash/internal/eventbus"
	"github.com/kazz187/taskdash/internal/project"
	"github.com/kazz187/taskdash/internal/task"
)

// Dispatcher turns task and project events into notifications for the people
// involved. The user who caused an event is never notified about it.
type Dispatcher struct {
	eventBus *eventbus.Bus
	notifier *Notifier
}

func NewDispatcher(eventBus *eventbus.Bus, notifier *Notifier) *Dispatcher {
	return &Dispatcher{eventBus: eventBus, notifier: notifier}
}

func (d *Dispatcher) Start(ctx context.Context) error {
	sub := d.eventBus.Subscribe(256)
	defer sub.Close()

	slog.Info("notification dispatcher started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("notification dispatcher stopped")
			return nil
		case event, ok := <-sub.C:
			if !ok {
				return nil
			}
			for _, n := range Plan(event) {
				if _, err := d.notifier.Notify(ctx, n); err != nil {
					slog.Error("failed to create notification", "event_id", event.ID, "user_id", n.UserID, "type", n.Type, "error", err)
				}
			}
		}
	}
}

// Plan returns the notifications an event should produce.
func Plan(event eventbus.Event) []*Notification {
	switch event.Type {
	case eventbus.TaskCreated, eventbus.TaskUpdated, eventbus.TaskCompleted:
		change, ok := event.Data.(task.Change)
		if !ok || change.Task == nil {
			return nil
		}
		return planTask(event, change)
	case eventbus.ProjectMemberAdded:
		added, ok := event.Data.(project.MemberAdded)
		if !ok || added.Project == nil || added.MemberID == "" || added.MemberID == event.ActorID {
			return nil
		}
		return []*Notification{{
			UserID:    added.MemberID,
			Type:      TypeProjectAdded,
			ProjectID: added.Project.ID,
			Message:   fmt.Sprintf("You were added to project %q", added.Project.Name),
		}}
	}
	return nil
}

func planTask(event eventbus.Event, change task.Change) []*Notification {
	t := change.Task
	var out []*Notification
	add := func(userID string, typ Type, msg string) {
		if userID == "" || userID == event.ActorID {
			return
		}
		for _, n := range out {
			if n.UserID == userID {
				return
			}
		}
		out = append(out, &Notification{UserID: userID, Type: typ, TaskID: t.ID, ProjectID: t.ProjectID, Message: msg})
	}

	newlyAssigned := t.AssigneeID != "" && (change.Previous == nil || change.Previous.AssigneeID != t.AssigneeID)
	if newlyAssigned {
		add(t.AssigneeID, TypeTaskAssigned, fmt.Sprintf("You were assigned to %q", t.Title))
	}
	switch event.Type {
	case eventbus.TaskCompleted:
		msg := fmt.Sprintf("%q was completed", t.Title)
		for _, id := range t.Recipients() {
			add(id, TypeTaskCompleted, msg)
		}
		add(t.OwnerID, TypeTaskCompleted, msg)
	case eventbus.TaskUpdated:
		msg := fmt.Sprintf("%q was updated", t.Title)
		for _, id := range t.Recipients() {
			add(id, TypeTaskUpdated, msg)
		}
	}
	return out
}
