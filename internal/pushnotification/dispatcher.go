package pushnotification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kazz187/taskdash/internal/eventbus"
	"github.com/kazz187/taskdash/internal/notification"
	"github.com/kazz187/taskdash/internal/task"
)

// Dispatcher pushes every new notification to its recipient's browsers.
type Dispatcher struct {
	eventBus *eventbus.Bus
	sender   *Sender
}

func NewDispatcher(eventBus *eventbus.Bus, sender *Sender) *Dispatcher {
	return &Dispatcher{
		eventBus: eventBus,
		sender:   sender,
	}
}

func (d *Dispatcher) Start(ctx context.Context) error {
	if !d.sender.Enabled() {
		slog.Info("push notification dispatcher disabled: VAPID keys not configured")
		<-ctx.Done()
		return nil
	}
	sub := d.eventBus.Subscribe(256)
	defer sub.Close()

	slog.Info("push notification dispatcher started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("push notification dispatcher stopped")
			return nil
		case event, ok := <-sub.C:
			if !ok {
				return nil
			}
			if event.Type != eventbus.NotificationCreated {
				continue
			}
			n, ok := event.Data.(*notification.Notification)
			if !ok {
				continue
			}
			d.sender.SendToUser(ctx, n.UserID, Payload(n))
		}
	}
}

var titles = map[notification.Type]string{
	notification.TypeTaskAssigned:  "New assignment",
	notification.TypeTaskUpdated:   "Task updated",
	notification.TypeTaskCompleted: "Task completed",
	notification.TypeDeadline:      "Upcoming deadline",
	notification.TypeProjectAdded:  "Added to project",
}

func Payload(n *notification.Notification) *NotificationPayload {
	title, ok := titles[n.Type]
	if !ok {
		title = "TaskDash"
	}
	var url string
	switch {
	case n.TaskID != "" && n.ProjectID != "":
		url = fmt.Sprintf("/projects/%s/tasks/%s", n.ProjectID, n.TaskID)
	case n.TaskID != "":
		url = fmt.Sprintf("/projects/%s/tasks/%s", task.StandaloneProjectID, n.TaskID)
	case n.ProjectID != "":
		url = fmt.Sprintf("/projects/%s", n.ProjectID)
	}
	return &NotificationPayload{
		Title: title,
		Body:  n.Message,
		URL:   url,
		Tag:   n.ID,
	}
}
