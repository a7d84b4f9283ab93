package notification

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kazz187/taskdash/internal/eventbus"
	"github.com/kazz187/taskdash/pkg/metrics"
)

// Notifier stores notifications and announces them on the event bus.
type Notifier struct {
	repo     Repository
	eventBus *eventbus.Bus
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewNotifier(repo Repository, eventBus *eventbus.Bus, m *metrics.Metrics) *Notifier {
	return &Notifier{repo: repo, eventBus: eventBus, metrics: m, now: time.Now}
}

// Notify fills in the id, timestamp and read flag of n and stores it. A
// notification whose DedupKey the recipient already has is skipped and
// reported as false.
func (n *Notifier) Notify(ctx context.Context, notif *Notification) (bool, error) {
	if notif.DedupKey != "" {
		exists, err := n.repo.ExistsByKey(ctx, notif.UserID, notif.DedupKey)
		if err != nil {
			return false, err
		}
		if exists {
			return false, nil
		}
	}
	notif.ID = ulid.Make().String()
	notif.Read = false
	notif.CreatedAt = n.now().UTC()
	if err := n.repo.Create(ctx, notif); err != nil {
		return false, err
	}
	if n.metrics != nil {
		n.metrics.NotificationsSent.WithLabelValues(string(notif.Type)).Inc()
	}
	n.eventBus.PublishNew(eventbus.NotificationCreated, notif.ID, notif.ProjectID, "", notif)
	return true, nil
}
