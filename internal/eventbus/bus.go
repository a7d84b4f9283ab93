package eventbus

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type Type string

const (
	TaskCreated         Type = "task.created"
	TaskUpdated         Type = "task.updated"
	TaskCompleted       Type = "task.completed"
	TaskDeleted         Type = "task.deleted"
	ProjectCreated      Type = "project.created"
	ProjectUpdated      Type = "project.updated"
	ProjectDeleted      Type = "project.deleted"
	ProjectMemberAdded  Type = "project.member_added"
	UserCreated         Type = "user.created"
	UserUpdated         Type = "user.updated"
	UserDeleted         Type = "user.deleted"
	NotificationCreated Type = "notification.created"
)

type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	ResourceID string    `json:"resource_id"`
	ProjectID  string    `json:"project_id,omitempty"`
	// ActorID is the user whose request caused the event, empty for jobs.
	ActorID   string    `json:"actor_id,omitempty"`
	Data      any       `json:"data,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
}

func New() *Bus {
	return &Bus{
		subscribers: make(map[string]chan Event),
	}
}

// Subscription is a handle on the events published after Subscribe returned.
// Close must be called to release it.
type Subscription struct {
	id  string
	C   <-chan Event
	bus *Bus
}

func (b *Bus) Subscribe(bufSize int) *Subscription {
	id := ulid.Make().String()
	ch := make(chan Event, bufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return &Subscription{id: id, C: ch, bus: b}
}

func (s *Subscription) Close() {
	s.bus.unsubscribe(s.id)
}

func (b *Bus) unsubscribe(id string) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// buffer full, drop event for this subscriber
		}
	}
}

func (b *Bus) PublishNew(eventType Type, resourceID, projectID, actorID string, data any) Event {
	event := Event{
		ID:         ulid.Make().String(),
		Type:       eventType,
		ResourceID: resourceID,
		ProjectID:  projectID,
		ActorID:    actorID,
		Data:       data,
		CreatedAt:  time.Now().UTC(),
	}
	b.Publish(event)
	return event
}
