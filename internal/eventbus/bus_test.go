package eventbus

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	a := bus.Subscribe(4)
	b := bus.Subscribe(4)
	defer b.Close()

	ev := bus.PublishNew(TaskCreated, "t1", "p1", "u1", map[string]string{"title": "x"})
	assert.NotEmpty(t, ev.ID)

	for _, sub := range []*Subscription{a, b} {
		got := <-sub.C
		assert.Equal(t, ev.ID, got.ID)
		assert.Equal(t, TaskCreated, got.Type)
		assert.Equal(t, "p1", got.ProjectID)
	}

	a.Close()
	_, ok := <-a.C
	assert.False(t, ok, "closed subscription channel")
	assert.Equal(t, 1, bus.SubscriberCount())

	// Closing twice is harmless.
	a.Close()
}

func TestBus_DropsWhenFull(t *testing.T) {
	bus := New()
	sub := bus.Subscribe(1)
	defer sub.Close()

	bus.PublishNew(TaskUpdated, "t1", "", "", nil)
	bus.PublishNew(TaskUpdated, "t2", "", "", nil)

	got := <-sub.C
	assert.Equal(t, "t1", got.ResourceID)
	select {
	case ev := <-sub.C:
		t.Fatalf("unexpected event %s", ev.ResourceID)
	default:
	}
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads [][]byte
}

func (p *recordingPublisher) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subjects)
}

func TestNATSBridge(t *testing.T) {
	bus := New()
	pub := &recordingPublisher{}
	bridge := NewNATSBridge(bus, pub, "taskdash.events.")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bridge.Run(ctx) }()

	require.Eventually(t, func() bool { return bus.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)
	bus.PublishNew(ProjectCreated, "p1", "p1", "u1", nil)
	require.Eventually(t, func() bool { return pub.count() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, "taskdash.events.project.created", pub.subjects[0])
	var ev Event
	require.NoError(t, json.Unmarshal(pub.payloads[0], &ev))
	assert.Equal(t, "p1", ev.ResourceID)
	assert.Equal(t, 0, bus.SubscriberCount())
}
