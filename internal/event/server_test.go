package event

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/taskdash/internal/eventbus"
	"github.com/kazz187/taskdash/internal/notification"
	"github.com/kazz187/taskdash/internal/role"
	"github.com/kazz187/taskdash/pkg/cerr"
	"github.com/kazz187/taskdash/pkg/metrics"
)

func withPrincipal(p *role.Principal, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			r = r.WithContext(role.ContextWithPrincipal(r.Context(), p))
		}
		next.ServeHTTP(w, r)
	})
}

func readEvent(t *testing.T, sc *bufio.Scanner) (string, eventbus.Event) {
	t.Helper()
	var name string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			var ev eventbus.Event
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
			return name, ev
		}
	}
	t.Fatalf("stream ended: %v", sc.Err())
	return "", eventbus.Event{}
}

func TestStream(t *testing.T) {
	bus := eventbus.New()
	m := metrics.New()
	r := chi.NewRouter()
	NewServer(bus, m).Routes(r)
	srv := httptest.NewServer(withPrincipal(&role.Principal{UserID: "alice", Role: role.Staff}, r))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?type=task.created,notification.created&project=p1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	sc := bufio.NewScanner(resp.Body)
	require.True(t, sc.Scan())
	assert.Equal(t, ": connected", sc.Text())
	assert.Equal(t, 1, bus.SubscriberCount())

	bus.PublishNew(eventbus.TaskUpdated, "t0", "p1", "bob", nil)
	bus.PublishNew(eventbus.TaskCreated, "t1", "p2", "bob", nil)
	bus.PublishNew(eventbus.NotificationCreated, "n1", "p1", "", &notification.Notification{ID: "n1", UserID: "bob"})
	bus.PublishNew(eventbus.TaskCreated, "t2", "p1", "bob", nil)
	bus.PublishNew(eventbus.NotificationCreated, "n2", "p1", "", &notification.Notification{ID: "n2", UserID: "alice"})

	name, ev := readEvent(t, sc)
	assert.Equal(t, "task.created", name)
	assert.Equal(t, "t2", ev.ResourceID)

	name, ev = readEvent(t, sc)
	assert.Equal(t, "notification.created", name)
	assert.Equal(t, "n2", ev.ResourceID)

	cancel()
	require.Eventually(t, func() bool { return bus.SubscriberCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStream_RequiresPrincipal(t *testing.T) {
	r := chi.NewRouter()
	NewServer(eventbus.New(), nil).Routes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body cerr.HTTPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, role.LoginPage, body.Redirect)
}

func TestLogger(t *testing.T) {
	logger, err := NewLogger(t.TempDir())
	require.NoError(t, err)

	day := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, logger.Log(eventbus.Event{ID: "1", Type: eventbus.TaskCreated, ResourceID: "t1", CreatedAt: day}))
	require.NoError(t, logger.Log(eventbus.Event{ID: "2", Type: eventbus.NotificationCreated, ResourceID: "n1", CreatedAt: day}))
	require.NoError(t, logger.Log(eventbus.Event{ID: "3", Type: eventbus.TaskCompleted, ResourceID: "t1", CreatedAt: day.Add(time.Hour)}))
	require.NoError(t, logger.Log(eventbus.Event{ID: "4", Type: eventbus.TaskCreated, ResourceID: "t2", CreatedAt: day.AddDate(0, 0, 1)}))

	events, err := logger.ReadDay(day)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "1", events[0].ID)
	assert.Equal(t, eventbus.TaskCompleted, events[1].Type)

	empty, err := logger.ReadDay(day.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLogServer(t *testing.T) {
	logger, err := NewLogger(t.TempDir())
	require.NoError(t, err)
	day := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, logger.Log(eventbus.Event{ID: "1", Type: eventbus.ProjectCreated, ResourceID: "p1", CreatedAt: day}))

	r := chi.NewRouter()
	r.Use(cerr.NewJSONResponseChiMiddleware())
	NewLogServer(logger).Routes(r)

	tests := []struct {
		name   string
		query  string
		status int
		count  int
	}{
		{name: "day with events", query: "?date=2024-03-01", status: http.StatusOK, count: 1},
		{name: "empty day", query: "?date=2024-03-02", status: http.StatusOK, count: 0},
		{name: "bad date", query: "?date=March", status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/activity"+tt.query, nil))
			require.Equal(t, tt.status, rec.Code)
			if tt.status != http.StatusOK {
				return
			}
			var body activityResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Len(t, body.Events, tt.count)
		})
	}
}
