// Package event exposes the domain event bus to clients as a server-sent
// event stream and keeps a daily activity log of it.
package event

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kazz187/taskdash/internal/eventbus"
	"github.com/kazz187/taskdash/internal/notification"
	"github.com/kazz187/taskdash/internal/role"
	"github.com/kazz187/taskdash/pkg/cerr"
	"github.com/kazz187/taskdash/pkg/metrics"
)

const (
	subscriberBuffer  = 64
	heartbeatInterval = 25 * time.Second
)

type Server struct {
	eventBus  *eventbus.Bus
	metrics   *metrics.Metrics
	heartbeat time.Duration
}

func NewServer(bus *eventbus.Bus, m *metrics.Metrics) *Server {
	return &Server{eventBus: bus, metrics: m, heartbeat: heartbeatInterval}
}

// Routes registers the stream. It writes its own responses and must be
// mounted outside the JSON response middleware.
func (s *Server) Routes(r chi.Router) {
	r.Get("/events", s.stream)
}

type filter struct {
	types     map[eventbus.Type]struct{}
	projectID string
	userID    string
}

func newFilter(r *http.Request, userID string) filter {
	f := filter{userID: userID, projectID: r.URL.Query().Get("project")}
	if raw := r.URL.Query().Get("type"); raw != "" {
		f.types = make(map[eventbus.Type]struct{})
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				f.types[eventbus.Type(t)] = struct{}{}
			}
		}
	}
	return f
}

func (f filter) match(ev eventbus.Event) bool {
	if n, ok := ev.Data.(*notification.Notification); ok && n.UserID != f.userID {
		return false
	}
	if f.types != nil {
		if _, ok := f.types[ev.Type]; !ok {
			return false
		}
	}
	return f.projectID == "" || ev.ProjectID == f.projectID
}

func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := role.PrincipalFromContext(ctx)
	if p == nil || p.UserID == "" {
		cerr.RespondError(ctx, w, cerr.NewRedirectError(cerr.Unauthenticated, role.SignInMessage, role.LoginPage))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		cerr.RespondError(ctx, w, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("response writer does not support flushing")))
		return
	}

	f := newFilter(r, p.UserID)
	sub := s.eventBus.Subscribe(subscriberBuffer)
	defer sub.Close()
	if s.metrics != nil {
		s.metrics.EventSubscribers.Inc()
		defer s.metrics.EventSubscribers.Dec()
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if !f.match(ev) {
				continue
			}
			data, err := json.Marshal(ev)
			if err != nil {
				slog.ErrorContext(ctx, "failed to marshal event", "event_id", ev.ID, "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", ev.ID, ev.Type, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// LogServer serves the activity log recorded by Logger.
type LogServer struct {
	logger *Logger
	now    func() time.Time
}

func NewLogServer(logger *Logger) *LogServer {
	return &LogServer{logger: logger, now: time.Now}
}

func (s *LogServer) Routes(r chi.Router) {
	r.Get("/activity", s.activity)
}

type activityResponse struct {
	Date   string           `json:"date"`
	Events []eventbus.Event `json:"events"`
}

func (s *LogServer) activity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	day := s.now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(dayLayout, raw)
		if err != nil {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "date must be formatted as YYYY-MM-DD", err)
			return
		}
		day = parsed
	}
	events, err := s.logger.ReadDay(day)
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.Internal, "server error", err)
		return
	}
	cerr.SetJSONResponse(ctx, activityResponse{Date: day.Format(dayLayout), Events: events})
}
