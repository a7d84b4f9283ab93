package viewmodel

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kazz187/taskdash/internal/project"
	"github.com/kazz187/taskdash/internal/role"
	"github.com/kazz187/taskdash/internal/task"
	"github.com/kazz187/taskdash/pkg/cerr"
)

const (
	defaultDeadlineWindow = 24 * time.Hour
	defaultTimelineDays   = 7
	maxTimelineDays       = 366
)

// Server renders the dashboard screens from the task and project stores.
type Server struct {
	taskRepo    task.Repository
	projectRepo project.Repository
	now         func() time.Time
}

func NewServer(taskRepo task.Repository, projectRepo project.Repository) *Server {
	return &Server{taskRepo: taskRepo, projectRepo: projectRepo, now: time.Now}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/views/tasks", s.tasks)
	r.Get("/views/projects", s.projects)
	r.Get("/views/timeline", s.timeline)
	r.Get("/views/deadlines", s.deadlines)
}

type timelineResponse struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Timezone string `json:"timezone"`
	Days     []Day  `json:"days"`
}

type deadlineItem struct {
	*task.Task
	Overdue bool `json:"overdue"`
}

type deadlinesResponse struct {
	Within string         `json:"within"`
	Tasks  []deadlineItem `json:"tasks"`
}

func invalid(ctx context.Context, msg string, err error) {
	cerr.SetNewJSONError(ctx, cerr.InvalidArgument, msg, err)
}

func (s *Server) tasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q, err := parseTaskQuery(r)
	if err != nil {
		invalid(ctx, err.Error(), err)
		return
	}
	tasks, err := s.visibleTasks(r)
	if err != nil {
		cerr.SetJSONError(ctx, cerr.WrapStorageReadError("tasks", err))
		return
	}
	names, err := s.projectNames(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, cerr.WrapStorageReadError("projects", err))
		return
	}
	cerr.SetJSONResponse(ctx, BuildTaskView(tasks, names, q))
}

func (s *Server) projects(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	var q ProjectQuery
	var err error
	q.Search = query.Get("q")
	if q.Status, err = optionalStatus(query.Get("status")); err != nil {
		invalid(ctx, err.Error(), err)
		return
	}
	if q.Priority, err = optionalPriority(query.Get("priority")); err != nil {
		invalid(ctx, err.Error(), err)
		return
	}
	if q.Sort, err = ParseProjectSortKey(query.Get("sort")); err != nil {
		invalid(ctx, err.Error(), err)
		return
	}
	q.Order = ParseOrder(query.Get("order"))

	memberID := ""
	if query.Get("mine") == "true" {
		memberID = principalID(ctx)
	}
	projects, _, err := s.projectRepo.List(ctx, memberID, 0, 0)
	if err != nil {
		cerr.SetJSONError(ctx, cerr.WrapStorageReadError("projects", err))
		return
	}
	view := BuildProjectView(projects, q)
	if view == nil {
		view = []*project.Project{}
	}
	cerr.SetJSONResponse(ctx, view)
}

func (s *Server) timeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	loc, err := parseLocation(query.Get("tz"))
	if err != nil {
		invalid(ctx, err.Error(), err)
		return
	}
	from := startOfDay(s.now().In(loc))
	if raw := query.Get("from"); raw != "" {
		if from, err = parseTime(raw, loc); err != nil {
			invalid(ctx, "from: "+err.Error(), err)
			return
		}
	}
	to := from.AddDate(0, 0, defaultTimelineDays-1)
	if raw := query.Get("to"); raw != "" {
		if to, err = parseTime(raw, loc); err != nil {
			invalid(ctx, "to: "+err.Error(), err)
			return
		}
	}
	if to.Before(from) {
		invalid(ctx, "to must not be before from", nil)
		return
	}
	if startOfDay(to.In(loc)).Sub(startOfDay(from.In(loc))) > maxTimelineDays*24*time.Hour {
		invalid(ctx, fmt.Sprintf("timeline range is limited to %d days", maxTimelineDays), nil)
		return
	}

	tasks, err := s.visibleTasks(r)
	if err != nil {
		cerr.SetJSONError(ctx, cerr.WrapStorageReadError("tasks", err))
		return
	}
	cerr.SetJSONResponse(ctx, timelineResponse{
		From:     from.In(loc).Format(dayLayout),
		To:       to.In(loc).Format(dayLayout),
		Timezone: loc.String(),
		Days:     Timeline(tasks, from, to, loc),
	})
}

func (s *Server) deadlines(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	window := defaultDeadlineWindow
	if raw := r.URL.Query().Get("within"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			invalid(ctx, "within must be a non-negative duration such as 48h", err)
			return
		}
		window = d
	}
	tasks, err := s.visibleTasks(r)
	if err != nil {
		cerr.SetJSONError(ctx, cerr.WrapStorageReadError("tasks", err))
		return
	}
	now := s.now()
	pending := PendingDeadlines(tasks, now, window)
	items := make([]deadlineItem, 0, len(pending))
	for _, t := range pending {
		items = append(items, deadlineItem{Task: t, Overdue: IsOverdue(t, now)})
	}
	cerr.SetJSONResponse(ctx, deadlinesResponse{Within: window.String(), Tasks: items})
}

// visibleTasks loads every task, or only the caller's with ?mine=true.
func (s *Server) visibleTasks(r *http.Request) ([]*task.Task, error) {
	tasks, _, err := s.taskRepo.List(r.Context(), task.ListFilter{}, 0, 0)
	if err != nil {
		return nil, err
	}
	if r.URL.Query().Get("mine") != "true" {
		return tasks, nil
	}
	id := principalID(r.Context())
	return Filter(tasks, func(t *task.Task) bool { return involves(t, id) }), nil
}

func involves(t *task.Task, userID string) bool {
	if userID == "" {
		return false
	}
	if t.OwnerID == userID {
		return true
	}
	for _, id := range t.Recipients() {
		if id == userID {
			return true
		}
	}
	return false
}

func (s *Server) projectNames(ctx context.Context) (map[string]string, error) {
	projects, _, err := s.projectRepo.List(ctx, "", 0, 0)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}
	return names, nil
}

func principalID(ctx context.Context) string {
	if p := role.PrincipalFromContext(ctx); p != nil {
		return p.UserID
	}
	return ""
}

func parseTaskQuery(r *http.Request) (TaskQuery, error) {
	query := r.URL.Query()
	q := TaskQuery{
		Search:    query.Get("q"),
		ProjectID: query.Get("project"),
		Order:     ParseOrder(query.Get("order")),
	}
	var err error
	if q.Location, err = parseLocation(query.Get("tz")); err != nil {
		return q, err
	}
	if q.Status, err = optionalStatus(query.Get("status")); err != nil {
		return q, err
	}
	if q.Priority, err = optionalPriority(query.Get("priority")); err != nil {
		return q, err
	}
	if q.Sort, err = ParseTaskSortKey(query.Get("sort")); err != nil {
		return q, err
	}
	if q.Group, err = ParseTaskGroupKey(query.Get("group")); err != nil {
		return q, err
	}
	if raw := query.Get("from"); raw != "" {
		from, err := parseTime(raw, q.Location)
		if err != nil {
			return q, fmt.Errorf("from: %w", err)
		}
		q.From = &from
	}
	if raw := query.Get("to"); raw != "" {
		to, err := parseTime(raw, q.Location)
		if err != nil {
			return q, fmt.Errorf("to: %w", err)
		}
		// A bare date bound includes the whole day.
		if !strings.Contains(raw, "T") {
			to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		q.To = &to
	}
	return q, nil
}

func optionalStatus(raw string) (task.Status, error) {
	if raw == "" {
		return "", nil
	}
	return task.ParseStatus(raw)
}

func optionalPriority(raw string) (task.Priority, error) {
	if raw == "" {
		return "", nil
	}
	return task.ParsePriority(raw)
}

func parseLocation(raw string) (*time.Location, error) {
	if raw == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(raw)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q", raw)
	}
	return loc, nil
}

// parseTime accepts RFC3339 timestamps and YYYY-MM-DD dates, the latter as
// midnight in loc.
func parseTime(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dayLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD or RFC3339, got %q", raw)
	}
	return t, nil
}
