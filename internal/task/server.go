package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/kazz187/taskdash/internal/eventbus"
	"github.com/kazz187/taskdash/internal/role"
	"github.com/kazz187/taskdash/pkg/cerr"
	"github.com/kazz187/taskdash/pkg/metrics"
	"github.com/kazz187/taskdash/pkg/paging"
)

// ProjectLinker connects tasks to the project they belong to.
type ProjectLinker interface {
	// CheckProject fails with a NotFound error when the project does not exist.
	CheckProject(ctx context.Context, projectID string) error
	// SyncProject recomputes the task list and progress of the project.
	SyncProject(ctx context.Context, projectID string) error
}

// Change is the payload of task events.
type Change struct {
	Task     *Task `json:"task"`
	Previous *Task `json:"previous,omitempty"`
}

type Server struct {
	repo     Repository
	projects ProjectLinker
	eventBus *eventbus.Bus
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewServer(repo Repository, projects ProjectLinker, eventBus *eventbus.Bus, m *metrics.Metrics) *Server {
	return &Server{
		repo:     repo,
		projects: projects,
		eventBus: eventBus,
		metrics:  m,
		now:      time.Now,
	}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/projects/{projectID}/tasks", s.list)
	r.Post("/projects/{projectID}/tasks", s.create)
	r.Get("/projects/{projectID}/tasks/{taskID}", s.get)
	r.Put("/projects/{projectID}/tasks/{taskID}", s.update)
	r.Delete("/projects/{projectID}/tasks/{taskID}", s.delete)
}

// projectScope maps the {projectID} path segment to a stored ProjectID.
func projectScope(r *http.Request) string {
	id := chi.URLParam(r, "projectID")
	if id == StandaloneProjectID {
		return ""
	}
	return id
}

func actorID(ctx context.Context) string {
	if p := role.PrincipalFromContext(ctx); p != nil {
		return p.UserID
	}
	return ""
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := paging.FromRequest(r)
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, err.Error(), err)
		return
	}
	filter := ListFilter{AssigneeID: r.URL.Query().Get("assignee")}
	if projectID := projectScope(r); projectID == "" {
		filter.Standalone = true
	} else {
		if err := s.projects.CheckProject(ctx, projectID); err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
		filter.ProjectID = projectID
	}
	if v := r.URL.Query().Get("status"); v != "" {
		st, err := ParseStatus(v)
		if err != nil {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, err.Error(), err)
			return
		}
		filter.Status = st
	}
	tasks, total, err := s.repo.List(ctx, filter, page.Limit, page.Offset)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, paging.NewList(tasks, total, page))
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	t, err := s.load(r)
	if err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}
	cerr.SetJSONResponse(r.Context(), t)
}

// load fetches the task named in the path and checks that it lives in the
// project named in the path.
func (s *Server) load(r *http.Request) (*Task, error) {
	t, err := s.repo.Get(r.Context(), chi.URLParam(r, "taskID"))
	if err != nil {
		return nil, err
	}
	if t.ProjectID != projectScope(r) {
		return nil, cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	return t, nil
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, fmt.Sprintf("invalid request body: %v", err), err)
		return
	}
	if err := req.Validate(); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, err.Error(), err)
		return
	}
	projectID := projectScope(r)
	if projectID != "" {
		if err := s.projects.CheckProject(ctx, projectID); err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
	}

	now := s.now().UTC()
	t := &Task{
		ID:              ulid.Make().String(),
		ProjectID:       projectID,
		Title:           req.Title,
		Description:     req.Description,
		Status:          req.Status,
		Priority:        req.Priority,
		DueDate:         req.DueDate,
		OwnerID:         actorID(ctx),
		AssigneeID:      req.AssigneeID,
		CollaboratorIDs: req.CollaboratorIDs,
		Tags:            req.Tags,
		Recurrence:      req.Recurrence,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Create(ctx, t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, t)
}

// Create stores t and announces it. It is also used to store spawned
// recurrences.
func (s *Server) Create(ctx context.Context, t *Task) error {
	if err := s.repo.Create(ctx, t); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.TasksCreated.Inc()
	}
	s.syncProject(ctx, t.ProjectID)
	s.eventBus.PublishNew(eventbus.TaskCreated, t.ID, t.ProjectID, actorID(ctx), Change{Task: t})
	return nil
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, err := s.load(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, fmt.Sprintf("invalid request body: %v", err), err)
		return
	}
	if err := req.Validate(); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, err.Error(), err)
		return
	}
	updated, err := s.Update(ctx, t, req.Apply)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, updated)
}

// Update applies mutate to a copy of t and stores it. A transition into
// completed spawns the next instance of a recurring task. The parent records
// the id of that instance, so each task spawns at most once even when it is
// reopened and completed again.
func (s *Server) Update(ctx context.Context, t *Task, mutate func(*Task)) (*Task, error) {
	prev := *t
	next := *t
	mutate(&next)
	now := s.now().UTC()
	next.UpdatedAt = now

	completed := prev.Status != StatusCompleted && next.Status == StatusCompleted
	var spawned *Task
	if completed {
		if n, ok := NextOccurrence(&next, now); ok {
			spawned = n
			next.NextOccurrenceID = spawned.ID
		}
	}
	if err := s.repo.Update(ctx, &next); err != nil {
		return nil, err
	}
	s.syncProject(ctx, next.ProjectID)

	eventType := eventbus.TaskUpdated
	if completed {
		eventType = eventbus.TaskCompleted
		if s.metrics != nil {
			s.metrics.TasksCompleted.Inc()
		}
	}
	s.eventBus.PublishNew(eventType, next.ID, next.ProjectID, actorID(ctx), Change{Task: &next, Previous: &prev})

	if spawned != nil {
		if err := s.Create(ctx, spawned); err != nil {
			// The completion stays stored. Clearing the marker lets the next
			// completion retry.
			slog.ErrorContext(ctx, "failed to create next recurrence", "task_id", next.ID, "error", err)
			next.NextOccurrenceID = ""
			if err := s.repo.Update(ctx, &next); err != nil {
				slog.ErrorContext(ctx, "failed to clear next recurrence", "task_id", next.ID, "error", err)
			}
		} else {
			if s.metrics != nil {
				s.metrics.RecurrencesSpawned.Inc()
			}
			slog.InfoContext(ctx, "spawned next recurrence", "task_id", next.ID, "next_task_id", spawned.ID, "due_date", spawned.DueDate)
		}
	}
	return &next, nil
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, err := s.load(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if err := s.repo.Delete(ctx, t.ID); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.syncProject(ctx, t.ProjectID)
	s.eventBus.PublishNew(eventbus.TaskDeleted, t.ID, t.ProjectID, actorID(ctx), Change{Task: t})
	cerr.SetNoContent(ctx)
}

func (s *Server) syncProject(ctx context.Context, projectID string) {
	if projectID == "" {
		return
	}
	if err := s.projects.SyncProject(ctx, projectID); err != nil {
		slog.WarnContext(ctx, "failed to sync project", "project_id", projectID, "error", err)
	}
}
