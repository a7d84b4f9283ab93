package project

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/kazz187/taskdash/internal/eventbus"
	"github.com/kazz187/taskdash/internal/role"
	"github.com/kazz187/taskdash/internal/task"
	"github.com/kazz187/taskdash/pkg/cerr"
	"github.com/kazz187/taskdash/pkg/paging"
)

// MemberAdded is the payload of project.member_added events.
type MemberAdded struct {
	Project  *Project `json:"project"`
	MemberID string   `json:"member_id"`
}

type Server struct {
	repo     Repository
	taskRepo task.Repository
	eventBus *eventbus.Bus
	now      func() time.Time
}

func NewServer(repo Repository, taskRepo task.Repository, eventBus *eventbus.Bus) *Server {
	return &Server{
		repo:     repo,
		taskRepo: taskRepo,
		eventBus: eventBus,
		now:      time.Now,
	}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/projects", s.list)
	r.Post("/projects", s.create)
	r.Get("/projects/{projectID}", s.get)
	r.Put("/projects/{projectID}", s.update)
	r.Delete("/projects/{projectID}", s.delete)
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
	memberID := r.URL.Query().Get("member")
	if r.URL.Query().Get("mine") == "true" {
		memberID = actorID(ctx)
	}
	projects, total, err := s.repo.List(ctx, memberID, page.Limit, page.Offset)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, paging.NewList(projects, total, page))
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	p, err := s.repo.Get(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}
	cerr.SetJSONResponse(r.Context(), p)
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
	now := s.now().UTC()
	p := &Project{
		ID:            ulid.Make().String(),
		Name:          req.Name,
		Description:   req.Description,
		Status:        req.Status,
		Priority:      req.Priority,
		OwnerID:       actorID(ctx),
		TeamMemberIDs: uniqueIDs(req.TeamMemberIDs),
		DueDate:       req.DueDate,
		TaskIDs:       []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.eventBus.PublishNew(eventbus.ProjectCreated, p.ID, p.ID, p.OwnerID, p)
	s.announceMembers(ctx, p, p.TeamMemberIDs)
	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, p)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := s.repo.Get(ctx, chi.URLParam(r, "projectID"))
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
	prevMembers := p.TeamMemberIDs
	req.Apply(p)
	p.TeamMemberIDs = uniqueIDs(p.TeamMemberIDs)
	p.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.eventBus.PublishNew(eventbus.ProjectUpdated, p.ID, p.ID, actorID(ctx), p)
	s.announceMembers(ctx, p, AddedMembers(prevMembers, p.TeamMemberIDs))
	cerr.SetJSONResponse(ctx, p)
}

func (s *Server) announceMembers(ctx context.Context, p *Project, members []string) {
	for _, id := range members {
		s.eventBus.PublishNew(eventbus.ProjectMemberAdded, p.ID, p.ID, actorID(ctx), MemberAdded{Project: p, MemberID: id})
	}
}

// delete removes the project together with its tasks.
func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := s.repo.Get(ctx, chi.URLParam(r, "projectID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	tasks, _, err := s.taskRepo.List(ctx, task.ListFilter{ProjectID: p.ID}, 0, 0)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	for _, t := range tasks {
		if err := s.taskRepo.Delete(ctx, t.ID); err != nil && !cerr.IsCode(err, cerr.NotFound) {
			cerr.SetJSONError(ctx, err)
			return
		}
		s.eventBus.PublishNew(eventbus.TaskDeleted, t.ID, p.ID, actorID(ctx), task.Change{Task: t})
	}
	if err := s.repo.Delete(ctx, p.ID); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.eventBus.PublishNew(eventbus.ProjectDeleted, p.ID, p.ID, actorID(ctx), p)
	cerr.SetNoContent(ctx)
}

func uniqueIDs(ids []string) []string {
	if out := AddedMembers(nil, ids); out != nil {
		return out
	}
	return []string{}
}
