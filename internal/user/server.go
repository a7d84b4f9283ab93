package user

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/kazz187/taskdash/internal/eventbus"
	"github.com/kazz187/taskdash/internal/role"
	"github.com/kazz187/taskdash/internal/viewmodel"
	"github.com/kazz187/taskdash/pkg/cerr"
	"github.com/kazz187/taskdash/pkg/paging"
)

const (
	// adminPage is the page whose roles may manage other users.
	adminPage = "users"
	// profilePage admits every signed-in user.
	profilePage = "profile"
)

type Server struct {
	repo     Repository
	gate     *role.Gate
	eventBus *eventbus.Bus
	now      func() time.Time

	// createMu keeps the empty-store check and the insert of the first user
	// atomic.
	createMu sync.Mutex
}

func NewServer(repo Repository, gate *role.Gate, eventBus *eventbus.Bus) *Server {
	return &Server{repo: repo, gate: gate, eventBus: eventBus, now: time.Now}
}

// Routes registers the user endpoints. Only POST /users is reachable without
// signing in, and only until the first user exists.
func (s *Server) Routes(r chi.Router) {
	r.Post("/users", s.create)
	r.Group(func(r chi.Router) {
		r.Use(s.gate.Require(profilePage))
		r.Get("/users", s.list)
		r.Get("/users/me", s.me)
		r.Get("/users/{userID}", s.get)
		r.Put("/users/{userID}", s.update)
		r.With(s.gate.Require(adminPage)).Delete("/users/{userID}", s.delete)
	})
}

// LookupRole resolves a user's stored role for role.Resolver.
func (s *Server) LookupRole(ctx context.Context, userID string) (role.Role, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

func (s *Server) isAdmin(r *http.Request) bool {
	return s.gate.Decide(r, adminPage).Allowed()
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := paging.FromRequest(r)
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, err.Error(), err)
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		users, total, err := s.repo.List(ctx, page.Limit, page.Offset)
		if err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
		cerr.SetJSONResponse(ctx, paging.NewList(users, total, page))
		return
	}
	all, _, err := s.repo.List(ctx, 0, 0)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	matched := viewmodel.Search(all, q)
	items, total := paging.Slice(matched, page.Limit, page.Offset)
	cerr.SetJSONResponse(ctx, paging.NewList(items, total, page))
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := role.PrincipalFromContext(ctx)
	if p == nil {
		cerr.SetJSONError(ctx, role.DecisionError(role.Evaluate(nil, nil)))
		return
	}
	u, err := s.repo.Get(ctx, p.UserID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, u)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	u, err := s.repo.Get(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}
	cerr.SetJSONResponse(r.Context(), u)
}

type CreateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type UpdateRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Role  *string `json:"role"`
}

// create is open to anyone while no user exists, so that a fresh install can
// register its first administrator. After that it requires the admin page.
func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.createMu.Lock()
	defer s.createMu.Unlock()
	_, total, err := s.repo.List(ctx, 1, 0)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if total > 0 {
		if err := role.DecisionError(s.gate.Decide(r, adminPage)); err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, fmt.Sprintf("invalid request body: %v", err), err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "name is required", nil)
		return
	}
	email, err := NormalizeEmail(req.Email)
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, err.Error(), err)
		return
	}
	ro := role.Staff
	if req.Role != "" {
		if ro, err = role.ParseRole(req.Role); err != nil {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, err.Error(), err)
			return
		}
	}

	now := s.now().UTC()
	u := &User{
		ID:        ulid.Make().String(),
		Name:      name,
		Email:     email,
		Role:      ro,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.eventBus.PublishNew(eventbus.UserCreated, u.ID, "", actorOf(ctx), u)
	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, u)
}

// update lets users edit their own name and email. Other users and roles can
// only be changed from the admin page.
func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "userID")
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, fmt.Sprintf("invalid request body: %v", err), err)
		return
	}
	if actorOf(ctx) != id || req.Role != nil {
		if err := role.DecisionError(s.gate.Decide(r, adminPage)); err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
	}

	u, err := s.repo.Get(ctx, id)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "name must not be empty", nil)
			return
		}
		u.Name = name
	}
	if req.Email != nil {
		email, err := NormalizeEmail(*req.Email)
		if err != nil {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, err.Error(), err)
			return
		}
		u.Email = email
	}
	if req.Role != nil {
		ro, err := role.ParseRole(*req.Role)
		if err != nil {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, err.Error(), err)
			return
		}
		u.Role = ro
	}
	u.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, u); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.eventBus.PublishNew(eventbus.UserUpdated, u.ID, "", actorOf(ctx), u)
	cerr.SetJSONResponse(ctx, u)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "userID")
	if err := s.repo.Delete(ctx, id); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.eventBus.PublishNew(eventbus.UserDeleted, id, "", actorOf(ctx), nil)
	cerr.SetNoContent(ctx)
}

func actorOf(ctx context.Context) string {
	if p := role.PrincipalFromContext(ctx); p != nil {
		return p.UserID
	}
	return ""
}
