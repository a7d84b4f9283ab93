package notification

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kazz187/taskdash/internal/role"
	"github.com/kazz187/taskdash/pkg/cerr"
	"github.com/kazz187/taskdash/pkg/paging"
)

type Server struct {
	repo Repository
}

func NewServer(repo Repository) *Server {
	return &Server{repo: repo}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/notifications", s.list)
	r.Put("/notifications/read-all", s.readAll)
	r.Put("/notifications/{notificationID}/read", s.read)
	r.Delete("/notifications/{notificationID}", s.delete)
}

type readAllResponse struct {
	Updated int `json:"updated"`
}

func principal(r *http.Request) (*role.Principal, error) {
	p := role.PrincipalFromContext(r.Context())
	if p == nil {
		return nil, role.DecisionError(role.Evaluate(nil, nil))
	}
	return p, nil
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := principal(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	page, err := paging.FromRequest(r)
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, err.Error(), err)
		return
	}
	filter := ListFilter{UserID: p.UserID, UnreadOnly: r.URL.Query().Get("unread") == "true"}
	items, total, err := s.repo.List(ctx, filter, page.Limit, page.Offset)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, paging.NewList(items, total, page))
}

// own loads the notification in the path if it belongs to the caller. Other
// users' notifications are reported as missing.
func (s *Server) own(r *http.Request) (*Notification, error) {
	p, err := principal(r)
	if err != nil {
		return nil, err
	}
	n, err := s.repo.Get(r.Context(), chi.URLParam(r, "notificationID"))
	if err != nil {
		return nil, err
	}
	if n.UserID != p.UserID {
		return nil, cerr.NewError(cerr.NotFound, "notification not found", nil)
	}
	return n, nil
}

func (s *Server) read(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := s.own(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if !n.Read {
		n.Read = true
		if err := s.repo.Update(ctx, n); err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
	}
	cerr.SetJSONResponse(ctx, n)
}

func (s *Server) readAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := principal(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	updated, err := s.repo.MarkAllRead(ctx, p.UserID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, readAllResponse{Updated: updated})
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := s.own(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if err := s.repo.Delete(ctx, n.ID); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetNoContent(ctx)
}
