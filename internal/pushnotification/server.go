package pushnotification

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/kazz187/taskdash/internal/config"
	"github.com/kazz187/taskdash/internal/pushsubscription"
	"github.com/kazz187/taskdash/internal/role"
	"github.com/kazz187/taskdash/pkg/cerr"
)

type Server struct {
	vapidEnv *config.VAPIDEnv
	repo     pushsubscription.Repository
	sender   *Sender
}

func NewServer(vapidEnv *config.VAPIDEnv, repo pushsubscription.Repository, sender *Sender) *Server {
	return &Server{
		vapidEnv: vapidEnv,
		repo:     repo,
		sender:   sender,
	}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/push/vapid-public-key", s.vapidPublicKey)
	r.Post("/push/subscriptions", s.register)
	r.Delete("/push/subscriptions", s.unregister)
	r.Post("/push/test", s.test)
}

type vapidKeyResponse struct {
	PublicKey string `json:"public_key"`
}

type subscriptionRequest struct {
	Endpoint  string `json:"endpoint"`
	P256dhKey string `json:"p256dh_key"`
	AuthKey   string `json:"auth_key"`
}

func (s *Server) vapidPublicKey(w http.ResponseWriter, r *http.Request) {
	if s.vapidEnv.VAPIDPublicKey == "" {
		cerr.SetNewJSONError(r.Context(), cerr.FailedPrecondition, "VAPID keys not configured", nil)
		return
	}
	cerr.SetJSONResponse(r.Context(), vapidKeyResponse{PublicKey: s.vapidEnv.VAPIDPublicKey})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := role.PrincipalFromContext(ctx)
	if p == nil {
		cerr.SetJSONError(ctx, role.DecisionError(role.Evaluate(nil, nil)))
		return
	}
	var req subscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, fmt.Sprintf("invalid request body: %v", err), err)
		return
	}
	switch {
	case req.Endpoint == "":
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "endpoint is required", nil)
		return
	case req.P256dhKey == "":
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "p256dh_key is required", nil)
		return
	case req.AuthKey == "":
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "auth_key is required", nil)
		return
	}

	sub := &pushsubscription.Subscription{
		ID:        ulid.Make().String(),
		UserID:    p.UserID,
		Endpoint:  req.Endpoint,
		P256dhKey: req.P256dhKey,
		AuthKey:   req.AuthKey,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Save(ctx, sub); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetNoContent(ctx)
}

func (s *Server) unregister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req subscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, fmt.Sprintf("invalid request body: %v", err), err)
		return
	}
	if req.Endpoint == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "endpoint is required", nil)
		return
	}
	sub, err := s.repo.FindByEndpoint(ctx, req.Endpoint)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if p := role.PrincipalFromContext(ctx); p == nil || p.UserID != sub.UserID {
		cerr.SetNewJSONError(ctx, cerr.NotFound, "push subscription not found", nil)
		return
	}
	if err := s.repo.Delete(ctx, sub.ID); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetNoContent(ctx)
}

func (s *Server) test(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := role.PrincipalFromContext(ctx)
	if p == nil {
		cerr.SetJSONError(ctx, role.DecisionError(role.Evaluate(nil, nil)))
		return
	}
	if !s.sender.Enabled() {
		cerr.SetNewJSONError(ctx, cerr.FailedPrecondition, "VAPID keys not configured", nil)
		return
	}
	s.sender.SendToUser(ctx, p.UserID, &NotificationPayload{
		Title: "TaskDash Test",
		Body:  "Push notifications are working!",
	})
	cerr.SetNoContent(ctx)
}
