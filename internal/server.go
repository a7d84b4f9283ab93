package internal

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"connectrpc.com/grpchealth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kazz187/taskdash/internal/auth"
	"github.com/kazz187/taskdash/internal/config"
	"github.com/kazz187/taskdash/internal/event"
	"github.com/kazz187/taskdash/internal/notification"
	"github.com/kazz187/taskdash/internal/project"
	"github.com/kazz187/taskdash/internal/pushnotification"
	"github.com/kazz187/taskdash/internal/role"
	"github.com/kazz187/taskdash/internal/task"
	"github.com/kazz187/taskdash/internal/user"
	"github.com/kazz187/taskdash/internal/viewmodel"
	"github.com/kazz187/taskdash/pkg/cerr"
	"github.com/kazz187/taskdash/pkg/clog"
	"github.com/kazz187/taskdash/pkg/metrics"
)

// Servers groups the route handlers mounted under /api. ActivityServer is
// optional.
type Servers struct {
	Access           *role.Server
	Project          *project.Server
	Task             *task.Server
	User             *user.Server
	Notification     *notification.Server
	View             *viewmodel.Server
	Event            *event.Server
	Activity         *event.LogServer
	PushNotification *pushnotification.Server
}

type Server struct {
	server   *http.Server
	env      *config.BaseEnv
	metrics  *metrics.Metrics
	issuer   *auth.TokenIssuer
	resolver auth.PrincipalResolver
	gate     *role.Gate
	servers  Servers
}

func NewServer(
	env *config.BaseEnv,
	m *metrics.Metrics,
	issuer *auth.TokenIssuer,
	resolver auth.PrincipalResolver,
	gate *role.Gate,
	servers Servers,
) *Server {
	return &Server{
		env:      env,
		metrics:  m,
		issuer:   issuer,
		resolver: resolver,
		gate:     gate,
		servers:  servers,
	}
}

// Handler builds the complete HTTP handler without CORS or h2c.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		clog.SlogChiMiddleware(),
		s.metrics.ChiMiddleware,
		auth.Middleware(s.issuer, s.resolver),
	)

	r.Route("/api", func(r chi.Router) {
		// The event stream writes its own responses.
		r.Group(s.servers.Event.Routes)

		r.Group(func(r chi.Router) {
			r.Use(cerr.NewJSONResponseChiMiddleware())
			r.NotFound(func(w http.ResponseWriter, r *http.Request) {
				cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
			})

			s.servers.Access.Routes(r)
			s.servers.User.Routes(r)
			s.gated(r, "projects", s.servers.Project.Routes)
			s.gated(r, "tasks", s.servers.Task.Routes)
			s.gated(r, "notifications", s.servers.Notification.Routes)
			s.gated(r, "notifications", s.servers.PushNotification.Routes)
			s.gated(r, "dashboard", s.servers.View.Routes)
			if s.servers.Activity != nil {
				s.gated(r, "reports", s.servers.Activity.Routes)
			}
		})
	})

	mux := http.NewServeMux()
	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/metrics", s.metrics.Handler())
	mux.Handle(grpchealth.NewHandler(grpchealth.NewStaticChecker()))
	mux.Handle("/api/", r)
	return mux
}

func (s *Server) gated(r chi.Router, page string, routes func(chi.Router)) {
	r.Group(func(r chi.Router) {
		r.Use(s.gate.Require(page))
		routes(r)
	})
}

// ListenAndServe starts the HTTP server. ctx becomes the base context of
// every request, so cancelling it also ends open event streams.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr: addr,
		Handler: h2c.NewHandler(cors.New(cors.Options{
			AllowedOrigins:   s.env.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
		}).Handler(s.Handler()), &http2.Server{}),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
