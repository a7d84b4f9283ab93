package role

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kazz187/taskdash/pkg/cerr"
)

type Server struct {
	gate *Gate
}

func NewServer(gate *Gate) *Server {
	return &Server{gate: gate}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/access/{page}", s.access)
}

type accessResponse struct {
	Page string `json:"page"`
	Decision
}

// access always answers 200 so that clients can render the decision.
func (s *Server) access(w http.ResponseWriter, r *http.Request) {
	page := chi.URLParam(r, "page")
	cerr.SetJSONResponse(r.Context(), accessResponse{Page: page, Decision: s.gate.Decide(r, page)})
}
