package role

import (
	"net/http"

	"github.com/kazz187/taskdash/pkg/cerr"
	"github.com/kazz187/taskdash/pkg/metrics"
)

// Gate applies a Policy to requests.
type Gate struct {
	policy  *Policy
	metrics *metrics.Metrics
}

func NewGate(policy *Policy, m *metrics.Metrics) *Gate {
	return &Gate{policy: policy, metrics: m}
}

func (g *Gate) Decide(r *http.Request, page string) Decision {
	d := g.policy.Decide(PrincipalFromContext(r.Context()), page)
	if g.metrics != nil {
		g.metrics.AccessDecisions.WithLabelValues(page, string(d.State)).Inc()
	}
	return d
}

// Require rejects requests whose principal may not open page.
func (g *Gate) Require(page string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := DecisionError(g.Decide(r, page)); err != nil {
				cerr.RespondError(r.Context(), w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// DecisionError converts a denied decision into the error rendered to the
// client, or nil when the decision allows access.
func DecisionError(d Decision) error {
	switch d.State {
	case Authorized:
		return nil
	case Unauthenticated:
		return cerr.NewRedirectError(cerr.Unauthenticated, d.Message, d.Redirect)
	default:
		return cerr.NewRedirectError(cerr.PermissionDenied, d.Message, d.Redirect)
	}
}
