package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChiMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.ChiMiddleware)
	r.Get("/api/tasks/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks/"+id, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.InDelta(t, 3, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/api/tasks/{id}", "200")), 0)
}

func TestHandler_ExposesDomainCounters(t *testing.T) {
	m := New()
	m.TasksCreated.Inc()
	m.NotificationsSent.WithLabelValues("deadline").Add(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "taskdash_tasks_created_total 1"))
	assert.True(t, strings.Contains(body, `taskdash_notifications_created_total{type="deadline"} 2`))
}
