package project_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/taskdash/internal/eventbus"
	"github.com/kazz187/taskdash/internal/project"
	projectrepo "github.com/kazz187/taskdash/internal/project/repositoryimpl"
	"github.com/kazz187/taskdash/internal/role"
	"github.com/kazz187/taskdash/internal/task"
	taskrepo "github.com/kazz187/taskdash/internal/task/repositoryimpl"
	"github.com/kazz187/taskdash/pkg/cerr"
	"github.com/kazz187/taskdash/pkg/paging"
	"github.com/kazz187/taskdash/pkg/storage"
)

type env struct {
	handler  http.Handler
	tasks    *taskrepo.YAMLRepository
	projects *projectrepo.YAMLRepository
	sub      *eventbus.Subscription
}

func newEnv(t *testing.T) *env {
	t.Helper()
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	e := &env{
		tasks:    taskrepo.NewYAMLRepository(s),
		projects: projectrepo.NewYAMLRepository(s),
	}
	bus := eventbus.New()
	e.sub = bus.Subscribe(64)
	t.Cleanup(e.sub.Close)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := role.ContextWithPrincipal(r.Context(), &role.Principal{UserID: "alice", Role: role.Manager})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	r.Use(cerr.NewJSONResponseChiMiddleware())
	project.NewServer(e.projects, e.tasks, bus).Routes(r)
	task.NewServer(e.tasks, project.NewLinker(e.projects, e.tasks), bus, nil).Routes(r)
	e.handler = r
	return e
}

func (e *env) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	if out != nil && rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func (e *env) drain() []eventbus.Event {
	var out []eventbus.Event
	for {
		select {
		case ev := <-e.sub.C:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestProjectLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	var p project.Project
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/projects", map[string]any{
		"name":            "Website",
		"team_member_ids": []string{"bob", "bob", "carol"},
	}, &p))
	assert.Equal(t, "alice", p.OwnerID)
	assert.Equal(t, []string{"bob", "carol"}, p.TeamMemberIDs)
	assert.Equal(t, task.PriorityMedium, p.Priority)
	assert.Equal(t, task.StatusTodo, p.Status)

	var created []eventbus.Type
	for _, ev := range e.drain() {
		created = append(created, ev.Type)
	}
	assert.Equal(t, []eventbus.Type{eventbus.ProjectCreated, eventbus.ProjectMemberAdded, eventbus.ProjectMemberAdded}, created)

	var t1, t2, t3 task.Task
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/projects/"+p.ID+"/tasks", map[string]any{"title": "One"}, &t1))
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/projects/"+p.ID+"/tasks", map[string]any{"title": "Two"}, &t2))
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/projects/"+p.ID+"/tasks", map[string]any{"title": "Three"}, &t3))
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPut, "/projects/"+p.ID+"/tasks/"+t1.ID, map[string]any{"status": "completed"}, nil))

	stored, err := e.projects.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 33, stored.Progress)
	assert.ElementsMatch(t, []string{t1.ID, t2.ID, t3.ID}, stored.TaskIDs)

	// Only newly added members are announced.
	e.drain()
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPut, "/projects/"+p.ID, map[string]any{
		"team_member_ids": []string{"carol", "dave"},
	}, nil))
	var added []string
	for _, ev := range e.drain() {
		if ev.Type == eventbus.ProjectMemberAdded {
			added = append(added, ev.Data.(project.MemberAdded).MemberID)
		}
	}
	assert.Equal(t, []string{"dave"}, added)

	// Deleting the project removes its tasks.
	require.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, "/projects/"+p.ID, nil, nil))
	remaining, total, err := e.tasks.List(ctx, task.ListFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, remaining)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/projects/"+p.ID, nil, nil))

	var deletedTasks int
	for _, ev := range e.drain() {
		if ev.Type == eventbus.TaskDeleted {
			deletedTasks++
		}
	}
	assert.Equal(t, 3, deletedTasks)
}

func TestProjectList_Mine(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for _, p := range []*project.Project{
		{ID: "p1", Name: "Owned", OwnerID: "alice"},
		{ID: "p2", Name: "Shared", OwnerID: "bob", TeamMemberIDs: []string{"alice"}},
		{ID: "p3", Name: "Other", OwnerID: "bob"},
	} {
		require.NoError(t, e.projects.Create(ctx, p))
	}

	var all, mine paging.List[*project.Project]
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/projects", nil, &all))
	assert.Equal(t, 3, all.Total)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/projects?mine=true", nil, &mine))
	assert.Equal(t, 2, mine.Total)
}

func TestProjectValidation(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.projects.Create(context.Background(), &project.Project{ID: "p1", Name: "Website"}))

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{name: "blank name", method: http.MethodPost, path: "/projects", body: map[string]any{"name": "  "}, want: http.StatusBadRequest},
		{name: "bad priority", method: http.MethodPost, path: "/projects", body: map[string]any{"name": "x", "priority": 42}, want: http.StatusBadRequest},
		{name: "rename to blank", method: http.MethodPut, path: "/projects/p1", body: map[string]any{"name": ""}, want: http.StatusBadRequest},
		{name: "unknown project", method: http.MethodPut, path: "/projects/nope", body: map[string]any{"name": "x"}, want: http.StatusNotFound},
		{name: "tasks of unknown project", method: http.MethodGet, path: "/projects/nope/tasks", want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.do(t, tt.method, tt.path, tt.body, nil))
		})
	}
}
