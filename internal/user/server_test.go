package user

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/taskdash/internal/eventbus"
	"github.com/kazz187/taskdash/internal/role"
	"github.com/kazz187/taskdash/pkg/cerr"
	"github.com/kazz187/taskdash/pkg/paging"
)

type memRepo struct {
	mu    sync.Mutex
	users map[string]*User
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[string]*User{}}
}

func (r *memRepo) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.users {
		if other.Email == u.Email && other.ID != u.ID {
			return cerr.NewError(cerr.AlreadyExists, "a user with this email already exists", nil)
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memRepo) Get(_ context.Context, id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "user not found", nil)
	}
	cp := *u
	return &cp, nil
}

func (r *memRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, cerr.NewError(cerr.NotFound, "user not found", nil)
}

func (r *memRepo) List(_ context.Context, limit, offset int) ([]*User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *User) int { return strings.Compare(a.ID, b.ID) })
	items, total := paging.Slice(out, limit, offset)
	return items, total, nil
}

func (r *memRepo) Update(ctx context.Context, u *User) error {
	if _, err := r.Get(ctx, u.ID); err != nil {
		return err
	}
	return r.Create(ctx, u)
}

func (r *memRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

type fixture struct {
	repo    *memRepo
	handler http.Handler
}

func newFixture(t *testing.T, users ...*User) *fixture {
	t.Helper()
	repo := newMemRepo()
	for _, u := range users {
		require.NoError(t, repo.Create(context.Background(), u))
	}
	r := chi.NewRouter()
	r.Use(cerr.NewJSONResponseChiMiddleware())
	NewServer(repo, role.NewGate(role.DefaultPolicy(), nil), eventbus.New()).Routes(r)
	return &fixture{repo: repo, handler: r}
}

func (f *fixture) do(t *testing.T, as *role.Principal, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if as != nil {
		req = req.WithContext(role.ContextWithPrincipal(req.Context(), as))
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

var (
	staff   = &role.Principal{UserID: "01STAFF", Role: role.Staff}
	manager = &role.Principal{UserID: "02MANAGER", Role: role.Manager}
)

func seedUsers() []*User {
	return []*User{
		{ID: "01STAFF", Name: "John", Email: "john@example.com", Role: role.Staff},
		{ID: "02MANAGER", Name: "Mary", Email: "mary@example.com", Role: role.Manager},
		{ID: "03HR", Name: "Alice Johnson", Email: "alice@example.com", Role: role.HR},
	}
}

func TestCreate_FirstUserNeedsNoLogin(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, nil, http.MethodPost, "/users", CreateRequest{Name: "Root", Email: " Root@Example.com ", Role: "hr"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var u User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, "root@example.com", u.Email)
	assert.Equal(t, role.HR, u.Role)

	rec = f.do(t, nil, http.MethodPost, "/users", CreateRequest{Name: "Second", Email: "second@example.com"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreate_ConcurrentBootstrap(t *testing.T) {
	f := newFixture(t)

	const n = 8
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		body := fmt.Sprintf(`{"name":"Root","email":"root%d@example.com","role":"hr"}`, i)
		go func() {
			defer wg.Done()
			rec := httptest.NewRecorder()
			f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body)))
			codes[i] = rec.Code
		}()
	}
	wg.Wait()

	created := 0
	for _, code := range codes {
		if code == http.StatusCreated {
			created++
		} else {
			assert.Equal(t, http.StatusUnauthorized, code)
		}
	}
	assert.Equal(t, 1, created)
	_, total, err := f.repo.List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name       string
		as         *role.Principal
		req        CreateRequest
		wantStatus int
		wantRole   role.Role
	}{
		{"staff may not create users", staff, CreateRequest{Name: "X", Email: "x@example.com"}, http.StatusForbidden, ""},
		{"role defaults to staff", manager, CreateRequest{Name: "X", Email: "x@example.com"}, http.StatusCreated, role.Staff},
		{"name required", manager, CreateRequest{Email: "x@example.com"}, http.StatusBadRequest, ""},
		{"bad email", manager, CreateRequest{Name: "X", Email: "not-an-email"}, http.StatusBadRequest, ""},
		{"unknown role", manager, CreateRequest{Name: "X", Email: "x@example.com", Role: "admin"}, http.StatusBadRequest, ""},
		{"duplicate email", manager, CreateRequest{Name: "X", Email: "JOHN@example.com"}, http.StatusConflict, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, seedUsers()...)
			rec := f.do(t, tt.as, http.MethodPost, "/users", tt.req)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantRole != "" {
				var u User
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
				assert.Equal(t, tt.wantRole, u.Role)
			}
		})
	}
}

func TestList_Search(t *testing.T) {
	f := newFixture(t, seedUsers()...)

	rec := f.do(t, staff, http.MethodGet, "/users?q=JOHN", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list paging.List[*User]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Total)
	names := []string{}
	for _, u := range list.Items {
		names = append(names, u.Name)
	}
	assert.ElementsMatch(t, []string{"John", "Alice Johnson"}, names)

	rec = f.do(t, staff, http.MethodGet, "/users", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 3, list.Total)
}

func TestMe(t *testing.T) {
	f := newFixture(t, seedUsers()...)

	rec := f.do(t, staff, http.MethodGet, "/users/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var u User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, "John", u.Name)

	rec = f.do(t, nil, http.MethodGet, "/users/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"code":"unauthenticated","message":"Please sign in to continue.","redirect":"/login"}`, rec.Body.String())
}

func TestUpdate(t *testing.T) {
	newName := "Johnny"
	promote := "Manager"

	t.Run("own name", func(t *testing.T) {
		f := newFixture(t, seedUsers()...)
		rec := f.do(t, staff, http.MethodPut, "/users/01STAFF", UpdateRequest{Name: &newName})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		u, err := f.repo.Get(context.Background(), "01STAFF")
		require.NoError(t, err)
		assert.Equal(t, "Johnny", u.Name)
		assert.Equal(t, role.Staff, u.Role)
	})

	t.Run("own role needs the admin page", func(t *testing.T) {
		f := newFixture(t, seedUsers()...)
		rec := f.do(t, staff, http.MethodPut, "/users/01STAFF", UpdateRequest{Role: &promote})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("someone else", func(t *testing.T) {
		f := newFixture(t, seedUsers()...)
		rec := f.do(t, staff, http.MethodPut, "/users/03HR", UpdateRequest{Name: &newName})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = f.do(t, manager, http.MethodPut, "/users/01STAFF", UpdateRequest{Role: &promote})
		require.Equal(t, http.StatusOK, rec.Code)
		u, err := f.repo.Get(context.Background(), "01STAFF")
		require.NoError(t, err)
		assert.Equal(t, role.Manager, u.Role)
	})
}

func TestDelete(t *testing.T) {
	f := newFixture(t, seedUsers()...)

	rec := f.do(t, staff, http.MethodDelete, "/users/03HR", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, manager, http.MethodDelete, "/users/03HR", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, manager, http.MethodDelete, "/users/03HR", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLookupRole(t *testing.T) {
	f := newFixture(t, seedUsers()...)
	s := NewServer(f.repo, role.NewGate(role.DefaultPolicy(), nil), eventbus.New())

	r, err := s.LookupRole(context.Background(), "03HR")
	require.NoError(t, err)
	assert.Equal(t, role.HR, r)

	_, err = s.LookupRole(context.Background(), "missing")
	assert.True(t, cerr.IsCode(err, cerr.NotFound))

	resolver := role.NewResolver(s.LookupRole)
	assert.Equal(t, role.HR, resolver.Resolve(context.Background(), "03HR").Role)
	assert.Nil(t, resolver.Resolve(context.Background(), "missing"), "deleted users are signed out")
}
