package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/taskdash/internal/role"
	"github.com/kazz187/taskdash/pkg/cerr"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", "taskdash", time.Hour)
	token, err := issuer.Issue("01HUSER")
	require.NoError(t, err)

	userID, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "01HUSER", userID)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer := NewTokenIssuer("secret", "taskdash", time.Hour)
	token, err := issuer.Issue("u1")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokenIssuer("other", "taskdash", time.Hour).Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("wrong issuer", func(t *testing.T) {
		_, err := NewTokenIssuer("secret", "someone-else", time.Hour).Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("expired", func(t *testing.T) {
		late := NewTokenIssuer("secret", "taskdash", time.Hour)
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("empty user", func(t *testing.T) {
		_, err := issuer.Issue("")
		assert.Error(t, err)
	})
}

type staticResolver role.Role

func (s staticResolver) Resolve(_ context.Context, userID string) *role.Principal {
	return &role.Principal{UserID: userID, Role: role.Role(s)}
}

func TestMiddleware(t *testing.T) {
	issuer := NewTokenIssuer("secret", "taskdash", time.Hour)
	token, err := issuer.Issue("u1")
	require.NoError(t, err)

	var got *role.Principal
	handler := cerr.NewJSONResponseChiMiddleware()(Middleware(issuer, staticResolver(role.Manager))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = role.PrincipalFromContext(r.Context())
			cerr.SetNoContent(r.Context())
		}),
	))

	tests := []struct {
		name       string
		header     string
		query      string
		wantStatus int
		want       *role.Principal
	}{
		{"anonymous", "", "", http.StatusNoContent, nil},
		{"bearer", "Bearer " + token, "", http.StatusNoContent, &role.Principal{UserID: "u1", Role: role.Manager}},
		{"query token", "", "?access_token=" + token, http.StatusNoContent, &role.Principal{UserID: "u1", Role: role.Manager}},
		{"bad token", "Bearer nope", "", http.StatusUnauthorized, nil},
		{"bad scheme", "Basic abc", "", http.StatusUnauthorized, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = nil
			req := httptest.NewRequest(http.MethodGet, "/api/tasks"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.want, got)
		})
	}
}

type deletedResolver struct{}

func (deletedResolver) Resolve(context.Context, string) *role.Principal { return nil }

func TestMiddleware_DeletedUser(t *testing.T) {
	issuer := NewTokenIssuer("secret", "taskdash", time.Hour)
	token, err := issuer.Issue("gone")
	require.NoError(t, err)

	var got *role.Principal
	handler := Middleware(issuer, deletedResolver{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = role.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, got)
}
