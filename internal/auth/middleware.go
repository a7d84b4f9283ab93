package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/kazz187/taskdash/internal/role"
	"github.com/kazz187/taskdash/pkg/cerr"
	"github.com/kazz187/taskdash/pkg/clog"
)

type PrincipalResolver interface {
	Resolve(ctx context.Context, userID string) *role.Principal
}

// Middleware attaches the principal of a valid bearer token to the request
// context. Requests without a token pass through anonymously and are turned
// away by the access gate of the page they ask for.
func Middleware(issuer *TokenIssuer, resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := issuer.Parse(token)
			if err != nil {
				cErr := cerr.NewError(cerr.Unauthenticated, role.SignInMessage, err)
				cErr.Redirect = role.LoginPage
				cerr.RespondError(r.Context(), w, cErr)
				return
			}
			p := resolver.Resolve(r.Context(), userID)
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			clog.AddUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(role.ContextWithPrincipal(r.Context(), p)))
		})
	}
}

// bearerToken also accepts an access_token query parameter because
// EventSource cannot set headers.
func bearerToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, found := strings.Cut(h, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", true
		}
		return strings.TrimSpace(token), true
	}
	if token := r.URL.Query().Get("access_token"); token != "" {
		return token, true
	}
	return "", false
}
