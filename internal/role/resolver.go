package role

import (
	"context"
	"log/slog"

	"github.com/kazz187/taskdash/pkg/cerr"
)

// LookupFunc returns the stored role of a user.
type LookupFunc func(ctx context.Context, userID string) (Role, error)

// Resolver turns an authenticated user id into a Principal.
type Resolver struct {
	lookup   LookupFunc
	fallback Role
}

func NewResolver(lookup LookupFunc) *Resolver {
	return &Resolver{lookup: lookup, fallback: Staff}
}

// Resolve returns nil for a user that no longer exists, so the request is
// treated as signed out. When the lookup fails for any other reason, or
// returns an unknown role, the principal gets the Staff role, which only opens
// pages that allow Staff.
func (r *Resolver) Resolve(ctx context.Context, userID string) *Principal {
	ro, err := r.lookup(ctx, userID)
	if cerr.IsCode(err, cerr.NotFound) {
		slog.InfoContext(ctx, "token belongs to a deleted user", "user_id", userID)
		return nil
	}
	if err != nil {
		slog.WarnContext(ctx, "role lookup failed, falling back to default role",
			"user_id", userID, "role", r.fallback, "error", err)
		return &Principal{UserID: userID, Role: r.fallback}
	}
	parsed, err := ParseRole(string(ro))
	if err != nil {
		slog.WarnContext(ctx, "stored role is invalid, falling back to default role",
			"user_id", userID, "role", r.fallback, "error", err)
		return &Principal{UserID: userID, Role: r.fallback}
	}
	return &Principal{UserID: userID, Role: parsed}
}
