package role

import (
	"context"
	"fmt"
	"strings"
)

type Role string

const (
	Staff   Role = "Staff"
	Manager Role = "Manager"
	HR      Role = "HR"
)

var AllRoles = []Role{Staff, Manager, HR}

// ParseRole matches s against the known roles ignoring case and surrounding
// whitespace.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	for _, r := range AllRoles {
		if strings.EqualFold(s, string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID string
	Role   Role
}

type principalKey struct{}

func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns nil when the request is unauthenticated.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
