package role

import "slices"

type State string

const (
	Loading         State = "loading"
	Authorized      State = "authorized"
	Unauthorized    State = "unauthorized"
	Unauthenticated State = "unauthenticated"
)

const (
	LoginPage   = "/login"
	DefaultPage = "/dashboard"

	SignInMessage        = "Please sign in to continue."
	NotAuthorizedMessage = "You are not authorized to view this page."
)

// Decision is what a page renders for a caller.
type Decision struct {
	State    State  `json:"state"`
	Message  string `json:"message,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

func (d Decision) Allowed() bool {
	return d.State == Authorized
}

// Evaluate decides whether p may open a page restricted to allowed.
func Evaluate(p *Principal, allowed []Role) Decision {
	if p == nil || p.UserID == "" {
		return Decision{State: Unauthenticated, Message: SignInMessage, Redirect: LoginPage}
	}
	if !slices.Contains(allowed, p.Role) {
		return Decision{State: Unauthorized, Message: NotAuthorizedMessage, Redirect: DefaultPage}
	}
	return Decision{State: Authorized}
}

// LoadingDecision is reported while the caller's role is still being resolved.
func LoadingDecision() Decision {
	return Decision{State: Loading}
}
