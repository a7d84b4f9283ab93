package notification

import "context"

type ListFilter struct {
	UserID     string
	UnreadOnly bool
}

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	Get(ctx context.Context, id string) (*Notification, error)
	// List returns matches newest first.
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Notification, int, error)
	Update(ctx context.Context, n *Notification) error
	Delete(ctx context.Context, id string) error
	// MarkAllRead marks every unread notification of userID and reports how
	// many changed.
	MarkAllRead(ctx context.Context, userID string) (int, error)
	// ExistsByKey reports whether userID already has a notification with key.
	ExistsByKey(ctx context.Context, userID, key string) (bool, error)
}

func (f ListFilter) Match(n *Notification) bool {
	if f.UserID != "" && n.UserID != f.UserID {
		return false
	}
	if f.UnreadOnly && n.Read {
		return false
	}
	return true
}
