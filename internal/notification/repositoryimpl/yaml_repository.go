package repositoryimpl

import (
	"context"
	"slices"

	"github.com/kazz187/taskdash/internal/notification"
	"github.com/kazz187/taskdash/pkg/paging"
	"github.com/kazz187/taskdash/pkg/storage"
	"github.com/kazz187/taskdash/pkg/yamlstore"
)

const notificationsPrefix = "notifications"

type YAMLRepository struct {
	docs *yamlstore.Collection[notification.Notification]
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{docs: yamlstore.NewCollection[notification.Notification](s, notificationsPrefix, "notification")}
}

func (r *YAMLRepository) Create(ctx context.Context, n *notification.Notification) error {
	return r.docs.Create(ctx, n.ID, n)
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*notification.Notification, error) {
	return r.docs.Get(ctx, id)
}

func (r *YAMLRepository) matching(ctx context.Context, filter notification.ListFilter) ([]*notification.Notification, error) {
	all, err := r.docs.All(ctx)
	if err != nil {
		return nil, err
	}
	matched := all[:0]
	for _, n := range all {
		if filter.Match(n) {
			matched = append(matched, n)
		}
	}
	return matched, nil
}

func (r *YAMLRepository) List(ctx context.Context, filter notification.ListFilter, limit, offset int) ([]*notification.Notification, int, error) {
	matched, err := r.matching(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	// IDs are ULIDs, so reversing the id order puts the newest first.
	slices.Reverse(matched)
	items, total := paging.Slice(matched, limit, offset)
	return items, total, nil
}

func (r *YAMLRepository) Update(ctx context.Context, n *notification.Notification) error {
	return r.docs.Update(ctx, n.ID, n)
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	return r.docs.Delete(ctx, id)
}

func (r *YAMLRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	unread, err := r.matching(ctx, notification.ListFilter{UserID: userID, UnreadOnly: true})
	if err != nil {
		return 0, err
	}
	for i, n := range unread {
		n.Read = true
		if err := r.docs.Update(ctx, n.ID, n); err != nil {
			return i, err
		}
	}
	return len(unread), nil
}

func (r *YAMLRepository) ExistsByKey(ctx context.Context, userID, key string) (bool, error) {
	mine, err := r.matching(ctx, notification.ListFilter{UserID: userID})
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(mine, func(n *notification.Notification) bool { return n.DedupKey == key }), nil
}
