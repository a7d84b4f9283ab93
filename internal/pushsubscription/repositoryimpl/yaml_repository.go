package repositoryimpl

import (
	"context"

	"github.com/kazz187/taskdash/internal/pushsubscription"
	"github.com/kazz187/taskdash/pkg/cerr"
	"github.com/kazz187/taskdash/pkg/storage"
	"github.com/kazz187/taskdash/pkg/yamlstore"
)

const pushSubscriptionsPrefix = "push_subscriptions"

type YAMLRepository struct {
	docs *yamlstore.Collection[pushsubscription.Subscription]
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{docs: yamlstore.NewCollection[pushsubscription.Subscription](s, pushSubscriptionsPrefix, "push subscription")}
}

func (r *YAMLRepository) Save(ctx context.Context, s *pushsubscription.Subscription) error {
	existing, err := r.FindByEndpoint(ctx, s.Endpoint)
	switch {
	case err == nil:
		s.ID = existing.ID
		return r.docs.Update(ctx, s.ID, s)
	case cerr.IsCode(err, cerr.NotFound):
		return r.docs.Create(ctx, s.ID, s)
	default:
		return err
	}
}

func (r *YAMLRepository) ListByUser(ctx context.Context, userID string) ([]*pushsubscription.Subscription, error) {
	all, err := r.docs.All(ctx)
	if err != nil {
		return nil, err
	}
	var subs []*pushsubscription.Subscription
	for _, s := range all {
		if s.UserID == userID {
			subs = append(subs, s)
		}
	}
	return subs, nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	return r.docs.Delete(ctx, id)
}

func (r *YAMLRepository) FindByEndpoint(ctx context.Context, endpoint string) (*pushsubscription.Subscription, error) {
	all, err := r.docs.All(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range all {
		if s.Endpoint == endpoint {
			return s, nil
		}
	}
	return nil, cerr.NewError(cerr.NotFound, "push subscription not found", nil)
}
