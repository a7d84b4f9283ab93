package repositoryimpl

import (
	"context"
	"sync"

	"github.com/kazz187/taskdash/internal/user"
	"github.com/kazz187/taskdash/pkg/cerr"
	"github.com/kazz187/taskdash/pkg/paging"
	"github.com/kazz187/taskdash/pkg/storage"
	"github.com/kazz187/taskdash/pkg/yamlstore"
)

const usersPrefix = "users"

type YAMLRepository struct {
	// mu serializes writes so the email uniqueness check holds.
	mu   sync.Mutex
	docs *yamlstore.Collection[user.User]
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{docs: yamlstore.NewCollection[user.User](s, usersPrefix, "user")}
}

func (r *YAMLRepository) Create(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkEmail(ctx, u); err != nil {
		return err
	}
	return r.docs.Create(ctx, u.ID, u)
}

func (r *YAMLRepository) checkEmail(ctx context.Context, u *user.User) error {
	existing, err := r.GetByEmail(ctx, u.Email)
	if cerr.IsCode(err, cerr.NotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != u.ID {
		return cerr.NewError(cerr.AlreadyExists, "a user with this email already exists", nil)
	}
	return nil
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*user.User, error) {
	return r.docs.Get(ctx, id)
}

func (r *YAMLRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	all, err := r.docs.All(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range all {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, cerr.NewError(cerr.NotFound, "user not found", nil)
}

func (r *YAMLRepository) List(ctx context.Context, limit, offset int) ([]*user.User, int, error) {
	all, err := r.docs.All(ctx)
	if err != nil {
		return nil, 0, err
	}
	items, total := paging.Slice(all, limit, offset)
	return items, total, nil
}

func (r *YAMLRepository) Update(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkEmail(ctx, u); err != nil {
		return err
	}
	return r.docs.Update(ctx, u.ID, u)
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	return r.docs.Delete(ctx, id)
}
