package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kazz187/taskdash/internal/config"
	"github.com/kazz187/taskdash/internal/notification"
	notificationrepo "github.com/kazz187/taskdash/internal/notification/repositoryimpl"
	"github.com/kazz187/taskdash/internal/project"
	projectrepo "github.com/kazz187/taskdash/internal/project/repositoryimpl"
	"github.com/kazz187/taskdash/internal/pushsubscription"
	pushsubrepo "github.com/kazz187/taskdash/internal/pushsubscription/repositoryimpl"
	"github.com/kazz187/taskdash/internal/task"
	taskrepo "github.com/kazz187/taskdash/internal/task/repositoryimpl"
	"github.com/kazz187/taskdash/internal/user"
	userrepo "github.com/kazz187/taskdash/internal/user/repositoryimpl"
	"github.com/kazz187/taskdash/pkg/mongodb"
	"github.com/kazz187/taskdash/pkg/storage"
)

type repositories struct {
	tasks             task.Repository
	projects          project.Repository
	users             user.Repository
	notifications     notification.Repository
	pushSubscriptions pushsubscription.Repository
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// openRepos is replaced in tests.
var openRepos = openRepositories

// openRepositories builds the repositories for the configured storage type.
// The returned func releases the backing connection.
func openRepositories(ctx context.Context, env *config.StorageEnv) (*repositories, func(), error) {
	switch env.Type {
	case "mongo":
		client, err := mongodb.Connect(ctx, env.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				slog.Warn("failed to disconnect from mongodb", "error", err)
			}
		}
		db := client.Database(env.MongoDatabase)
		tasks := taskrepo.NewMongoRepository(db)
		projects := projectrepo.NewMongoRepository(db)
		users := userrepo.NewMongoRepository(db)
		notifications := notificationrepo.NewMongoRepository(db)
		pushSubs := pushsubrepo.NewMongoRepository(db)
		for _, ix := range []indexer{tasks, projects, users, notifications, pushSubs} {
			if err := ix.EnsureIndexes(ctx); err != nil {
				closeFn()
				return nil, nil, fmt.Errorf("failed to create indexes: %w", err)
			}
		}
		slog.Info("using mongodb storage", "database", env.MongoDatabase)
		return &repositories{
			tasks:             tasks,
			projects:          projects,
			users:             users,
			notifications:     notifications,
			pushSubscriptions: pushSubs,
		}, closeFn, nil

	case "s3", "local", "":
		var store storage.Storage
		var err error
		if env.Type == "s3" {
			store, err = storage.NewS3Storage(ctx, env.S3Bucket, env.S3Prefix, env.S3Region)
		} else {
			store, err = storage.NewLocalStorage(env.BaseDir)
		}
		if err != nil {
			return nil, nil, err
		}
		return &repositories{
			tasks:             taskrepo.NewYAMLRepository(store),
			projects:          projectrepo.NewYAMLRepository(store),
			users:             userrepo.NewYAMLRepository(store),
			notifications:     notificationrepo.NewYAMLRepository(store),
			pushSubscriptions: pushsubrepo.NewYAMLRepository(store),
		}, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage type %q", env.Type)
	}
}
