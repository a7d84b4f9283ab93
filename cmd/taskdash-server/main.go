package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"

	server "github.com/kazz187/taskdash/internal"
	"github.com/kazz187/taskdash/internal/auth"
	"github.com/kazz187/taskdash/internal/config"
	"github.com/kazz187/taskdash/internal/event"
	"github.com/kazz187/taskdash/internal/eventbus"
	"github.com/kazz187/taskdash/internal/notification"
	"github.com/kazz187/taskdash/internal/project"
	"github.com/kazz187/taskdash/internal/pushnotification"
	"github.com/kazz187/taskdash/internal/reminder"
	"github.com/kazz187/taskdash/internal/role"
	"github.com/kazz187/taskdash/internal/task"
	"github.com/kazz187/taskdash/internal/user"
	"github.com/kazz187/taskdash/internal/viewmodel"
	"github.com/kazz187/taskdash/pkg/clog"
	"github.com/kazz187/taskdash/pkg/metrics"
	"github.com/kazz187/taskdash/pkg/panicerr"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	if err := run(env); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// run owns every resource the server opens, so its deferred cleanups also run
// when startup fails.
func run(env *config.Env) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	repos, closeRepos, err := openRepos(ctx, &env.StorageEnv)
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", env.StorageEnv.Type, err)
	}
	defer closeRepos()

	m := metrics.New()
	bus := eventbus.New()

	// Setup access policy
	policy := role.DefaultPolicy()
	if env.PolicyFile != "" {
		if policy, err = role.LoadPolicyFile(env.PolicyFile); err != nil {
			return fmt.Errorf("failed to load policy file %s: %w", env.PolicyFile, err)
		}
	}
	gate := role.NewGate(policy, m)

	// Setup servers
	userServer := user.NewServer(repos.users, gate, bus)
	taskServer := task.NewServer(repos.tasks, project.NewLinker(repos.projects, repos.tasks), bus, m)
	notifier := notification.NewNotifier(repos.notifications, bus, m)

	vapidEnv := config.VAPIDEnvFromEnv(env)
	pushSender := pushnotification.NewSender(vapidEnv, repos.pushSubscriptions)

	servers := server.Servers{
		Access:           role.NewServer(gate),
		Project:          project.NewServer(repos.projects, repos.tasks, bus),
		Task:             taskServer,
		User:             userServer,
		Notification:     notification.NewServer(repos.notifications),
		View:             viewmodel.NewServer(repos.tasks, repos.projects),
		Event:            event.NewServer(bus, m),
		PushNotification: pushnotification.NewServer(vapidEnv, repos.pushSubscriptions, pushSender),
	}
	var eventLogger *event.Logger
	if env.EventLogDir != "" {
		if eventLogger, err = event.NewLogger(env.EventLogDir); err != nil {
			return fmt.Errorf("failed to create event logger: %w", err)
		}
		servers.Activity = event.NewLogServer(eventLogger)
	}

	srv := server.NewServer(
		config.BaseEnvFromEnv(env),
		m,
		auth.NewTokenIssuerFromEnv(config.AuthEnvFromEnv(env)),
		role.NewResolver(userServer.LookupRole),
		gate,
		servers,
	)

	// Setup background workers
	workers := map[string]func(context.Context) error{
		"notification dispatcher": notification.NewDispatcher(bus, notifier).Start,
		"push dispatcher":         pushnotification.NewDispatcher(bus, pushSender).Start,
		"deadline reminder":       reminder.New(&env.ReminderEnv, repos.tasks, notifier, m).Start,
	}
	if env.PolicyFile != "" {
		workers["policy watcher"] = func(ctx context.Context) error {
			return role.WatchPolicyFile(ctx, policy, env.PolicyFile)
		}
	}
	if eventLogger != nil {
		workers["event logger"] = func(ctx context.Context) error {
			return eventLogger.Start(ctx, bus)
		}
	}
	if env.NATSEnv.URL != "" {
		conn, err := eventbus.ConnectNATS(env.NATSEnv.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to nats at %s: %w", env.NATSEnv.URL, err)
		}
		defer conn.Drain()
		workers["nats bridge"] = eventbus.NewNATSBridge(bus, conn, env.NATSEnv.SubjectPrefix).Run
	}

	wg := conc.NewWaitGroup()
	for name, run := range workers {
		run := panicerr.SafeContext(name, run)
		wg.Go(func() {
			if err := run(ctx); err != nil {
				slog.Error("worker stopped", "error", err)
				cancel()
			}
		})
	}

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	// Give active connections time to finish after stream contexts are cancelled.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	wg.Wait()
	return nil
}
