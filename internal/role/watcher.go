package role

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 200 * time.Millisecond

// WatchPolicyFile reloads policy from path whenever the file changes, until ctx
// is done. A file that fails to parse is logged and the previous pages stay in
// effect.
func WatchPolicyFile(ctx context.Context, policy *Policy, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create policy watcher: %w", err)
	}
	defer watcher.Close()

	// Editors and config management replace the file by rename, so the
	// directory is watched instead of the file.
	dir := filepath.Dir(path)
	name := filepath.Base(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	slog.Info("watching access policy", "path", path)

	reload := make(chan struct{}, 1)
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case <-reload:
			if err := reloadPolicy(policy, path); err != nil {
				slog.Warn("failed to reload access policy", "path", path, "error", err)
				continue
			}
			slog.Info("access policy reloaded", "path", path, "pages", len(policy.Pages()))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("policy watcher error", "error", err)
		}
	}
}

func reloadPolicy(policy *Policy, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	pages, err := ParsePolicy(data)
	if err != nil {
		return err
	}
	policy.Replace(pages)
	return nil
}
