package minyan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the store whenever the cache file is written or replaced,
// until ctx is cancelled. The directory is watched rather than the file so
// atomic renames are seen. A reload is skipped while merged times are still
// unsaved. onReload, if set, runs after each load attempt.
func (s *Store) Watch(ctx context.Context, onReload func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Clean(s.path)
	s.logger.Info("watching minyan cache", "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			reloaded, err := s.ReloadIfClean()
			switch {
			case err != nil:
				s.logger.Warn("minyan cache reload failed", "path", target, "error", err)
			case !reloaded:
				s.logger.Debug("minyan cache has unsaved changes, reload skipped", "path", target)
				continue
			default:
				s.logger.Info("minyan cache reloaded", "path", target)
			}
			if onReload != nil {
				onReload(err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("minyan cache watcher error", "error", err)
		}
	}
}
