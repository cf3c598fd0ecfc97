package requiredfields

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 250 * time.Millisecond

// Watch reloads the source whenever its file changes until ctx is done.
// The parent directory is watched so editors that replace the file by
// rename are picked up.
func (s *Source) Watch(ctx context.Context, logger *slog.Logger) error {
	if s.path == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	target := filepath.Clean(s.path)
	if err := fsw.Add(filepath.Dir(target)); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	go func() {
		defer fsw.Close()

		var debounce *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if debounce != nil {
					debounce.Stop()
				}
				return
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				if debounce == nil {
					debounce = time.NewTimer(reloadDebounce)
				} else {
					debounce.Reset(reloadDebounce)
				}
				fire = debounce.C
			case <-fire:
				fire = nil
				if err := s.Reload(); err != nil {
					logger.Warn("required_fields_reload_failed", "path", target, "error", err)
					continue
				}
				logger.Info("required_fields_reloaded", "path", target, "types", s.RequiredFields().TypeCodes())
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logger.Warn("required_fields_watch_error", "error", err)
			}
		}
	}()
	return nil
}
