package schema

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadCallback receives each successfully reloaded registry.
type ReloadCallback func(reg *Registry)

// ErrorCallback receives reload failures; the previous registry stays active.
type ErrorCallback func(err error)

const reloadDebounce = 200 * time.Millisecond

// Watch watches the schema file at path and reloads it after changes until
// ctx is cancelled. The parent directory is watched rather than the file so
// that editors which save by rename are still picked up. Bursts of events are
// debounced into one reload.
func Watch(ctx context.Context, path string, logger *slog.Logger, onReload ReloadCallback, onError ErrorCallback) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("schema watcher: started", slog.String("path", abs))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(reloadDebounce)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(reloadDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("schema watcher: stopped")
			return nil

		case <-reloadCh:
			reg, loadErr := Load(abs)
			if loadErr != nil {
				logger.Warn("schema watcher: reload failed", slog.String("path", abs), slog.String("error", loadErr.Error()))
				if onError != nil {
					onError(loadErr)
				}
				continue
			}
			logger.Info("schema watcher: reloaded", slog.String("path", abs), slog.Int("tags", reg.Len()))
			if onReload != nil {
				onReload(reg)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				logger.Debug("schema watcher: change", slog.String("op", ev.Op.String()))
				scheduleReload()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("schema watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
