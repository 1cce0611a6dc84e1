package backup

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the event bursts a single artifact replacement
// produces (temp file create, write, rename).
const debounceDelay = 200 * time.Millisecond

// WatchArtifact starts an fsnotify watcher on the artifact's directory and
// calls cb once per debounced burst of replacements of the artifact file.
// Rename-based replacements (a restore, or an external sync tool) only
// surface on the directory watch, which is why the file is not watched
// directly. Only Create and Rename of the artifact name count: an atomic
// replacement ends in a rename into place, which the directory watch
// reports as a create, while the Write events the running store emits on
// every save (WAL appends, checkpoints into the main file) must not look
// like a replacement. The loop runs until ctx is cancelled.
func WatchArtifact(ctx context.Context, artifact string, logger *slog.Logger, cb func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(artifact)
	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Info("artifact watcher: started", slog.String("path", artifact))

	base := filepath.Base(artifact)
	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			logger.Info("artifact watcher: stopped")
			return nil

		case <-fire:
			logger.Debug("artifact watcher: change settled")
			if cb != nil {
				cb()
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(debounceDelay)
				fire = debounce.C
			} else {
				debounce.Reset(debounceDelay)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("artifact watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
