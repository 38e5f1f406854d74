package templates

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 100 * time.Millisecond

// Reloader is implemented by Set.
type Reloader interface {
	Reload() error
}

// WatcherOptions configures Watch.
type WatcherOptions struct {
	Dir      string        // on-disk templates directory; required
	Target   Reloader      // required
	Debounce time.Duration // optional
	Logger   *slog.Logger  // optional
}

// Watch reloads Target whenever a .tmpl file under Dir changes. Editors emit
// bursts of events per save, so reloads are debounced. It blocks until ctx is
// done.
func Watch(ctx context.Context, opts WatcherOptions) error {
	if opts.Target == nil {
		return fmt.Errorf("templates: watch target is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "template_watcher")

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	// fsnotify is not recursive; watch every directory up front.
	err = filepath.WalkDir(opts.Dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", opts.Dir, err)
	}
	logger.InfoContext(ctx, "watching templates", "dir", opts.Dir)

	timer := time.NewTimer(opts.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, ".tmpl") {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(opts.Debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.WarnContext(ctx, "template watcher error", "error", err)
		case <-timer.C:
			// Reload logs its own failures.
			_ = opts.Target.Reload()
		}
	}
}
