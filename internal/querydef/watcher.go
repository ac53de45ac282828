package querydef

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rebeliceyang/lazychart/internal/models"
	"github.com/rs/zerolog"
)

// Reload is emitted after the watched file settles
type Reload struct {
	FormData models.FormData
	Err      error
}

// Watch reloads path whenever it changes, waiting delay for writes to settle.
// The directory is watched rather than the file so editors that replace the
// file on save are followed. The channel closes when ctx is done.
func Watch(ctx context.Context, path string, delay time.Duration, logger zerolog.Logger) (<-chan Reload, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	out := make(chan Reload, 1)
	go func() {
		defer close(out)
		defer func() { _ = watcher.Close() }()

		var timer *time.Timer
		var fire <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				logger.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("query definition changed")
				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(delay)
				fire = timer.C

			case <-fire:
				fire = nil
				formData, err := Load(abs)
				select {
				case out <- Reload{FormData: formData, Err: err}:
				case <-ctx.Done():
					return
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn().Err(err).Msg("query definition watcher error")
			}
		}
	}()

	return out, nil
}
