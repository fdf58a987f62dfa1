package build

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event kinds passed to an EventCallback.
const (
	EventUpdated = "post.updated"
	EventDeleted = "post.deleted"
	EventRebuilt = "site.rebuilt"
)

// EventCallback is called after each watcher-driven rebuild: once per
// written or removed source, then once with EventRebuilt and an empty path.
type EventCallback func(kind string, path string)

const debounce = 200 * time.Millisecond

// Watch rebuilds the site whenever a source under the posts directory
// changes, until ctx is cancelled. Bursts of events are coalesced into one
// build. New directories are added to the watch list as they appear.
func (b *Builder) Watch(ctx context.Context, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := b.src.Root()
	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	b.logger.Info("watcher: started", slog.String("root", root))

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			b.logger.Info("watcher: stopped")
			return nil

		case <-fire:
			b.rebuild(ctx, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						b.logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					schedule()
					continue
				}
			}
			if !strings.HasSuffix(ev.Name, b.opts.Extension) || ev.Op == fsnotify.Chmod {
				continue
			}
			b.logger.Debug("watcher: change", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			b.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (b *Builder) rebuild(ctx context.Context, cb EventCallback) {
	rep, err := b.Build(ctx)
	if err != nil {
		if ctx.Err() == nil {
			b.logger.Error("watcher: build failed", slog.String("error", err.Error()))
		}
		return
	}
	for _, f := range rep.Failures {
		b.logger.Warn("watcher: invalid post",
			slog.String("path", f.Path),
			slog.String("kind", f.Kind),
			slog.String("error", f.Err.Error()))
	}
	if cb == nil {
		return
	}
	for _, p := range rep.Written {
		cb(EventUpdated, p)
	}
	for _, p := range rep.Removed {
		cb(EventDeleted, p)
	}
	cb(EventRebuilt, "")
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
