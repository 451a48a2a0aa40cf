package library

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the catalog whenever the corpus file is written, created or
// renamed into place, until ctx is cancelled. Bursts of events are collapsed
// into one reload after WatchDebounce of quiet. The parent directory is
// watched rather than the file, so editors that replace the file are seen.
func (l *Library) Watch(ctx context.Context) error {
	absPath, err := filepath.Abs(l.cfg.CorpusPath)
	if err != nil {
		return fmt.Errorf("resolve corpus path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(absPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch corpus directory %s: %w", dir, err)
	}
	name := filepath.Base(absPath)
	l.log.Info("watching corpus", "path", absPath, "debounce", l.cfg.WatchDebounce)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
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
			if event.Has(fsnotify.Remove) {
				l.log.Warn("corpus file removed, keeping current catalog", "path", event.Name)
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			l.log.Debug("corpus change detected", "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(l.cfg.WatchDebounce)
			} else {
				timer.Reset(l.cfg.WatchDebounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if _, err := l.Load(ctx); err != nil {
				l.log.Error("corpus reload failed", "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.log.Error("corpus watcher error", "error", err)
		}
	}
}
