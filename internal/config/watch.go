package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceWindow = 250 * time.Millisecond

// Watcher reports edits to the config file and its includes. Bursts of
// filesystem events are coalesced into a single notification.
type Watcher struct {
	path   string
	logger *slog.Logger
	notify chan<- string
}

// NewWatcher creates a watcher for the config at path. Notifications are
// sent without blocking; a pending notification absorbs later ones.
func NewWatcher(path string, notify chan<- string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{path: path, logger: logger, notify: notify}
}

func (w *Watcher) String() string { return "config-watcher" }

// Serve watches until ctx is canceled.
func (w *Watcher) Serve(ctx context.Context) error {
	target, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	target = filepath.Clean(target)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	defer fw.Close()

	// Watch the directory so editors that replace the file are still seen.
	if err := fw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}
	targets := map[string]struct{}{target: {}}
	if res, err := LoadFromPath(target); err == nil {
		for _, f := range res.Files {
			targets[filepath.Clean(f)] = struct{}{}
			if filepath.Dir(f) != filepath.Dir(target) {
				if err := fw.Add(filepath.Dir(f)); err != nil {
					w.logger.Debug("unable to watch include dir", "dir", filepath.Dir(f), "err", err)
				}
			}
		}
	}

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if _, watched := targets[filepath.Clean(event.Name)]; !watched {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerCh = timer.C
			} else {
				if !timer.Stop() {
					<-timerCh
				}
				timer.Reset(debounceWindow)
			}
		case <-timerCh:
			timer = nil
			timerCh = nil
			select {
			case w.notify <- "config file updated":
			default:
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "err", err)
		}
	}
}
