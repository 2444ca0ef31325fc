package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/veridex-labs/veridex-cli/internal/logger"
)

// DefaultDebounce is how long the watcher waits after the last filesystem
// event before firing, so a burst of writes triggers one rebuild.
const DefaultDebounce = 2 * time.Second

// Watcher reports changes to a corpus directory. It watches the root and
// all subdirectories and coalesces bursts of events into a single
// notification.
type Watcher struct {
	root     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// NewWatcher creates a watcher for the given corpus directory.
// A non-positive debounce uses DefaultDebounce.
func NewWatcher(root string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{root: root, debounce: debounce, watcher: fsw}
	if err := w.addRecursive(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// addRecursive watches root and every subdirectory beneath it.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && len(d.Name()) > 0 && d.Name()[0] == '.' {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// Watch invokes onChange after the corpus directory settles following a
// change. It blocks until the context is cancelled or the underlying
// watcher fails.
func (w *Watcher) Watch(ctx context.Context, onChange func()) error {
	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("Corpus change: %s %s", event.Op, event.Name)

			// New subdirectories need their own watch.
			if event.Op&fsnotify.Create != 0 {
				// Ignore the error: the path may already be gone.
				_ = w.addRecursive(w.root)
			}

			if timer == nil {
				timer = time.AfterFunc(w.debounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-fire:
			timer = nil
			onChange()
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
