// Package watch reruns generation when its input files change
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce coalesces the burst of events editors emit for one save
const DefaultDebounce = 150 * time.Millisecond

// Change is one settled file change
type Change struct {
	Path string
	Op   fsnotify.Op
}

// FileWatcher watches a fixed set of files. Parent directories are watched so
// that editors replacing a file by rename are still seen.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]struct{}
	debounce time.Duration
	onChange func(changes []Change)
	logger   zerolog.Logger
}

// NewFileWatcher creates a watcher over files
func NewFileWatcher(files []string, debounce time.Duration, onChange func(changes []Change), logger zerolog.Logger) (*FileWatcher, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher:  watcher,
		files:    make(map[string]struct{}, len(files)),
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
	}

	dirs := make(map[string]struct{})
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		fw.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}
	return fw, nil
}

// Start delivers settled changes to onChange until ctx is done. Every file
// that changed within one debounce window arrives in a single call.
func (fw *FileWatcher) Start(ctx context.Context) error {
	pending := make(map[string]fsnotify.Op)
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher channel closed")
			}
			if !fw.shouldWatch(event) {
				continue
			}

			path, _ := filepath.Abs(event.Name)
			pending[path] |= event.Op
			if fw.debounce <= 0 {
				fw.flush(pending)
				continue
			}
			if timer == nil {
				timer = time.NewTimer(fw.debounce)
			} else {
				timer.Reset(fw.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			fw.flush(pending)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			if err != nil {
				fw.logger.Warn().Err(err).Msg("watcher error")
			}
		}
	}
}

// flush hands the pending changes to onChange in path order and empties pending
func (fw *FileWatcher) flush(pending map[string]fsnotify.Op) {
	if len(pending) == 0 {
		return
	}
	changes := make([]Change, 0, len(pending))
	for p, op := range pending {
		changes = append(changes, Change{Path: p, Op: op})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	clear(pending)
	fw.onChange(changes)
}

// shouldWatch keeps writes and creates of the watched files
func (fw *FileWatcher) shouldWatch(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	_, ok := fw.files[abs]
	return ok
}

// Close stops the watcher
func (fw *FileWatcher) Close() error {
	return fw.watcher.Close()
}
