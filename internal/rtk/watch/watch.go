// Package watch implements rtk proxy --watch: re-running the active
// filter whenever the source tree changes, debounced so a burst of
// saves (a build, a git checkout) triggers one re-run instead of many.
//
// Ported from the teacher's internal/indexer/watcher.go: same
// fsnotify.Watcher, same 500ms debounce ticker, same
// mutex-guarded-pending-set design, same WalkDir-then-Add directory
// registration. The teacher triggers a reindex callback on file
// change; this re-runs a filter.Filter instead.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// IgnoreMatcher reports whether a path (relative to the watched root)
// should be excluded from triggering a re-run, satisfied by
// .rtkignore's gitignore.GitIgnore.
type IgnoreMatcher interface {
	MatchesPath(path string) bool
}

// Watcher watches a directory tree and invokes OnChange, debounced,
// whenever files under it are created, written, removed, or renamed.
type Watcher struct {
	root          string
	watcher       *fsnotify.Watcher
	debounce      time.Duration
	ignoreMatcher IgnoreMatcher
	onChange      func()

	mu      sync.Mutex
	pending bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Watcher rooted at root. ignoreMatcher may be nil to
// watch everything.
func New(root string, ignoreMatcher IgnoreMatcher, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create filesystem watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		root:          root,
		watcher:       fsw,
		debounce:      500 * time.Millisecond,
		ignoreMatcher: ignoreMatcher,
		onChange:      onChange,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// Start walks root adding every non-ignored directory to the watch set,
// then begins the event-processing and debounce goroutines.
func (w *Watcher) Start() error {
	err := filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return nil
		}
		if w.ignoreMatcher != nil && rel != "." && w.ignoreMatcher.MatchesPath(rel) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			fmt.Fprintf(os.Stderr, "rtk: failed to watch %s: %v\n", path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", w.root, err)
	}

	w.wg.Add(2)
	go w.eventLoop()
	go w.debounceLoop()
	return nil
}

// Stop cancels both goroutines, waits for them to exit, and closes the
// underlying fsnotify watcher.
func (w *Watcher) Stop() error {
	w.cancel()
	w.wg.Wait()
	return w.watcher.Close()
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(os.Stderr, "rtk: watcher error: %v\n", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	if w.ignoreMatcher != nil && w.ignoreMatcher.MatchesPath(rel) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				fmt.Fprintf(os.Stderr, "rtk: failed to watch new directory %s: %v\n", event.Name, err)
			}
			return
		}
	}

	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.mu.Lock()
		w.pending = true
		w.mu.Unlock()
	}
}

func (w *Watcher) debounceLoop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.mu.Lock()
			fire := w.pending
			w.pending = false
			w.mu.Unlock()
			if fire && w.onChange != nil {
				w.onChange()
			}
		}
	}
}
