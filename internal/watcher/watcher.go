// Package watcher keeps the index in sync with the corpus while the server
// runs: file writes become debounced upserts and removals drop documents.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/config"
)

// Watcher watches the corpus roots and invokes the upsert/remove callbacks
// for matching files. Write bursts (editors, checkouts) are collapsed per
// path by a debounce timer.
type Watcher struct {
	corpus   *config.CorpusConfig
	onUpsert func(path string)
	onRemove func(path string)
	debounce time.Duration
	ignore   map[string]struct{}
	logger   *zap.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	pending map[string]*time.Timer
	started bool

	done     chan struct{}
	stopOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for event debug output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// New creates a watcher over the configured corpus roots. onUpsert and
// onRemove receive absolute file paths.
func New(corpus *config.CorpusConfig, watch *config.WatchConfig, onUpsert, onRemove func(path string), opts ...Option) *Watcher {
	ignore := make(map[string]struct{}, len(corpus.IgnoreDirs))
	for _, d := range corpus.IgnoreDirs {
		ignore[d] = struct{}{}
	}
	w := &Watcher{
		corpus:   corpus,
		onUpsert: onUpsert,
		onRemove: onRemove,
		debounce: time.Duration(watch.DebounceMillis) * time.Millisecond,
		ignore:   ignore,
		pending:  make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start registers all corpus roots (recursively) and begins dispatching
// events until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.fsw = fsw
	w.started = true
	for _, root := range w.corpus.Roots {
		if err := w.addTreeLocked(root); err != nil {
			_ = fsw.Close()
			w.fsw = nil
			w.started = false
			w.mu.Unlock()
			return err
		}
	}
	w.mu.Unlock()
	if w.logger != nil {
		w.logger.Info("watching corpus roots",
			zap.Strings("roots", w.corpus.Roots),
			zap.Duration("debounce", w.debounce))
	}
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if err != nil && w.logger != nil {
				w.logger.Warn("watch error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	path := ev.Name
	if w.skipped(path) {
		return
	}
	if w.logger != nil {
		w.logger.Debug("fs event", zap.String("op", ev.Op.String()), zap.String("path", path))
	}
	switch {
	case ev.Op.Has(fsnotify.Create), ev.Op.Has(fsnotify.Write):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.watchNewDir(path)
			return
		}
		if w.matches(path) {
			w.scheduleUpsert(path)
		}
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		w.cancelPending(path)
		if w.matches(path) && w.onRemove != nil {
			w.onRemove(path)
		}
	}
}

// watchNewDir registers a directory created after Start so files written
// into it are picked up, and upserts anything already inside it.
func (w *Watcher) watchNewDir(dir string) {
	w.mu.Lock()
	if w.fsw == nil {
		w.mu.Unlock()
		return
	}
	err := w.addTreeLocked(dir)
	w.mu.Unlock()
	if err != nil {
		if w.logger != nil {
			w.logger.Warn("failed to watch new directory", zap.String("path", dir), zap.Error(err))
		}
		return
	}
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if w.skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.matches(path) {
			w.scheduleUpsert(path)
		}
		return nil
	})
}

// addTreeLocked adds root and every non-ignored subdirectory to the fsnotify
// watch set. Caller holds w.mu.
func (w *Watcher) addTreeLocked(root string) error {
	root = filepath.Clean(root)
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.skipDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// skipDir reports whether a directory name is hidden or on the ignore list.
func (w *Watcher) skipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	_, ignored := w.ignore[name]
	return ignored
}

// skipped reports whether any path segment is hidden or ignored.
func (w *Watcher) skipped(path string) bool {
	for _, part := range strings.Split(filepath.Clean(path), string(filepath.Separator)) {
		if part == "" || part == "." {
			continue
		}
		if w.skipDir(part) {
			return true
		}
	}
	return false
}

// matches applies the corpus extension filter. Hidden files never match.
func (w *Watcher) matches(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	if len(w.corpus.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range w.corpus.Extensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

func (w *Watcher) scheduleUpsert(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		if w.onUpsert != nil {
			w.onUpsert(path)
		}
	})
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

// Stop stops event dispatch, cancels pending debounce timers, and releases
// the underlying watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.fsw == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	_ = w.fsw.Close()
	w.fsw = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
