package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/common"
	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/options"
	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/patterns"
	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/types"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// FSNotifyWatcher watches a directory tree with fsnotify. Subdirectories are
// added as they appear; symlinks are never followed and ignored directories
// are not watched.
type FSNotifyWatcher struct {
	root      types.CanonicalPath
	cache     *patterns.Cache
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	logger    zerolog.Logger

	events    chan types.Event
	done      chan struct{}
	emitMu    sync.RWMutex
	closed    bool
	closeOnce sync.Once
	startOnce sync.Once
	wg        sync.WaitGroup
}

// NewFSNotifyWatcher creates a watcher for root. Nothing is watched until
// Start is called.
func NewFSNotifyWatcher(root string, opts options.WatchOptions, logger zerolog.Logger) (*FSNotifyWatcher, error) {
	cp, err := types.NewCanonicalPath(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch root: %w", err)
	}
	info, err := os.Stat(cp.String())
	if err != nil {
		return nil, fmt.Errorf("failed to stat watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", cp, common.ErrNotDirectory)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &FSNotifyWatcher{
		root:    cp,
		cache:   patterns.New(opts.IgnorePatterns, patterns.WithLogger(logger)),
		watcher: fsWatcher,
		logger:  logger.With().Str("root", cp.String()).Logger(),
		events:  make(chan types.Event, 16),
		done:    make(chan struct{}),
	}
	w.debouncer = NewDebouncer(opts.Delay(), opts.MaxDelay, func(paths []string) {
		w.emit(types.Event{Type: types.EventChanged, Timestamp: time.Now(), Paths: paths})
	})

	return w, nil
}

// Start adds the tree to the underlying watcher and begins the event loop.
func (w *FSNotifyWatcher) Start(ctx context.Context) error {
	var err error
	w.startOnce.Do(func() {
		if err = w.addRecursive(w.root.String()); err != nil {
			return
		}

		w.wg.Add(1)
		go w.watchLoop(ctx)

		w.logger.Info().Int("dirs", len(w.watcher.WatchList())).Msg("FSNotify watcher started")
	})
	return err
}

// Events returns the event channel
func (w *FSNotifyWatcher) Events() <-chan types.Event {
	return w.events
}

// Root returns the watched directory.
func (w *FSNotifyWatcher) Root() types.CanonicalPath {
	return w.root
}

// Close stops watching and cleans up resources. Pending changes are dropped.
func (w *FSNotifyWatcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		w.debouncer.Close()

		if cerr := w.watcher.Close(); cerr != nil {
			err = fmt.Errorf("error closing fsnotify watcher: %w", cerr)
		}

		// Wait for goroutines to finish
		w.wg.Wait()

		w.emitMu.Lock()
		w.closed = true
		close(w.events)
		w.emitMu.Unlock()

		w.logger.Debug().Msg("FSNotify watcher closed")
	})
	return err
}

// addRecursive adds dir and every non-ignored subdirectory below it.
func (w *FSNotifyWatcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			w.logger.Debug().Str("path", path).Err(err).Msg("Skipping unreadable path")
			return nil
		}
		// WalkDir reports symlinks to directories as non-directories.
		if !d.IsDir() {
			return nil
		}
		if path != w.root.String() && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			if path == dir {
				return fmt.Errorf("failed to add path %s: %w", path, err)
			}
			w.logger.Warn().Str("path", path).Err(err).Msg("Failed to add subdirectory to watcher")
		}
		return nil
	})
}

// ignored reports whether path matches an ignore pattern by name or by its
// path relative to the root.
func (w *FSNotifyWatcher) ignored(path string) bool {
	rel, ok := w.rel(path)
	if !ok {
		return true
	}
	return w.cache.MatchesEntry(filepath.Base(path), rel)
}

func (w *FSNotifyWatcher) rel(path string) (string, bool) {
	rel, err := filepath.Rel(w.root.String(), path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// watchLoop is the main event processing loop
func (w *FSNotifyWatcher) watchLoop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("Watcher error")
			w.emit(types.Event{Type: types.EventError, Timestamp: time.Now(), Err: err})
		}
	}
}

func (w *FSNotifyWatcher) handle(event fsnotify.Event) {
	// Permission and timestamp changes do not alter content.
	if event.Op == fsnotify.Chmod {
		return
	}
	if w.ignored(event.Name) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Debug().Str("path", event.Name).Err(err).Msg("Failed to watch new directory")
			}
		}
	}

	w.debouncer.Add(event.Name)
}

func (w *FSNotifyWatcher) emit(e types.Event) {
	w.emitMu.RLock()
	defer w.emitMu.RUnlock()
	if w.closed {
		return
	}

	select {
	case w.events <- e:
	case <-w.done:
	}
}
