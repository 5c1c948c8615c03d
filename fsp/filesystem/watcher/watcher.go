package watcher

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/options"
	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/types"

	"github.com/rs/zerolog"
)

// NewWatcher creates the watcher for root.
func NewWatcher(root string, opts options.WatchOptions, logger zerolog.Logger) (Watcher, error) {
	return NewFSNotifyWatcher(root, opts, logger)
}

// WatchPaths watches root until ctx is done, calling handler for every
// debounced change batch and error. It blocks.
func WatchPaths(ctx context.Context, root string, opts options.WatchOptions, logger zerolog.Logger, handler func(types.Event)) error {
	w, err := NewWatcher(root, opts, logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watching: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events():
			if !ok {
				return nil
			}
			handler(event)
		}
	}
}
