package watcher

import (
	"context"

	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/types"
)

// Watcher defines the interface for file system watching
type Watcher interface {
	// Start begins watching. Events stop when ctx is done or Close is called.
	Start(ctx context.Context) error

	// Events returns debounced change batches and watch errors. The channel
	// is closed by Close.
	Events() <-chan types.Event

	// Root returns the watched directory.
	Root() types.CanonicalPath

	// Close stops watching and cleans up resources
	Close() error
}

var _ Watcher = (*FSNotifyWatcher)(nil)
