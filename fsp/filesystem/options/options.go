package options

import (
	"time"

	internal "github.com/ZanzyTHEbar/fsprompt/fsp"
)

// ScanOptions configures directory scanning
type ScanOptions struct {
	MaxDepth       int      // Maximum depth below the root (-1 = unlimited)
	Workers        int      // Number of concurrent workers (0 = default)
	IgnorePatterns []string // Glob or regex patterns matched on name and relative path
	IgnoreFileName string   // Per-directory ignore file, gitignore syntax ("" = disabled)

	// Progress is called after each directory with running totals.
	Progress func(dirs, entries int64)
}

// ReadOptions configures batch file reads
type ReadOptions struct {
	MmapThreshold int64                 // Files of at least this many bytes are memory mapped
	MaxFileSize   int64                 // Larger files fail without being read (0 = unlimited)
	Workers       int                   // Number of concurrent workers (0 = default)
	Progress      func(done, total int) // Called after each file completes, possibly concurrently

	// Stat overrides how a file's size is determined. Nil stats the file and
	// rejects anything that is not a regular file.
	Stat func(path string) (int64, error)
}

// WatchOptions configures the filesystem watcher
type WatchOptions struct {
	Debounce       time.Duration // Quiet window before a batch is emitted
	MaxDelay       time.Duration // Upper bound on how long a batch can be held back
	IgnorePatterns []string
}

// DefaultScanOptions returns sensible defaults for scan operations
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		MaxDepth:       internal.DefaultMaxDepth,
		Workers:        internal.DefaultScanWorkers(),
		IgnorePatterns: []string{},
	}
}

// DefaultReadOptions returns sensible defaults for read operations
func DefaultReadOptions() ReadOptions {
	return ReadOptions{
		MmapThreshold: internal.DefaultMmapThreshold,
		Workers:       internal.DefaultReadWorkers(),
	}
}

// DefaultWatchOptions returns sensible defaults for watch operations
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		Debounce:       internal.DefaultDebounceDelay,
		MaxDelay:       internal.DefaultMaxDebounceDelay,
		IgnorePatterns: []string{},
	}
}

// Threshold returns the effective mmap threshold.
func (o ReadOptions) Threshold() int64 {
	if o.MmapThreshold <= 0 {
		return internal.DefaultMmapThreshold
	}
	return o.MmapThreshold
}

// WorkerCount returns the effective read concurrency.
func (o ReadOptions) WorkerCount() int {
	if o.Workers <= 0 {
		return internal.DefaultReadWorkers()
	}
	return o.Workers
}

// WorkerCount returns the effective scan concurrency.
func (o ScanOptions) WorkerCount() int {
	if o.Workers <= 0 {
		return internal.DefaultScanWorkers()
	}
	return o.Workers
}

// Delay returns the effective debounce window.
func (o WatchOptions) Delay() time.Duration {
	if o.Debounce <= 0 {
		return internal.DefaultDebounceDelay
	}
	return o.Debounce
}
