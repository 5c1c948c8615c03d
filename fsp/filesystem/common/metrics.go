package common

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// TraversalStats tracks performance metrics during a scan. All counters are
// updated atomically by the scan workers.
type TraversalStats struct {
	DirsProcessed  atomic.Int64
	EntriesFound   atomic.Int64
	EntriesIgnored atomic.Int64
	EntriesSkipped atomic.Int64 // symlinks, special files, failed validation
	ErrorsFound    atomic.Int64
	StartTime      time.Time
	EndTime        time.Time
}

// NewTraversalStats starts the clock on a new scan.
func NewTraversalStats() *TraversalStats {
	return &TraversalStats{StartTime: time.Now()}
}

// Finish stops the clock.
func (ts *TraversalStats) Finish() {
	ts.EndTime = time.Now()
}

// Duration returns the elapsed scan time.
func (ts *TraversalStats) Duration() time.Duration {
	if ts.EndTime.IsZero() {
		return time.Since(ts.StartTime)
	}
	return ts.EndTime.Sub(ts.StartTime)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (ts *TraversalStats) MarshalZerologObject(e *zerolog.Event) {
	duration := ts.Duration()
	dirs := ts.DirsProcessed.Load()
	e.Int64("dirs", dirs).
		Int64("entries", ts.EntriesFound.Load()).
		Int64("ignored", ts.EntriesIgnored.Load()).
		Int64("skipped", ts.EntriesSkipped.Load()).
		Int64("errors", ts.ErrorsFound.Load()).
		Dur("duration", duration)
	if secs := duration.Seconds(); secs > 0 {
		e.Float64("dirs_per_sec", float64(dirs)/secs)
	}
}

// ReadStats tracks a batch read.
type ReadStats struct {
	Completed    atomic.Int64
	Succeeded    atomic.Int64
	Failed       atomic.Int64
	Cancelled    atomic.Int64
	Direct       atomic.Int64
	MemoryMapped atomic.Int64
	BytesRead    atomic.Int64
	StartTime    time.Time
}

// NewReadStats starts the clock on a new batch.
func NewReadStats() *ReadStats {
	return &ReadStats{StartTime: time.Now()}
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (rs *ReadStats) MarshalZerologObject(e *zerolog.Event) {
	duration := time.Since(rs.StartTime)
	bytes := rs.BytesRead.Load()
	e.Int64("completed", rs.Completed.Load()).
		Int64("succeeded", rs.Succeeded.Load()).
		Int64("failed", rs.Failed.Load()).
		Int64("cancelled", rs.Cancelled.Load()).
		Int64("direct", rs.Direct.Load()).
		Int64("mmap", rs.MemoryMapped.Load()).
		Int64("bytes", bytes).
		Dur("duration", duration)
	if secs := duration.Seconds(); secs > 0 {
		e.Float64("mb_per_sec", float64(bytes)/secs/(1<<20))
	}
}
