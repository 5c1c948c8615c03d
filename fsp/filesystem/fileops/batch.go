package fileops

import (
	"context"
	"fmt"
	"sync/atomic"

	internal "github.com/ZanzyTHEbar/fsprompt/fsp"
	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/common"
	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/options"
	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/types"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

// Reader handles batch file reads with concurrency control
type Reader struct {
	logger zerolog.Logger
}

// NewReader creates a new batch reader.
func NewReader(logger zerolog.Logger) *Reader {
	return &Reader{logger: logger}
}

// ReadFiles reads every path in parallel. Each path is checked against root
// and re-resolved immediately before it is opened; a path that now resolves
// outside root yields an OutcomeSecurityError and is never read.
//
// The result holds exactly one outcome per input path, at the same index.
// Cancelling ctx turns every file not yet started into OutcomeCancelled.
func (r *Reader) ReadFiles(ctx context.Context, paths []types.CanonicalPath, root types.CanonicalPath, opts options.ReadOptions) []types.FileReadOutcome {
	return r.read(ctx, paths, &root, opts)
}

// ReadFilesUnchecked is ReadFiles without root validation.
func (r *Reader) ReadFilesUnchecked(ctx context.Context, paths []types.CanonicalPath, opts options.ReadOptions) []types.FileReadOutcome {
	return r.read(ctx, paths, nil, opts)
}

func (r *Reader) read(ctx context.Context, paths []types.CanonicalPath, root *types.CanonicalPath, opts options.ReadOptions) []types.FileReadOutcome {
	outcomes := make([]types.FileReadOutcome, len(paths))
	if len(paths) == 0 {
		return outcomes
	}

	logger := r.logger.With().Str("op_id", uuid.NewString()).Logger()
	stats := common.NewReadStats()
	total := len(paths)
	var done atomic.Int64

	if opts.Stat == nil {
		opts.Stat = statRegular
	}

	p := pool.New().WithMaxGoroutines(opts.WorkerCount())
	for i, path := range paths {
		i, path := i, path
		p.Go(func() {
			out := readOne(ctx, path, root, opts)
			outcomes[i] = out
			record(stats, out)

			if out.Kind != types.OutcomeSuccess && out.Kind != types.OutcomeCancelled {
				logger.Debug().
					Str("path", path.String()).
					Stringer("kind", out.Kind).
					Err(out.Err).
					Msg("File read failed")
			}

			n := done.Add(1)
			if opts.Progress != nil {
				opts.Progress(int(n), total)
			}
		})
	}
	p.Wait()

	event := logger.Info()
	if ctx.Err() != nil {
		event = logger.Warn().Err(ctx.Err())
	}
	event.Int("total", total).EmbedObject(stats).Msg("Batch read completed")

	return outcomes
}

// readOne produces the outcome for a single path.
func readOne(ctx context.Context, path types.CanonicalPath, root *types.CanonicalPath, opts options.ReadOptions) types.FileReadOutcome {
	out := types.FileReadOutcome{Path: path}

	if ctx.Err() != nil {
		out.Kind = types.OutcomeCancelled
		out.Err = common.ErrCancelled
		return out
	}

	target := path.String()
	if root != nil {
		if !path.IsContainedWithin(*root) {
			return securityError(out, &common.TraversalError{Path: path.String(), Root: root.String()})
		}
		// The entry may have been replaced by a symlink since it was scanned.
		resolved, err := types.NewCanonicalPathWithinRoot(target, *root)
		if err != nil {
			if common.IsTraversal(err) {
				return securityError(out, err)
			}
			return failed(out, common.Describe("read", target, err))
		}
		target = resolved.String()
	}

	size, err := opts.Stat(target)
	if err != nil {
		return failed(out, common.Describe("read", target, err))
	}
	out.Size = size

	if opts.MaxFileSize > 0 && size > opts.MaxFileSize {
		return failed(out, fmt.Errorf("failed to read %s: %w (%d > %d bytes)", target, common.ErrFileTooLarge, size, opts.MaxFileSize))
	}

	out.Strategy = SelectStrategy(size, opts.Threshold())
	content, err := ReadFile(target, out.Strategy)
	if err != nil {
		return failed(out, common.Describe("read", target, err))
	}

	out.Kind = types.OutcomeSuccess
	out.Content = content
	return out
}

func failed(out types.FileReadOutcome, err error) types.FileReadOutcome {
	out.Kind = types.OutcomeError
	out.Err = err
	return out
}

func securityError(out types.FileReadOutcome, err error) types.FileReadOutcome {
	out.Kind = types.OutcomeSecurityError
	out.Err = err
	return out
}

func record(stats *common.ReadStats, out types.FileReadOutcome) {
	stats.Completed.Add(1)
	switch out.Kind {
	case types.OutcomeSuccess:
		stats.Succeeded.Add(1)
		stats.BytesRead.Add(int64(len(out.Content)))
		if out.Strategy == types.StrategyMemoryMapped {
			stats.MemoryMapped.Add(1)
		} else {
			stats.Direct.Add(1)
		}
	case types.OutcomeCancelled:
		stats.Cancelled.Add(1)
	default:
		stats.Failed.Add(1)
	}
}

func defaultThreshold() int64 {
	return internal.DefaultMmapThreshold
}

// ReadFiles reads paths under root with a default Reader.
func ReadFiles(ctx context.Context, paths []types.CanonicalPath, root types.CanonicalPath, opts options.ReadOptions) []types.FileReadOutcome {
	return NewReader(zerolog.Nop()).ReadFiles(ctx, paths, root, opts)
}

// ReadFilesUnchecked reads paths without root validation with a default
// Reader.
func ReadFilesUnchecked(ctx context.Context, paths []types.CanonicalPath, opts options.ReadOptions) []types.FileReadOutcome {
	return NewReader(zerolog.Nop()).ReadFilesUnchecked(ctx, paths, opts)
}
