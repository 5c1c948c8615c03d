package filesystem

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	internal "github.com/ZanzyTHEbar/fsprompt/fsp"
	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/common"
	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/options"
	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/patterns"
	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/types"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

// ConcurrentTraverser walks a directory tree level by level on a bounded
// worker pool. Every produced entry has been re-resolved and checked against
// the scan root.
type ConcurrentTraverser struct {
	maxWorkers int
	logger     zerolog.Logger
}

// dirTask is one directory queued for listing.
type dirTask struct {
	path   types.CanonicalPath
	depth  int
	ignore *patterns.IgnoreChain
}

// scanState is the per-scan shared accumulator. It never outlives Scan.
type scanState struct {
	root     types.CanonicalPath
	opts     options.ScanOptions
	cache    *patterns.Cache
	stats    *common.TraversalStats
	logger   zerolog.Logger
	mu       sync.Mutex
	entries  []types.DirectoryEntry
	visited  map[types.CanonicalPath]struct{}
	visitMu  sync.Mutex
	progress sync.Mutex
}

// NewConcurrentTraverser creates a traverser using min(NumCPU, 8) workers
// unless a scan overrides the count.
func NewConcurrentTraverser(logger zerolog.Logger) *ConcurrentTraverser {
	return &ConcurrentTraverser{
		maxWorkers: internal.DefaultScanWorkers(),
		logger:     logger,
	}
}

// Scan lists every file and directory below rootPath that survives
// validation and filtering. The root itself is not included and the order of
// the result is unspecified.
//
// A root that cannot be canonicalized or is not a directory yields an empty
// slice. Per-entry failures are skipped. When ctx is cancelled the entries
// found so far are returned.
func (ct *ConcurrentTraverser) Scan(ctx context.Context, rootPath string, opts options.ScanOptions) []types.DirectoryEntry {
	logger := ct.logger.With().
		Str("op_id", uuid.NewString()).
		Str("root", rootPath).
		Logger()

	root, err := types.NewCanonicalPath(rootPath)
	if err != nil {
		logger.Debug().Err(err).Msg("Cannot resolve scan root")
		return []types.DirectoryEntry{}
	}
	info, err := os.Stat(root.String())
	if err != nil || !info.IsDir() {
		logger.Debug().Err(err).Msg("Scan root is not a directory")
		return []types.DirectoryEntry{}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = ct.maxWorkers
	}

	state := &scanState{
		root:    root,
		opts:    opts,
		cache:   patterns.New(opts.IgnorePatterns, patterns.WithLogger(logger)),
		stats:   common.NewTraversalStats(),
		logger:  logger,
		entries: make([]types.DirectoryEntry, 0, 64),
		visited: make(map[types.CanonicalPath]struct{}),
	}

	var rootIgnore *patterns.IgnoreChain
	rootIgnore, err = rootIgnore.Extend(root.String(), ".", opts.IgnoreFileName)
	if err != nil {
		logger.Debug().Err(err).Msg("Failed to load ignore file")
	}

	logger.Debug().
		Int("workers", workers).
		Int("max_depth", opts.MaxDepth).
		Int("patterns", state.cache.Len()).
		Msg("Starting scan")

	// Process directories level by level using a BFS approach with conc.Pool
	currentLevel := []dirTask{{path: root, depth: 0, ignore: rootIgnore}}

	for len(currentLevel) > 0 && ctx.Err() == nil {
		nextLevel := make([]dirTask, 0)
		var nextLevelMu sync.Mutex

		// A fresh pool per level; a waited pool cannot be reused.
		levelPool := pool.New().WithMaxGoroutines(workers).WithContext(ctx)

		for _, task := range currentLevel {
			task := task
			levelPool.Go(func(ctx context.Context) error {
				children := ct.processDirectory(ctx, state, task)
				if len(children) > 0 {
					nextLevelMu.Lock()
					nextLevel = append(nextLevel, children...)
					nextLevelMu.Unlock()
				}
				return nil
			})
		}

		// Tasks never return errors; cancellation is observed per directory.
		_ = levelPool.Wait()

		currentLevel = nextLevel
	}

	state.stats.Finish()
	event := logger.Info()
	if ctx.Err() != nil {
		event = logger.Warn().Err(ctx.Err())
	}
	event.EmbedObject(state.stats).Msg("Scan completed")

	// All workers have exited; ownership of the slice passes to the caller.
	return state.entries
}

// processDirectory lists one directory, emits the entries that pass every
// check, and returns the subdirectories to descend into.
func (ct *ConcurrentTraverser) processDirectory(ctx context.Context, s *scanState, task dirTask) []dirTask {
	if ctx.Err() != nil {
		return nil
	}

	if !s.markVisited(task.path) {
		return nil
	}

	entries, err := os.ReadDir(task.path.String())
	if err != nil {
		s.stats.ErrorsFound.Add(1)
		s.logger.Debug().Str("path", task.path.String()).Err(err).Msg("Failed to read directory")
		return nil
	}
	s.stats.DirsProcessed.Add(1)
	defer s.reportProgress()

	childDepth := task.depth + 1
	if s.opts.MaxDepth >= 0 && childDepth > s.opts.MaxDepth {
		return nil
	}

	var children []dirTask
	for _, de := range entries {
		mode := de.Type()

		// Symlinks are never followed; special files cannot be read safely.
		if mode&fs.ModeSymlink != 0 || (!de.IsDir() && !mode.IsRegular()) {
			s.stats.EntriesSkipped.Add(1)
			continue
		}

		childPath := filepath.Join(task.path.String(), de.Name())
		cp, err := types.NewCanonicalPathWithinRoot(childPath, s.root)
		if err != nil {
			s.stats.EntriesSkipped.Add(1)
			s.logger.Debug().Str("path", childPath).Err(err).Msg("Skipping entry")
			continue
		}

		rel, _ := cp.Rel(s.root)
		isDir := de.IsDir()
		if s.cache.MatchesEntry(de.Name(), rel) || task.ignore.Matches(rel, isDir) {
			s.stats.EntriesIgnored.Add(1)
			continue
		}

		var size int64
		if !isDir {
			if info, err := de.Info(); err == nil {
				size = info.Size()
			}
		}

		s.append(types.NewDirectoryEntry(cp, isDir, childDepth, size))

		if isDir && (s.opts.MaxDepth < 0 || childDepth < s.opts.MaxDepth) {
			chain, err := task.ignore.Extend(cp.String(), rel, s.opts.IgnoreFileName)
			if err != nil {
				s.logger.Debug().Str("path", cp.String()).Err(err).Msg("Failed to load ignore file")
			}
			children = append(children, dirTask{path: cp, depth: childDepth, ignore: chain})
		}
	}

	return children
}

func (s *scanState) append(e types.DirectoryEntry) {
	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()
	s.stats.EntriesFound.Add(1)
}

// markVisited reports false for a directory already listed. A directory
// swapped for a symlink mid-scan can resolve to one that is already queued.
func (s *scanState) markVisited(p types.CanonicalPath) bool {
	s.visitMu.Lock()
	defer s.visitMu.Unlock()
	if _, seen := s.visited[p]; seen {
		return false
	}
	s.visited[p] = struct{}{}
	return true
}

func (s *scanState) reportProgress() {
	if s.opts.Progress == nil {
		return
	}
	s.progress.Lock()
	defer s.progress.Unlock()
	s.opts.Progress(s.stats.DirsProcessed.Load(), s.stats.EntriesFound.Load())
}

// Scan walks root with default options, the given depth limit (negative for
// unlimited) and ignore patterns.
func Scan(ctx context.Context, root string, maxDepth int, ignorePatterns []string) []types.DirectoryEntry {
	opts := options.DefaultScanOptions()
	opts.MaxDepth = maxDepth
	opts.IgnorePatterns = ignorePatterns
	return NewConcurrentTraverser(zerolog.Nop()).Scan(ctx, root, opts)
}
