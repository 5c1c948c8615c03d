package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/fsprompt/fsp/config"
	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/common"
	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/fileops"
	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/options"
	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/types"
	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/watcher"
	"github.com/ZanzyTHEbar/fsprompt/fsp/trees"

	"github.com/rs/zerolog"
)

// FileSystem ties the scanner, reader and watcher together behind the
// loaded configuration.
type FileSystem struct {
	cfg       *config.Config
	logger    zerolog.Logger
	traverser *ConcurrentTraverser
	reader    fileops.FileReader
}

// Snapshot is the result of scanning one root.
type Snapshot struct {
	Root    types.CanonicalPath
	Entries []types.DirectoryEntry
	Tree    trees.Tree
	Index   *trees.PathIndex
}

// Files returns every scanned regular file in path order.
func (s *Snapshot) Files() []types.CanonicalPath {
	return s.Index.Files(s.Root)
}

// New creates a filesystem manager. A nil cfg uses config.Default.
func New(cfg *config.Config, logger zerolog.Logger) *FileSystem {
	if cfg == nil {
		cfg = config.Default()
	}
	return &FileSystem{
		cfg:       cfg,
		logger:    logger,
		traverser: NewConcurrentTraverser(logger),
		reader:    fileops.NewReader(logger),
	}
}

// ScanOptions returns scan options populated from the configuration.
func (fsys *FileSystem) ScanOptions() options.ScanOptions {
	opts := options.DefaultScanOptions()
	opts.MaxDepth = fsys.cfg.Scan.MaxDepth
	opts.Workers = fsys.cfg.Scan.Workers
	opts.IgnorePatterns = append([]string(nil), fsys.cfg.Scan.IgnorePatterns...)
	opts.IgnoreFileName = fsys.cfg.Scan.IgnoreFileName
	return opts
}

// ReadOptions returns read options populated from the configuration.
func (fsys *FileSystem) ReadOptions() options.ReadOptions {
	opts := options.DefaultReadOptions()
	opts.MmapThreshold = fsys.cfg.Read.MmapThreshold
	opts.MaxFileSize = fsys.cfg.Read.MaxFileSize
	opts.Workers = fsys.cfg.Read.Workers
	return opts
}

// WatchOptions returns watch options populated from the configuration. The
// scan ignore patterns apply to the watcher as well.
func (fsys *FileSystem) WatchOptions() options.WatchOptions {
	opts := options.DefaultWatchOptions()
	opts.Debounce = fsys.cfg.Watch.Debounce
	if fsys.cfg.Watch.MaxDelay > 0 {
		opts.MaxDelay = fsys.cfg.Watch.MaxDelay
	}
	opts.IgnorePatterns = append([]string(nil), fsys.cfg.Scan.IgnorePatterns...)
	return opts
}

// Scan walks root and assembles the tree and path index. Unlike the
// package-level Scan, an unusable root is reported as an error.
func (fsys *FileSystem) Scan(ctx context.Context, root string, opts options.ScanOptions) (*Snapshot, error) {
	cp, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}

	entries := fsys.traverser.Scan(ctx, cp.String(), opts)
	snap := &Snapshot{
		Root:    cp,
		Entries: entries,
		Tree:    trees.BuildTree(entries),
		Index:   trees.IndexEntries(entries),
	}

	if err := ctx.Err(); err != nil {
		return snap, fmt.Errorf("scan of %s interrupted: %w", cp, common.ErrCancelled)
	}
	return snap, nil
}

// ReadFiles reads paths under root. Relative paths are taken relative to root.
// The result holds one outcome per input path, in input order. A path that
// does not resolve yields an OutcomeError and the rest are still read.
// Progress totals count only the paths that resolved.
func (fsys *FileSystem) ReadFiles(ctx context.Context, root string, paths []string, opts options.ReadOptions) ([]types.FileReadOutcome, error) {
	cp, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}

	outcomes, resolved, slots := ResolvePaths(cp, paths)
	for i, o := range fsys.reader.ReadFiles(ctx, resolved, cp, opts) {
		outcomes[slots[i]] = o
	}
	return outcomes, nil
}

// ReadSnapshot reads every file in snap.
func (fsys *FileSystem) ReadSnapshot(ctx context.Context, snap *Snapshot, opts options.ReadOptions) []types.FileReadOutcome {
	return fsys.reader.ReadFiles(ctx, snap.Files(), snap.Root, opts)
}

// Watch reports debounced changes below root to handler until ctx is done.
func (fsys *FileSystem) Watch(ctx context.Context, root string, handler func(types.Event)) error {
	return watcher.WatchPaths(ctx, root, fsys.WatchOptions(), fsys.logger, handler)
}

// ResolvePaths canonicalizes paths, joining relative ones onto root. It
// returns one outcome slot per input, pre-filled with an OutcomeError for
// each path that failed to resolve, plus the resolved paths and the slot each
// one belongs to. Containment is left to the reader so that escaping paths
// surface as security outcomes.
func ResolvePaths(root types.CanonicalPath, paths []string) (outcomes []types.FileReadOutcome, resolved []types.CanonicalPath, slots []int) {
	outcomes = make([]types.FileReadOutcome, len(paths))
	resolved = make([]types.CanonicalPath, 0, len(paths))
	slots = make([]int, 0, len(paths))

	for i, p := range paths {
		if !filepath.IsAbs(p) {
			p = root.Join(p)
		}
		cp, err := types.NewCanonicalPath(p)
		if err != nil {
			outcomes[i] = types.FileReadOutcome{
				Kind: types.OutcomeError,
				Err:  common.Describe("read", p, err),
			}
			continue
		}
		resolved = append(resolved, cp)
		slots = append(slots, i)
	}
	return outcomes, resolved, slots
}

func resolveRoot(root string) (types.CanonicalPath, error) {
	cp, err := types.NewCanonicalPath(root)
	if err != nil {
		return types.CanonicalPath{}, fmt.Errorf("invalid root: %w", err)
	}
	info, err := os.Stat(cp.String())
	if err != nil {
		return types.CanonicalPath{}, fmt.Errorf("invalid root: %w", err)
	}
	if !info.IsDir() {
		return types.CanonicalPath{}, fmt.Errorf("invalid root %s: %w", cp, common.ErrNotDirectory)
	}
	return cp, nil
}
