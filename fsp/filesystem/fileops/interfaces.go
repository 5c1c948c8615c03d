package fileops

import (
	"context"

	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/options"
	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/types"
)

// FileReader defines the interface for batch content reads
type FileReader interface {
	// ReadFiles re-validates every path against root before reading it.
	ReadFiles(ctx context.Context, paths []types.CanonicalPath, root types.CanonicalPath, opts options.ReadOptions) []types.FileReadOutcome
	// ReadFilesUnchecked reads paths without root validation.
	ReadFilesUnchecked(ctx context.Context, paths []types.CanonicalPath, opts options.ReadOptions) []types.FileReadOutcome
}

var _ FileReader = (*Reader)(nil)
