// Package fileops reads file contents in parallel, choosing between a direct
// read and a memory map per file.
package fileops

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/common"
	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/types"
)

// SelectStrategy picks the read strategy for a file of size bytes. Files
// strictly smaller than threshold are read directly; a threshold <= 0 means
// the default.
func SelectStrategy(size, threshold int64) types.ReadStrategy {
	if threshold <= 0 {
		threshold = defaultThreshold()
	}
	if size < threshold {
		return types.StrategyDirect
	}
	return types.StrategyMemoryMapped
}

// ReadFile reads a single file as UTF-8 text with the given strategy.
func ReadFile(path string, strategy types.ReadStrategy) (string, error) {
	switch strategy {
	case types.StrategyDirect:
		return readDirect(path)
	case types.StrategyMemoryMapped:
		return readMapped(path)
	default:
		return "", fmt.Errorf("unknown read strategy %d", strategy)
	}
}

func readDirect(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", common.ErrInvalidUTF8
	}
	return string(data), nil
}

// statRegular returns the size of a regular file. Anything else would block
// or fail inside the read.
func statRegular(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, common.ErrNotRegular
	}
	return info.Size(), nil
}
