//go:build !unix

package fileops

import (
	"fmt"
	"unicode/utf8"

	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/common"

	"golang.org/x/exp/mmap"
)

// readMapped maps the file read-only through golang.org/x/exp/mmap, which
// wraps the platform's file mapping API.
func readMapped(path string) (string, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrMappingFailed, err)
	}
	defer r.Close()

	if r.Len() == 0 {
		return "", nil
	}

	buf := make([]byte, r.Len())
	if _, err := r.ReadAt(buf, 0); err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrMappingFailed, err)
	}
	if !utf8.Valid(buf) {
		return "", common.ErrInvalidUTF8
	}
	return string(buf), nil
}
