//go:build unix

package fileops

import (
	"fmt"
	"math"
	"os"
	"runtime/debug"
	"unicode/utf8"

	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/common"

	"golang.org/x/sys/unix"
)

// readMapped maps the file read-only, validates the mapping as UTF-8 and
// copies it into a string. The size comes from the open descriptor, not from
// the earlier stat.
func readMapped(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", common.ErrNotRegular
	}

	size := info.Size()
	if size == 0 {
		return "", nil
	}
	if size > math.MaxInt {
		return "", fmt.Errorf("%w: %d bytes exceeds address space", common.ErrMappingFailed, size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrMappingFailed, err)
	}
	defer unix.Munmap(data)

	return copyMapped(data)
}

// copyMapped touches the mapping under SetPanicOnFault: a file truncated by
// another process while mapped raises SIGBUS on access.
func copyMapped(data []byte) (content string, err error) {
	prev := debug.SetPanicOnFault(true)
	defer func() {
		debug.SetPanicOnFault(prev)
		if r := recover(); r != nil {
			content = ""
			err = fmt.Errorf("%w: fault while reading mapping: %v", common.ErrMappingFailed, r)
		}
	}()

	if !utf8.Valid(data) {
		return "", common.ErrInvalidUTF8
	}
	return string(data), nil
}
