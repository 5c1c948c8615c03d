package types

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/common"
)

// CanonicalPath is an absolute, symlink-resolved, cleaned filesystem path.
//
// A CanonicalPath denoted an existing entry when it was built; the entry may
// have changed since. Values compare with == by resolved path and can be used
// as map keys. The zero value is not a valid path (see IsZero).
type CanonicalPath struct {
	path string
}

// NewCanonicalPath resolves path to its absolute form, following and
// collapsing symlinks and normalizing "." and ".." segments. It fails when the
// path does not exist or cannot be resolved.
func NewCanonicalPath(path string) (CanonicalPath, error) {
	if path == "" {
		return CanonicalPath{}, &os.PathError{Op: "canonicalize", Path: path, Err: common.ErrPathEmpty}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return CanonicalPath{}, &os.PathError{Op: "canonicalize", Path: path, Err: err}
	}

	// EvalSymlinks lstat's every component, so a missing path or a dangling
	// link fails here.
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return CanonicalPath{}, err
	}

	return CanonicalPath{path: filepath.Clean(resolved)}, nil
}

// NewCanonicalPathWithinRoot resolves path like NewCanonicalPath and then
// requires the result to lie within root. A containment failure returns a
// *common.TraversalError, which matches common.ErrPathTraversal and
// fs.ErrPermission under errors.Is.
func NewCanonicalPathWithinRoot(path string, root CanonicalPath) (CanonicalPath, error) {
	if root.IsZero() {
		return CanonicalPath{}, fmt.Errorf("invalid root for %s: %w", path, common.ErrPathEmpty)
	}

	cp, err := NewCanonicalPath(path)
	if err != nil {
		return CanonicalPath{}, err
	}

	if !cp.IsContainedWithin(root) {
		return CanonicalPath{}, &common.TraversalError{Path: cp.path, Root: root.path}
	}

	return cp, nil
}

// MustCanonicalPath is like NewCanonicalPath but panics on error. Intended for
// tests and package initialisation.
func MustCanonicalPath(path string) CanonicalPath {
	cp, err := NewCanonicalPath(path)
	if err != nil {
		panic(err)
	}
	return cp
}

// IsContainedWithin reports whether cp equals root or lies beneath it.
// The check respects segment boundaries: /root-other is not within /root.
func (cp CanonicalPath) IsContainedWithin(root CanonicalPath) bool {
	if cp.IsZero() || root.IsZero() {
		return false
	}
	if cp.path == root.path {
		return true
	}

	prefix := root.path
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(cp.path, prefix)
}

// String returns the resolved path.
func (cp CanonicalPath) String() string {
	return cp.path
}

// IsZero reports whether cp is the zero value.
func (cp CanonicalPath) IsZero() bool {
	return cp.path == ""
}

// Name returns the last element of the path.
func (cp CanonicalPath) Name() string {
	if cp.IsZero() {
		return ""
	}
	return filepath.Base(cp.path)
}

// Parent returns the canonical parent directory. It reports false at the
// filesystem root or when the parent can no longer be resolved.
func (cp CanonicalPath) Parent() (CanonicalPath, bool) {
	if cp.IsZero() {
		return CanonicalPath{}, false
	}

	dir := filepath.Dir(cp.path)
	if dir == cp.path {
		return CanonicalPath{}, false
	}

	parent, err := NewCanonicalPath(dir)
	if err != nil {
		return CanonicalPath{}, false
	}
	return parent, true
}

// lexicalParent strips the last element. The directory of a resolved path is
// itself resolved, so no filesystem access is needed.
func (cp CanonicalPath) lexicalParent() (CanonicalPath, bool) {
	if cp.IsZero() {
		return CanonicalPath{}, false
	}
	dir := filepath.Dir(cp.path)
	if dir == cp.path {
		return CanonicalPath{}, false
	}
	return CanonicalPath{path: dir}, true
}

// Join appends elem to cp without touching the filesystem. The result is not
// canonical until it has been passed through NewCanonicalPath.
func (cp CanonicalPath) Join(elem ...string) string {
	return filepath.Join(append([]string{cp.path}, elem...)...)
}

// Rel returns cp relative to root using forward slashes, "." for root itself.
// The second result is false when cp is not within root.
func (cp CanonicalPath) Rel(root CanonicalPath) (string, bool) {
	if !cp.IsContainedWithin(root) {
		return "", false
	}
	rel, err := filepath.Rel(root.path, cp.path)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Depth returns the number of path segments between root and cp, 0 for root.
func (cp CanonicalPath) Depth(root CanonicalPath) int {
	rel, ok := cp.Rel(root)
	if !ok || rel == "." {
		return 0
	}
	return strings.Count(rel, "/") + 1
}
