package types

// DirectoryEntry is one file or directory found by a scan. Parent is valid
// only when HasParent is true. Depth counts segments below the scan root, so
// the root's children have depth 1.
type DirectoryEntry struct {
	Path      CanonicalPath
	IsDir     bool
	Name      string
	Parent    CanonicalPath
	HasParent bool
	Depth     int
	Size      int64
}

// NewDirectoryEntry builds an entry for path, deriving its name and parent
// lexically from the canonical form.
func NewDirectoryEntry(path CanonicalPath, isDir bool, depth int, size int64) DirectoryEntry {
	e := DirectoryEntry{
		Path:  path,
		IsDir: isDir,
		Name:  path.Name(),
		Depth: depth,
	}
	if !isDir {
		e.Size = size
	}
	if parent, ok := path.lexicalParent(); ok {
		e.Parent = parent
		e.HasParent = true
	}
	return e
}
