package trees

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/types"

	"github.com/armon/go-radix"
)

// PathIndex provides O(k) path lookups and subtree queries over scan results
// using a compressed trie (patricia tree), where k is the length of the path
// being searched.
type PathIndex struct {
	tree *radix.Tree
	mu   sync.RWMutex
}

// NewPathIndex creates an empty index.
func NewPathIndex() *PathIndex {
	return &PathIndex{tree: radix.New()}
}

// IndexEntries builds an index from scan results.
func IndexEntries(entries []types.DirectoryEntry) *PathIndex {
	idx := NewPathIndex()
	for _, e := range entries {
		idx.Insert(e)
	}
	return idx
}

// Insert adds or replaces an entry. It reports whether the path was new.
func (idx *PathIndex) Insert(e types.DirectoryEntry) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	_, updated := idx.tree.Insert(e.Path.String(), e)
	return !updated
}

// Remove deletes the entry at path and reports whether it existed.
func (idx *PathIndex) Remove(path types.CanonicalPath) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	_, deleted := idx.tree.Delete(path.String())
	return deleted
}

// Lookup finds an entry by its exact path.
func (idx *PathIndex) Lookup(path types.CanonicalPath) (types.DirectoryEntry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	value, found := idx.tree.Get(path.String())
	if !found {
		return types.DirectoryEntry{}, false
	}
	return value.(types.DirectoryEntry), true
}

// Descendants returns every indexed entry strictly below dir, in path order.
// Siblings sharing a name prefix (/a/b-other for /a/b) are excluded.
func (idx *PathIndex) Descendants(dir types.CanonicalPath) []types.DirectoryEntry {
	prefix := dir.String()
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var results []types.DirectoryEntry
	idx.tree.WalkPrefix(prefix, func(_ string, value interface{}) bool {
		results = append(results, value.(types.DirectoryEntry))
		return false // Continue walking
	})
	return results
}

// Files returns the regular files strictly below dir, in path order. This is
// the set selected when a whole directory is chosen for reading.
func (idx *PathIndex) Files(dir types.CanonicalPath) []types.CanonicalPath {
	var files []types.CanonicalPath
	for _, e := range idx.Descendants(dir) {
		if !e.IsDir {
			files = append(files, e.Path)
		}
	}
	return files
}

// Len returns the number of indexed entries.
func (idx *PathIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.tree.Len()
}
