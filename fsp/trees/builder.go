// Package trees assembles flat scan results into navigable structures.
package trees

import (
	"sort"

	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/types"
)

// Tree maps each directory to its direct children, sorted for display.
type Tree map[types.CanonicalPath][]types.DirectoryEntry

// BuildTree groups entries by parent. Each child list is sorted with
// directories first, then by name in byte order, then by full path. Entries
// without a parent are dropped. The input is not modified.
func BuildTree(entries []types.DirectoryEntry) Tree {
	tree := make(Tree)
	for _, e := range entries {
		if !e.HasParent {
			continue
		}
		tree[e.Parent] = append(tree[e.Parent], e)
	}

	for _, children := range tree {
		SortEntries(children)
	}
	return tree
}

// SortEntries orders entries in place: directories before files, then by name,
// then by path.
func SortEntries(entries []types.DirectoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return lessEntry(entries[i], entries[j])
	})
}

func lessEntry(a, b types.DirectoryEntry) bool {
	if a.IsDir != b.IsDir {
		return a.IsDir
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.Path.String() < b.Path.String()
}

// Children returns the sorted children of dir, or nil.
func (t Tree) Children(dir types.CanonicalPath) []types.DirectoryEntry {
	return t[dir]
}

// Walk visits the subtree under dir depth-first in display order. fn receives
// each entry with its depth relative to dir (1 for direct children).
// Returning false from fn skips that entry's children.
func (t Tree) Walk(dir types.CanonicalPath, fn func(e types.DirectoryEntry, level int) bool) {
	t.walk(dir, 1, fn)
}

func (t Tree) walk(dir types.CanonicalPath, level int, fn func(types.DirectoryEntry, int) bool) {
	for _, child := range t[dir] {
		if !fn(child, level) {
			continue
		}
		if child.IsDir {
			t.walk(child.Path, level+1, fn)
		}
	}
}
