package trees

import (
	"testing"

	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTree(t *testing.T) {
	f := newFixture(t,
		"zeta.txt",
		"Alpha.txt",
		"beta/",
		"Gamma/",
		"beta/inner.go",
		"apple.txt",
	)

	tree := BuildTree(f.entries)

	t.Run("groups by parent", func(t *testing.T) {
		require.Len(t, tree, 2)
		assert.Len(t, tree.Children(f.root), 5)
		assert.Equal(t, []string{"inner.go"}, names(tree.Children(f.path(t, "beta"))))
	})

	t.Run("directories first then byte order", func(t *testing.T) {
		// Byte order puts upper case before lower case.
		assert.Equal(t,
			[]string{"Gamma", "beta", "Alpha.txt", "apple.txt", "zeta.txt"},
			names(tree.Children(f.root)))
	})

	t.Run("input is not reordered", func(t *testing.T) {
		assert.Equal(t, "zeta.txt", f.entries[0].Name)
	})
}

func TestBuildTreeDropsParentless(t *testing.T) {
	tree := BuildTree([]types.DirectoryEntry{{Name: "orphan"}})
	assert.Empty(t, tree)

	assert.Empty(t, BuildTree(nil))
}

func TestTreeWalk(t *testing.T) {
	f := newFixture(t, "b.txt", "a/", "a/c.txt", "a/d/", "a/d/e.txt")
	tree := BuildTree(f.entries)

	type visit struct {
		name  string
		level int
	}
	var visits []visit
	tree.Walk(f.root, func(e types.DirectoryEntry, level int) bool {
		visits = append(visits, visit{e.Name, level})
		return e.Name != "d"
	})

	assert.Equal(t, []visit{
		{"a", 1},
		{"d", 2},
		{"c.txt", 2},
		{"b.txt", 1},
	}, visits)
}
