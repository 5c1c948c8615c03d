package patterns

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// IgnoreChain is the stack of ignore files in effect for a directory. Each
// link holds the rules of one directory's ignore file and applies them to
// paths relative to that directory. A nil *IgnoreChain ignores nothing.
type IgnoreChain struct {
	parent *IgnoreChain
	base   string // slash path of the owning directory relative to the scan root, "" for the root
	rules  *ignore.GitIgnore
}

// Extend returns the chain for dir, adding dir's ignore file when it exists.
// dirRel is dir relative to the scan root in slash form ("." or "" for the
// root). When there is no such file the receiver is returned unchanged.
func (c *IgnoreChain) Extend(dir, dirRel, fileName string) (*IgnoreChain, error) {
	if fileName == "" {
		return c, nil
	}

	ignorePath := filepath.Join(dir, fileName)
	info, err := os.Lstat(ignorePath)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return c, fmt.Errorf("error checking for %s file: %w", fileName, err)
	}
	if !info.Mode().IsRegular() {
		return c, nil
	}

	rules, err := ignore.CompileIgnoreFile(ignorePath)
	if err != nil {
		return c, fmt.Errorf("error reading %s file: %w", ignorePath, err)
	}

	if dirRel == "." {
		dirRel = ""
	}
	return &IgnoreChain{parent: c, base: dirRel, rules: rules}, nil
}

// Matches reports whether relPath (slash separated, relative to the scan
// root) is ignored by any ignore file in the chain.
func (c *IgnoreChain) Matches(relPath string, isDir bool) bool {
	for link := c; link != nil; link = link.parent {
		local := relPath
		if link.base != "" {
			prefix := link.base + "/"
			if !strings.HasPrefix(relPath, prefix) {
				continue
			}
			local = strings.TrimPrefix(relPath, prefix)
		}
		if link.rules.MatchesPath(local) {
			return true
		}
		// Directory-only rules ("build/") need the trailing slash.
		if isDir && link.rules.MatchesPath(local+"/") {
			return true
		}
	}
	return false
}

// Depth returns the number of ignore files in the chain.
func (c *IgnoreChain) Depth() int {
	n := 0
	for link := c; link != nil; link = link.parent {
		n++
	}
	return n
}
