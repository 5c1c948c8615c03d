package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// setupProject creates a small tree and a config file that keeps logging quiet.
func setupProject(t *testing.T) (root, configPath string) {
	t.Helper()

	root = t.TempDir()
	files := map[string]string{
		"README.md":      "# project\n",
		"src/main.go":    "package main\n",
		"src/util.go":    "package main\n\nfunc util() {}\n",
		"target/out.bin": "binary",
		"debug.log":      "noise",
	}
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}

	configPath = filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("log:\n  level: error\n"), 0o644))
	return root, configPath
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestScanCommand(t *testing.T) {
	root, cfg := setupProject(t)

	out, _, err := execute(t, "--config", cfg, "scan", root, "--ignore", "target", "--ignore", "*.log")
	require.NoError(t, err)

	assert.Contains(t, out, "  src/\n")
	assert.Contains(t, out, "    main.go\n")
	assert.Contains(t, out, "    util.go\n")
	assert.Contains(t, out, "  README.md\n")
	assert.NotContains(t, out, "target")
	assert.NotContains(t, out, "debug.log")
	assert.Contains(t, out, "1 directories, 3 files")

	// Directories are listed before files.
	assert.Less(t, strings.Index(out, "src/"), strings.Index(out, "README.md"))
}

func TestScanCommandMaxDepth(t *testing.T) {
	root, cfg := setupProject(t)

	out, _, err := execute(t, "--config", cfg, "scan", root, "--max-depth", "1")
	require.NoError(t, err)

	assert.Contains(t, out, "  src/\n")
	assert.NotContains(t, out, "main.go")
}

func TestScanCommandInvalidRoot(t *testing.T) {
	_, cfg := setupProject(t)

	_, _, err := execute(t, "--config", cfg, "scan", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestReadCommandDigest(t *testing.T) {
	root, cfg := setupProject(t)

	out, errOut, err := execute(t, "--config", cfg, "read", root, "src/main.go", "README.md", "--digest", "--no-progress")
	require.NoError(t, err)

	assert.Contains(t, out, fmt.Sprintf("%016x  src/main.go", xxhash.Sum64String("package main\n")))
	assert.Contains(t, out, fmt.Sprintf("%016x  README.md", xxhash.Sum64String("# project\n")))
	assert.Contains(t, errOut, "2 files: 2 read")
}

func TestReadCommandWholeTree(t *testing.T) {
	root, cfg := setupProject(t)

	out, errOut, err := execute(t, "--config", cfg, "read", root, "--ignore", "target", "--ignore", "*.log")
	require.NoError(t, err)

	assert.Contains(t, out, "==> src/util.go (direct,")
	assert.Contains(t, out, "func util() {}")
	assert.NotContains(t, out, "binary")
	assert.Contains(t, errOut, "3 files: 3 read")
}

func TestReadCommandMmapThreshold(t *testing.T) {
	root, cfg := setupProject(t)

	out, _, err := execute(t, "--config", cfg, "read", root, "src/util.go", "--mmap-threshold", "4", "--no-progress")
	require.NoError(t, err)
	assert.Contains(t, out, "==> src/util.go (mmap,")
}

func TestReadCommandFailures(t *testing.T) {
	root, cfg := setupProject(t)
	outside := filepath.Join(filepath.Dir(root), "outside.txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o644))
	t.Cleanup(func() { os.Remove(outside) })

	t.Run("refused path exits non-zero", func(t *testing.T) {
		out, _, err := execute(t, "--config", cfg, "read", root, "README.md", outside, "--no-progress")
		require.Error(t, err)
		assert.Contains(t, out, "DENY")
		assert.NotContains(t, out, "secret")
		assert.Contains(t, out, "# project")
	})

	t.Run("too large", func(t *testing.T) {
		out, _, err := execute(t, "--config", cfg, "read", root, "src/util.go", "--max-file-size", "4", "--no-progress")
		require.Error(t, err)
		assert.Contains(t, out, "FAIL src/util.go")
	})

	t.Run("missing path", func(t *testing.T) {
		_, _, err := execute(t, "--config", cfg, "read", root, "nope.go")
		assert.Error(t, err)
	})

	t.Run("missing path does not hide the others", func(t *testing.T) {
		out, errOut, err := execute(t, "--config", cfg, "read", root, "README.md", "nope.go", "src/main.go", "--no-progress")
		require.Error(t, err)
		assert.Contains(t, out, "# project")
		assert.Contains(t, out, "package main")
		assert.Contains(t, out, "FAIL nope.go: ")
		assert.Contains(t, out, "may not exist")
		assert.Contains(t, errOut, "3 files: 2 read")
	})
}

func TestWatchCommandStopsOnCancel(t *testing.T) {
	root, cfg := setupProject(t)

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", cfg, "watch", root})

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, cmd.ExecuteContext(ctx))
}

func TestBadConfigFails(t *testing.T) {
	root, _ := setupProject(t)

	_, _, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "scan", root)
	assert.Error(t, err)
}
