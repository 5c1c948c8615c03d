package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/common"
	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/options"
	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/types"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type batchRecorder struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *batchRecorder) flush(paths []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, paths)
}

func (r *batchRecorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.batches...)
}

func TestDebouncer_BurstYieldsOneSortedBatch(t *testing.T) {
	rec := &batchRecorder{}
	d := NewDebouncer(50*time.Millisecond, 0, rec.flush)
	defer d.Close()

	for _, p := range []string{"c", "a", "b", "a", "c"} {
		d.Add(p)
	}
	assert.Equal(t, 3, d.Pending())

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, rec.snapshot()[0])
	assert.Zero(t, d.Pending())

	// Nothing further arrives once the batch is out.
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, rec.snapshot(), 1)
}

func TestDebouncer_FlushAndClose(t *testing.T) {
	t.Run("flush emits immediately", func(t *testing.T) {
		rec := &batchRecorder{}
		d := NewDebouncer(time.Hour, 0, rec.flush)
		defer d.Close()

		d.Add("x")
		d.Flush()
		assert.Equal(t, [][]string{{"x"}}, rec.snapshot())

		// An empty flush is a no-op.
		d.Flush()
		assert.Len(t, rec.snapshot(), 1)
	})

	t.Run("close drops pending", func(t *testing.T) {
		rec := &batchRecorder{}
		d := NewDebouncer(30*time.Millisecond, 0, rec.flush)

		d.Add("x")
		d.Close()
		d.Add("y")
		time.Sleep(100 * time.Millisecond)

		assert.Empty(t, rec.snapshot())
		assert.Zero(t, d.Pending())
	})
}

func TestDebouncer_MaxDelayCapsSteadyStream(t *testing.T) {
	rec := &batchRecorder{}
	d := NewDebouncer(80*time.Millisecond, 200*time.Millisecond, rec.flush)
	defer d.Close()

	// Keep the quiet window from ever elapsing.
	deadline := time.Now().Add(400 * time.Millisecond)
	for time.Now().Before(deadline) && len(rec.snapshot()) == 0 {
		d.Add("busy")
		time.Sleep(20 * time.Millisecond)
	}

	assert.NotEmpty(t, rec.snapshot(), "maxDelay should force a flush during a steady stream")
}

func newTestWatcher(t *testing.T, root string, ignore ...string) *FSNotifyWatcher {
	t.Helper()

	opts := options.DefaultWatchOptions()
	opts.Debounce = 200 * time.Millisecond
	opts.MaxDelay = time.Second
	opts.IgnorePatterns = ignore

	w, err := NewFSNotifyWatcher(root, opts, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

// collect gathers changed paths until want are all seen or timeout elapses.
func collect(t *testing.T, w Watcher, timeout time.Duration, want ...string) map[string]bool {
	t.Helper()

	seen := make(map[string]bool)
	done := func() bool {
		for _, p := range want {
			if !seen[p] {
				return false
			}
		}
		return len(want) > 0
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for !done() {
		select {
		case e, ok := <-w.Events():
			if !ok {
				return seen
			}
			if e.Type == types.EventChanged {
				for _, p := range e.Paths {
					seen[p] = true
				}
			}
		case <-timer.C:
			return seen
		}
	}
	return seen
}

func TestFSNotifyWatcher_ReportsChangesAndHonorsIgnores(t *testing.T) {
	w := newTestWatcher(t, t.TempDir(), "*.log")
	require.NoError(t, w.Start(context.Background()))
	root := w.Root().String()

	a := filepath.Join(root, "a.txt")
	b := filepath.Join(root, "b.txt")
	logFile := filepath.Join(root, "x.log")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(logFile, []byte("log"), 0o644))

	seen := collect(t, w, 3*time.Second, a, b)
	assert.True(t, seen[a])
	assert.True(t, seen[b])
	assert.False(t, seen[logFile], "ignored files must not be reported")
}

func TestFSNotifyWatcher_WatchesNewSubdirectories(t *testing.T) {
	w := newTestWatcher(t, t.TempDir())
	require.NoError(t, w.Start(context.Background()))
	root := w.Root().String()

	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	seen := collect(t, w, 3*time.Second, sub)
	require.True(t, seen[sub])

	nested := filepath.Join(sub, "nested.txt")
	require.NoError(t, os.WriteFile(nested, []byte("n"), 0o644))
	seen = collect(t, w, 3*time.Second, nested)
	assert.True(t, seen[nested], "files in a directory created after Start should be reported")
}

func TestFSNotifyWatcher_SkipsIgnoredDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "target"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))

	w := newTestWatcher(t, dir, "target")
	require.NoError(t, w.Start(context.Background()))
	root := w.Root().String()

	assert.NotContains(t, w.watcher.WatchList(), filepath.Join(root, "target"))
	assert.Contains(t, w.watcher.WatchList(), filepath.Join(root, "src"))

	hidden := filepath.Join(root, "target", "out.bin")
	visible := filepath.Join(root, "src", "main.go")
	require.NoError(t, os.WriteFile(hidden, []byte("bin"), 0o644))
	require.NoError(t, os.WriteFile(visible, []byte("package main"), 0o644))

	seen := collect(t, w, 3*time.Second, visible)
	assert.True(t, seen[visible])
	assert.False(t, seen[hidden])
}

func TestFSNotifyWatcher_InvalidRoot(t *testing.T) {
	_, err := NewFSNotifyWatcher(filepath.Join(t.TempDir(), "missing"), options.DefaultWatchOptions(), zerolog.Nop())
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = NewFSNotifyWatcher(file, options.DefaultWatchOptions(), zerolog.Nop())
	assert.ErrorIs(t, err, common.ErrNotDirectory)
}

func TestFSNotifyWatcher_CloseIsIdempotent(t *testing.T) {
	w := newTestWatcher(t, t.TempDir())
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())

	_, ok := <-w.Events()
	assert.False(t, ok, "events channel should be closed")
}

func TestWatchPaths_StopsWithContext(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	var (
		mu   sync.Mutex
		seen []string
	)
	errCh := make(chan error, 1)
	go func() {
		errCh <- WatchPaths(ctx, dir, options.WatchOptions{Debounce: 50 * time.Millisecond}, zerolog.Nop(), func(e types.Event) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, e.Paths...)
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), []byte("f"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("WatchPaths did not return after cancellation")
	}
}
