package cmd

import (
	"fmt"
	"io"
	"sync"

	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/fileops"
	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/types"

	"github.com/cespare/xxhash/v2"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v2"
	"github.com/spf13/cobra"
)

type readFlags struct {
	mmapThreshold int64
	maxFileSize   int64
	workers       int
	digest        bool
	noProgress    bool
}

// newReadCommand creates the 'fsp read' command
func newReadCommand(a *app) *cobra.Command {
	flags := &readFlags{}
	scan := &scanFlags{}

	cmd := &cobra.Command{
		Use:   "read <root> [path]...",
		Short: "Read files under root",
		Long: `Read the given files, or every scanned file when none are given.
Relative paths are taken relative to root. Files that resolve outside root
are refused.

Exit code: 0 if every file was read, 1 otherwise`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(cmd, a, flags, scan, args[0], args[1:])
		},
	}

	cmd.Flags().Int64Var(&flags.mmapThreshold, "mmap-threshold", 0, "memory map files of at least this many bytes (0 = config)")
	cmd.Flags().Int64Var(&flags.maxFileSize, "max-file-size", 0, "refuse files larger than this many bytes (0 = config)")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "concurrent readers (0 = config)")
	cmd.Flags().BoolVar(&flags.digest, "digest", false, "print an xxhash64 digest per file instead of its content")
	cmd.Flags().BoolVar(&flags.noProgress, "no-progress", false, "disable the progress bar")
	scan.register(cmd)

	return cmd
}

func runRead(cmd *cobra.Command, a *app, flags *readFlags, scan *scanFlags, root string, paths []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	rootPath, err := types.NewCanonicalPath(root)
	if err != nil {
		return fmt.Errorf("invalid root: %w", err)
	}

	opts := a.fsys.ReadOptions()
	if flags.mmapThreshold > 0 {
		opts.MmapThreshold = flags.mmapThreshold
	}
	if flags.maxFileSize > 0 {
		opts.MaxFileSize = flags.maxFileSize
	}
	if flags.workers > 0 {
		opts.Workers = flags.workers
	}

	var bar *progressBar
	if !flags.noProgress {
		bar = &progressBar{w: errOut}
		opts.Progress = bar.update
	}

	var outcomes []types.FileReadOutcome
	if len(paths) == 0 {
		snap, err := a.fsys.Scan(ctx, rootPath.String(), scan.apply(cmd, a.fsys.ScanOptions()))
		if err != nil {
			return err
		}
		outcomes = a.fsys.ReadSnapshot(ctx, snap, opts)
	} else {
		outcomes, err = a.fsys.ReadFiles(ctx, rootPath.String(), paths, opts)
		if err != nil {
			return err
		}
	}
	bar.finish()

	for i, o := range outcomes {
		input := ""
		if len(paths) > 0 {
			input = paths[i]
		}
		printOutcome(out, rootPath, o, input, flags.digest)
	}

	summary := fileops.Summarize(outcomes)
	fmt.Fprintf(errOut, "%d files: %d read (%d direct, %d mmap, %d bytes), %d failed, %d refused, %d cancelled\n",
		summary.Total, summary.Succeeded, summary.Direct, summary.MemoryMapped, summary.Bytes,
		summary.Failed, summary.SecurityErrors, summary.Cancelled)

	if !summary.OK() {
		return fmt.Errorf("%d of %d files could not be read", summary.Total-summary.Succeeded, summary.Total)
	}
	return nil
}

// printOutcome writes one result. input names the file when it never
// resolved to a path.
func printOutcome(w io.Writer, root types.CanonicalPath, o types.FileReadOutcome, input string, digest bool) {
	name := input
	if !o.Path.IsZero() {
		name = o.Path.String()
		if rel, ok := o.Path.Rel(root); ok {
			name = rel
		}
	}

	switch o.Kind {
	case types.OutcomeSuccess:
		if digest {
			fmt.Fprintf(w, "%016x  %s\n", xxhash.Sum64String(o.Content), name)
			return
		}
		color.New(color.FgGreen).Fprintf(w, "==> %s (%s, %d bytes) <==\n", name, o.Strategy, len(o.Content))
		fmt.Fprintln(w, o.Content)
	case types.OutcomeSecurityError:
		color.New(color.FgRed, color.Bold).Fprintf(w, "DENY %s: %s\n", name, o.ErrorMessage())
	case types.OutcomeCancelled:
		color.New(color.FgYellow).Fprintf(w, "SKIP %s: %s\n", name, o.ErrorMessage())
	default:
		color.New(color.FgRed).Fprintf(w, "FAIL %s: %s\n", name, o.ErrorMessage())
	}
}

// progressBar renders read progress. Updates arrive from reader goroutines
// and may be out of order.
type progressBar struct {
	w    io.Writer
	mu   sync.Mutex
	bar  *progressbar.ProgressBar
	done int
}

func (p *progressBar) update(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		p.bar = progressbar.NewOptions(total, progressbar.OptionSetWriter(p.w))
	}
	if done > p.done {
		p.done = done
		_ = p.bar.Set(done)
	}
}

func (p *progressBar) finish() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		_ = p.bar.Finish()
		fmt.Fprintln(p.w)
	}
}
