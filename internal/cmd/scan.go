package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem"
	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/options"
	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/types"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type scanFlags struct {
	maxDepth   int
	ignore     []string
	ignoreFile string
}

// register adds the scan flags to cmd.
func (f *scanFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.maxDepth, "max-depth", -1, "maximum depth below root (-1 = unlimited)")
	cmd.Flags().StringSliceVar(&f.ignore, "ignore", nil, "additional ignore pattern, glob or regex (repeatable)")
	cmd.Flags().StringVar(&f.ignoreFile, "ignore-file", "", "per-directory ignore file, e.g. .gitignore")
}

// apply overlays flags the user set onto the configured options.
func (f *scanFlags) apply(cmd *cobra.Command, opts options.ScanOptions) options.ScanOptions {
	if cmd.Flags().Changed("max-depth") {
		opts.MaxDepth = f.maxDepth
	}
	opts.IgnorePatterns = append(opts.IgnorePatterns, f.ignore...)
	if cmd.Flags().Changed("ignore-file") {
		opts.IgnoreFileName = f.ignoreFile
	}
	return opts
}

// newScanCommand creates the 'fsp scan' command
func newScanCommand(a *app) *cobra.Command {
	flags := &scanFlags{}

	cmd := &cobra.Command{
		Use:   "scan <root>",
		Short: "Print the filtered directory tree under root",
		Long: `Scan root and print every entry that survives the ignore rules,
directories first and then by name.

Examples:
  fsp scan .
  fsp scan ~/src/project --ignore target --ignore '*.log' --ignore-file .gitignore
  fsp scan . --max-depth 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.apply(cmd, a.fsys.ScanOptions())

			snap, err := a.fsys.Scan(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}

			printTree(cmd.OutOrStdout(), snap)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func printTree(w io.Writer, snap *filesystem.Snapshot) {
	dirColor := color.New(color.FgBlue, color.Bold)

	dirColor.Fprintln(w, snap.Root.String())

	var dirs, files int
	snap.Tree.Walk(snap.Root, func(e types.DirectoryEntry, level int) bool {
		indent := strings.Repeat("  ", level)
		if e.IsDir {
			dirs++
			fmt.Fprintf(w, "%s%s/\n", indent, dirColor.Sprint(e.Name))
		} else {
			files++
			fmt.Fprintf(w, "%s%s\n", indent, e.Name)
		}
		return true
	})

	fmt.Fprintf(w, "\n%d directories, %d files\n", dirs, files)
}
