package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem/types"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// newWatchCommand creates the 'fsp watch' command
func newWatchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <root>",
		Short: "Print batches of changed paths under root until interrupted",
		Long: `Watch root recursively and print each debounced batch of changed
paths. Configured ignore patterns apply; symlinked directories are not
followed. Stop with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			root, err := types.NewCanonicalPath(args[0])
			if err != nil {
				return fmt.Errorf("invalid root: %w", err)
			}

			stamp := color.New(color.Faint)
			errColor := color.New(color.FgRed)

			fmt.Fprintf(cmd.ErrOrStderr(), "watching %s\n", root)
			return a.fsys.Watch(cmd.Context(), root.String(), func(e types.Event) {
				ts := stamp.Sprint(e.Timestamp.Format(time.TimeOnly))
				switch e.Type {
				case types.EventChanged:
					fmt.Fprintf(out, "%s %d changed\n", ts, len(e.Paths))
					for _, p := range e.Paths {
						if rel, err := filepath.Rel(root.String(), p); err == nil {
							p = filepath.ToSlash(rel)
						}
						fmt.Fprintf(out, "  %s\n", p)
					}
				case types.EventError:
					errColor.Fprintf(out, "%s error: %v\n", ts, e.Err)
				}
			})
		},
	}

	return cmd
}
