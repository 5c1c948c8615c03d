package cmd

import (
	"fmt"

	internal "github.com/ZanzyTHEbar/fsprompt/fsp"
	"github.com/ZanzyTHEbar/fsprompt/fsp/config"
	"github.com/ZanzyTHEbar/fsprompt/fsp/filesystem"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// app holds what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger zerolog.Logger
	fsys   *filesystem.FileSystem
}

func (a *app) init() error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Log.Level
	if a.logLevel != "" {
		level = a.logLevel
	}

	a.cfg = cfg
	a.logger = internal.GetLoggerWithLevel(level)
	a.fsys = filesystem.New(cfg, a.logger)
	return nil
}

// NewRootCommand creates and returns the root cobra command for fsp
func NewRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   internal.DefaultAppCMDShortCut,
		Short: "Scan and read directory trees without escaping the root",
		Long: `fsp walks a directory tree in parallel, filters it against ignore
patterns and ignore files, and reads the selected files with a strategy
chosen by size (direct read or memory map).

Every path is resolved through symlinks and checked against the root before
it is listed or read.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ./config.yaml or "+internal.DefaultGlobalConfigFile+")")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	cmd.AddCommand(newScanCommand(a))
	cmd.AddCommand(newReadCommand(a))
	cmd.AddCommand(newWatchCommand(a))

	return cmd
}
