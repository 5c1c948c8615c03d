package internal

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	// DefaultConfigPath is the default path to the config directory
	DefaultAppName          = "fsp"
	DefaultAppCMDShortCut   = "fsp"
	DefaultConfigPath       = filepath.Join(getHomeDir(), ".config", DefaultAppName)
	DefaultGlobalConfigFile = filepath.Join(DefaultConfigPath, "config.yaml")
	DefaultEnvPrefix        = strings.ToUpper(DefaultAppName)

	// Scanner defaults
	DefaultMaxScanWorkers = 8
	DefaultMaxDepth       = -1 // Unlimited

	// Reader defaults
	DefaultMmapThreshold int64 = 256 * 1024

	// Watcher defaults
	DefaultDebounceDelay    = 500 * time.Millisecond
	DefaultMaxDebounceDelay = 2 * time.Second

	DefaultLogLevel = "info"
)

// DefaultScanWorkers caps the walk at DefaultMaxScanWorkers; the walk is
// I/O bound and more goroutines only add scheduling overhead.
func DefaultScanWorkers() int {
	return min(runtime.NumCPU(), DefaultMaxScanWorkers)
}

// DefaultReadWorkers returns the worker count used for batch reads.
func DefaultReadWorkers() int {
	return max(runtime.NumCPU(), 1)
}

func getHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current working directory if home directory is unavailable
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			log.Printf("Unable to get home or working directory, using /tmp: %v", err)
			return "/tmp"
		}
		log.Printf("Unable to get home directory, using current working directory: %v", err)
		return cwd
	}
	return homeDir
}

// GetLogger returns a properly configured zerolog logger instance
func GetLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// GetLoggerWithLevel returns the process logger filtered at the named level.
// Unknown level names fall back to info.
func GetLoggerWithLevel(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return GetLogger().Level(lvl)
}
