package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	internal "github.com/ZanzyTHEbar/fsprompt/fsp"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Scan  ScanConfig  `mapstructure:"scan"`
	Read  ReadConfig  `mapstructure:"read"`
	Watch WatchConfig `mapstructure:"watch"`
	Log   LogConfig   `mapstructure:"log"`
}

// ScanConfig stores directory scanner settings.
type ScanConfig struct {
	MaxDepth       int      `mapstructure:"maxDepth"`
	Workers        int      `mapstructure:"workers"`
	IgnorePatterns []string `mapstructure:"ignorePatterns"`
	IgnoreFileName string   `mapstructure:"ignoreFileName"`
}

// ReadConfig stores batch reader settings.
type ReadConfig struct {
	MmapThreshold int64 `mapstructure:"mmapThreshold"`
	MaxFileSize   int64 `mapstructure:"maxFileSize"`
	Workers       int   `mapstructure:"workers"`
}

// WatchConfig stores watcher settings.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
	MaxDelay time.Duration `mapstructure:"maxDelay"`
}

// LogConfig stores logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LoadConfig reads configuration from file or environment variables.
// An empty configPath searches the default locations; a missing file there is
// not an error. An explicit configPath must exist.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix(internal.DefaultEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // scan.maxDepth -> FSP_SCAN_MAXDEPTH
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	cfg.normalize()
	return &cfg, nil
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	cfg := &Config{
		Scan: ScanConfig{
			MaxDepth:       internal.DefaultMaxDepth,
			Workers:        internal.DefaultScanWorkers(),
			IgnorePatterns: []string{},
		},
		Read: ReadConfig{
			MmapThreshold: internal.DefaultMmapThreshold,
			Workers:       internal.DefaultReadWorkers(),
		},
		Watch: WatchConfig{
			Debounce: internal.DefaultDebounceDelay,
			MaxDelay: internal.DefaultMaxDebounceDelay,
		},
		Log: LogConfig{Level: internal.DefaultLogLevel},
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("scan.maxDepth", d.Scan.MaxDepth)
	v.SetDefault("scan.workers", d.Scan.Workers)
	v.SetDefault("scan.ignorePatterns", d.Scan.IgnorePatterns)
	v.SetDefault("scan.ignoreFileName", "")
	v.SetDefault("read.mmapThreshold", d.Read.MmapThreshold)
	v.SetDefault("read.maxFileSize", 0)
	v.SetDefault("read.workers", d.Read.Workers)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("watch.maxDelay", d.Watch.MaxDelay)
	v.SetDefault("log.level", d.Log.Level)
}

// normalize repairs values that would otherwise disable a component.
func (c *Config) normalize() {
	if c.Scan.Workers <= 0 {
		c.Scan.Workers = internal.DefaultScanWorkers()
	}
	if c.Read.Workers <= 0 {
		c.Read.Workers = internal.DefaultReadWorkers()
	}
	if c.Read.MmapThreshold <= 0 {
		c.Read.MmapThreshold = internal.DefaultMmapThreshold
	}
	if c.Read.MaxFileSize < 0 {
		c.Read.MaxFileSize = 0
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = internal.DefaultDebounceDelay
	}
	if c.Watch.MaxDelay < c.Watch.Debounce {
		c.Watch.MaxDelay = max(internal.DefaultMaxDebounceDelay, c.Watch.Debounce)
	}
	if c.Scan.IgnorePatterns == nil {
		c.Scan.IgnorePatterns = []string{}
	}
	// Comma-separated env values arrive as a single element.
	if len(c.Scan.IgnorePatterns) == 1 && strings.Contains(c.Scan.IgnorePatterns[0], ",") {
		c.Scan.IgnorePatterns = SplitPatterns(c.Scan.IgnorePatterns[0])
	}
}

// SplitPatterns splits a comma-separated pattern list, trimming blanks.
func SplitPatterns(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
