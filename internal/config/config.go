// Package config provides configuration management for assetpipe using Viper
// for loading from files, environment variables, and command-line flags.
//
// The configuration system supports YAML files, environment variable overrides
// with the ASSETPIPE_ prefix, and validation. It holds the project root, the
// distribution output and source globs, transform settings, the development
// watcher and the log file settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ProjectRoot string           `mapstructure:"project_root" yaml:"project_root"`
	Distribute  DistributeConfig `mapstructure:"distribute" yaml:"distribute"`
	Transform   TransformConfig  `mapstructure:"transform" yaml:"transform"`
	Watch       WatchConfig      `mapstructure:"watch" yaml:"watch"`
	Log         LogConfig        `mapstructure:"log" yaml:"log"`
}

type DistributeConfig struct {
	Output  string   `mapstructure:"output" yaml:"output"`
	Minify  bool     `mapstructure:"minify" yaml:"minify"`
	Clear   []string `mapstructure:"clear" yaml:"clear"`
	Sources []string `mapstructure:"sources" yaml:"sources"`
}

type TransformConfig struct {
	Placeholder string   `mapstructure:"placeholder" yaml:"placeholder"`
	SassBinary  string   `mapstructure:"sass_binary" yaml:"sass_binary"`
	Browsers    []string `mapstructure:"browsers" yaml:"browsers"`
}

type WatchConfig struct {
	Folders  []string      `mapstructure:"folders" yaml:"folders"`
	Entry    string        `mapstructure:"entry" yaml:"entry"`
	Output   string        `mapstructure:"output" yaml:"output"`
	Clear    []string      `mapstructure:"clear" yaml:"clear"`
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

type LogConfig struct {
	Dir       string `mapstructure:"dir" yaml:"dir"`
	Level     string `mapstructure:"level" yaml:"level"`
	FileLevel string `mapstructure:"file_level" yaml:"file_level"`
	Format    string `mapstructure:"format" yaml:"format"`
	MaxSizeMB int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
}

const (
	DefaultOutput      = "dist/project_name-dist"
	DefaultPlaceholder = "svaurtdevaude"
	DefaultDebounce    = 500 * time.Millisecond
)

// DefaultSources lists the files copied into the distribution, relative to
// the project root.
var DefaultSources = []string{
	"log/",
	"src/assets/css/*.css",
	"src/assets/scss/main.scss",
	"src/assets/fonts/**/*",
	"src/assets/img/**/*",
	"src/assets/js/**/*",
	"src/handlebars/**/*",
	"src/js/**/*",
	".babelrc",
	"package.json",
	"readme.md",
}

// DefaultBrowsers are the engine targets used for vendor prefixing.
var DefaultBrowsers = []string{"chrome58", "edge16", "firefox57", "safari11", "ios11"}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("distribute.output", DefaultOutput)
	v.SetDefault("distribute.minify", true)
	v.SetDefault("distribute.sources", DefaultSources)
	v.SetDefault("transform.placeholder", DefaultPlaceholder)
	v.SetDefault("transform.sass_binary", "sass")
	v.SetDefault("transform.browsers", DefaultBrowsers)
	v.SetDefault("watch.folders", []string{"src/assets/scss/"})
	v.SetDefault("watch.entry", "src/assets/scss/main.scss")
	v.SetDefault("watch.output", "src/assets/css/main.css")
	v.SetDefault("watch.clear", []string{"src/assets/css/main.css"})
	v.SetDefault("watch.debounce", DefaultDebounce)
	v.SetDefault("log.dir", "./log/")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file_level", "error")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.max_size_mb", 100)
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads, defaults, resolves and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Derived default: empty the output folder but keep the folder itself.
	if len(config.Distribute.Clear) == 0 {
		config.Distribute.Clear = []string{
			filepath.ToSlash(config.Distribute.Output) + "/**/*",
			"!" + filepath.ToSlash(config.Distribute.Output),
		}
	}

	if config.ProjectRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		config.ProjectRoot = wd
	}

	// Validate configuration values
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	root, err := filepath.Abs(config.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	config.ProjectRoot = root

	return &config, nil
}

// Path resolves p against the project root unless it is already absolute.
func (c *Config) Path(p string) string {
	if p == "" {
		return c.ProjectRoot
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.ProjectRoot, p)
}

// Patterns resolves glob patterns against the project root. A leading "!"
// (exclusion) is preserved. Trailing separators are dropped.
func (c *Config) Patterns(patterns []string) []string {
	resolved := make([]string, 0, len(patterns))
	for _, p := range patterns {
		negated := strings.HasPrefix(p, "!")
		p = strings.TrimPrefix(p, "!")
		p = filepath.ToSlash(c.Path(p))
		if negated {
			p = "!" + p
		}
		resolved = append(resolved, p)
	}
	return resolved
}

// OutputDir returns the absolute distribution output directory.
func (c *Config) OutputDir() string {
	return c.Path(c.Distribute.Output)
}

// LogDir returns the absolute log directory.
func (c *Config) LogDir() string {
	return c.Path(c.Log.Dir)
}

// MaxLogBytes returns the log file cap in bytes.
func (c *Config) MaxLogBytes() int64 {
	return int64(c.Log.MaxSizeMB) * 1000 * 1000
}

// validateConfig validates configuration values for correctness
func validateConfig(config *Config) error {
	if err := validateDistributeConfig(&config.Distribute); err != nil {
		return fmt.Errorf("distribute config: %w", err)
	}

	if err := validateTransformConfig(&config.Transform); err != nil {
		return fmt.Errorf("transform config: %w", err)
	}

	if err := validateWatchConfig(&config.Watch); err != nil {
		return fmt.Errorf("watch config: %w", err)
	}

	if err := validateLogConfig(&config.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}

	return nil
}

func validateDistributeConfig(config *DistributeConfig) error {
	if err := validatePath(config.Output); err != nil {
		return fmt.Errorf("invalid output '%s': %w", config.Output, err)
	}

	for _, pattern := range append(append([]string{}, config.Sources...), config.Clear...) {
		if strings.TrimPrefix(pattern, "!") == "" {
			return fmt.Errorf("empty glob pattern")
		}
	}

	return nil
}

func validateTransformConfig(config *TransformConfig) error {
	if config.Placeholder == "" {
		return fmt.Errorf("placeholder must not be empty")
	}
	return nil
}

func validateWatchConfig(config *WatchConfig) error {
	if config.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive, got %s", config.Debounce)
	}
	if config.Entry == "" || config.Output == "" {
		return fmt.Errorf("entry and output must be set")
	}
	return nil
}

func validateLogConfig(config *LogConfig) error {
	for _, level := range []string{config.Level, config.FileLevel} {
		switch strings.ToLower(level) {
		case "debug", "info", "warn", "warning", "error":
		default:
			return fmt.Errorf("unknown log level %q", level)
		}
	}

	switch config.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", config.Format)
	}

	if config.MaxSizeMB <= 0 {
		return fmt.Errorf("max_size_mb must be positive")
	}

	if config.Dir != "" {
		if err := validatePath(config.Dir); err != nil {
			return fmt.Errorf("invalid dir '%s': %w", config.Dir, err)
		}
	}

	return nil
}

// validatePath validates a configured directory
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	// Reject path traversal attempts
	for _, segment := range strings.Split(filepath.ToSlash(path), "/") {
		if segment == ".." {
			return fmt.Errorf("path contains traversal: %s", path)
		}
	}

	return nil
}
