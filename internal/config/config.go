// Package config loads, validates, and bootstraps service configuration.
//
// Configuration lives in a YAML file, resolved from the local .firebear
// directory first and the user config directory second. Every key can be
// overridden with a FIREBEAR_ environment variable (dots become
// underscores, e.g. FIREBEAR_DASHBOARD_PORT).
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// localDir is the per-project configuration directory.
	localDir = ".firebear"

	// fileName is the configuration file name in either location.
	fileName = "config.yaml"
)

// DirectoriesConfig names the two watched export directories.
type DirectoriesConfig struct {
	Summary    string `mapstructure:"summary"`
	Transcript string `mapstructure:"transcript"`
}

// NoteConfig controls note formatting.
type NoteConfig struct {
	// TitleTemplate supports {date} and {name} placeholders.
	TitleTemplate string `mapstructure:"title_template"`

	// Separator divides the summary and transcript sections.
	Separator string `mapstructure:"separator"`

	// Tags are appended to every published note.
	Tags []string `mapstructure:"tags"`
}

// ServiceConfig controls the reconcile loop and state snapshot.
type ServiceConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	StateFile   string        `mapstructure:"state_file"`
	BackupCount int           `mapstructure:"backup_count"`
}

// RetryConfig controls backoff for transient pipeline failures.
type RetryConfig struct {
	MaxRetries int           `mapstructure:"max_retries"`
	Delay      time.Duration `mapstructure:"delay"`
}

// WatchConfig controls filesystem-triggered cycles.
type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// JournalConfig controls the run history database.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// DashboardConfig controls the WebSocket dashboard.
type DashboardConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig controls the log destination. With an empty File, logs go
// to stderr; otherwise they go to a size-rotated file.
type LoggingConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// Config is the root configuration for the service.
type Config struct {
	Directories DirectoriesConfig `mapstructure:"directories"`
	Note        NoteConfig        `mapstructure:"note"`
	Service     ServiceConfig     `mapstructure:"service"`
	Retry       RetryConfig       `mapstructure:"retry"`
	Watch       WatchConfig       `mapstructure:"watch"`
	Journal     JournalConfig     `mapstructure:"journal"`
	Dashboard   DashboardConfig   `mapstructure:"dashboard"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// Default returns the built-in configuration. Directories are left empty
// and must come from the config file or environment.
func Default() *Config {
	return &Config{
		Note: NoteConfig{
			TitleTemplate: "{date} - {name}",
			Separator:     "--==RAW NOTES==--",
			Tags:          []string{"meeting", "notes"},
		},
		Service: ServiceConfig{
			Interval:    5 * time.Minute,
			StateFile:   filepath.Join(localDir, "state.json"),
			BackupCount: 3,
		},
		Retry: RetryConfig{
			MaxRetries: 3,
			Delay:      time.Second,
		},
		Watch: WatchConfig{
			Enabled:  false,
			Debounce: 2 * time.Second,
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    filepath.Join(localDir, "journal.db"),
		},
		Dashboard: DashboardConfig{
			Enabled: false,
			Port:    8765,
		},
		Logging: LoggingConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// DefaultPath returns the configuration file location: the local
// .firebear directory when it exists, the user config directory
// otherwise.
func DefaultPath() string {
	local := filepath.Join(localDir, fileName)
	if _, err := os.Stat(local); err == nil {
		return local
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return local
	}
	return filepath.Join(base, "firebear", fileName)
}

// Load reads the configuration file at path, or at DefaultPath when path
// is empty. Missing keys fall back to Default values; FIREBEAR_
// environment variables override both.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("FIREBEAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file %s not found (run 'firebear init' to create one)", path)
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.expandPaths()
	return &cfg, nil
}

// setDefaults registers every key so environment overrides and partial
// files resolve against the built-in defaults.
func setDefaults(v *viper.Viper) {
	def := Default()

	v.SetDefault("directories.summary", def.Directories.Summary)
	v.SetDefault("directories.transcript", def.Directories.Transcript)
	v.SetDefault("note.title_template", def.Note.TitleTemplate)
	v.SetDefault("note.separator", def.Note.Separator)
	v.SetDefault("note.tags", def.Note.Tags)
	v.SetDefault("service.interval", def.Service.Interval)
	v.SetDefault("service.state_file", def.Service.StateFile)
	v.SetDefault("service.backup_count", def.Service.BackupCount)
	v.SetDefault("retry.max_retries", def.Retry.MaxRetries)
	v.SetDefault("retry.delay", def.Retry.Delay)
	v.SetDefault("watch.enabled", def.Watch.Enabled)
	v.SetDefault("watch.debounce", def.Watch.Debounce)
	v.SetDefault("journal.enabled", def.Journal.Enabled)
	v.SetDefault("journal.path", def.Journal.Path)
	v.SetDefault("dashboard.enabled", def.Dashboard.Enabled)
	v.SetDefault("dashboard.port", def.Dashboard.Port)
	v.SetDefault("logging.file", def.Logging.File)
	v.SetDefault("logging.max_size_mb", def.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", def.Logging.MaxBackups)
}

// expandPaths resolves ~ in every path-valued field.
func (c *Config) expandPaths() {
	c.Directories.Summary = expandHome(c.Directories.Summary)
	c.Directories.Transcript = expandHome(c.Directories.Transcript)
	c.Service.StateFile = expandHome(c.Service.StateFile)
	c.Journal.Path = expandHome(c.Journal.Path)
	c.Logging.File = expandHome(c.Logging.File)
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

// Validate checks the configuration, returning advisory warnings and an
// error for anything the service cannot run with. It creates the state,
// journal, and log directories as a side effect.
func (c *Config) Validate() ([]string, error) {
	var warnings []string

	if c.Directories.Summary == "" {
		return warnings, fmt.Errorf("summary directory is not configured")
	}
	if c.Directories.Transcript == "" {
		return warnings, fmt.Errorf("transcript directory is not configured")
	}
	if err := checkDirectory(c.Directories.Summary, "summary"); err != nil {
		return warnings, err
	}
	if err := checkDirectory(c.Directories.Transcript, "transcript"); err != nil {
		return warnings, err
	}

	if c.Note.TitleTemplate == "" {
		return warnings, fmt.Errorf("title template cannot be empty")
	}
	if !strings.Contains(c.Note.TitleTemplate, "{date}") {
		warnings = append(warnings, "title template does not contain the {date} placeholder")
	}
	if !strings.Contains(c.Note.TitleTemplate, "{name}") {
		warnings = append(warnings, "title template does not contain the {name} placeholder")
	}

	if c.Service.Interval < time.Minute {
		warnings = append(warnings, fmt.Sprintf("scan interval %s is less than a minute", c.Service.Interval))
	}
	if c.Service.BackupCount < 1 {
		return warnings, fmt.Errorf("backup count must be at least 1")
	}
	if c.Service.StateFile == "" {
		return warnings, fmt.Errorf("state file is not configured")
	}
	if err := ensureParentDir(c.Service.StateFile, "state"); err != nil {
		return warnings, err
	}

	if c.Retry.MaxRetries < 0 {
		return warnings, fmt.Errorf("max retries cannot be negative")
	}

	if c.Journal.Enabled {
		if c.Journal.Path == "" {
			return warnings, fmt.Errorf("journal is enabled but its path is not configured")
		}
		if err := ensureParentDir(c.Journal.Path, "journal"); err != nil {
			return warnings, err
		}
	}

	if c.Dashboard.Enabled && (c.Dashboard.Port < 1 || c.Dashboard.Port > 65535) {
		return warnings, fmt.Errorf("dashboard port %d is out of range", c.Dashboard.Port)
	}

	if c.Logging.File != "" {
		if err := ensureParentDir(c.Logging.File, "log"); err != nil {
			return warnings, err
		}
	}

	return warnings, nil
}

// checkDirectory verifies that a watched directory exists.
func checkDirectory(path, label string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s directory does not exist: %s", label, path)
		}
		return fmt.Errorf("cannot access %s directory %s: %w", label, path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s path is not a directory: %s", label, path)
	}
	return nil
}

// ensureParentDir creates the directory containing path.
func ensureParentDir(path, label string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create %s directory %s: %w", label, dir, err)
	}
	return nil
}

// Writer returns the log destination: stderr by default, a size-rotated
// file when File is set.
func (c LoggingConfig) Writer() io.Writer {
	if c.File == "" {
		return os.Stderr
	}
	return &lumberjack.Logger{
		Filename:   c.File,
		MaxSize:    c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
	}
}
