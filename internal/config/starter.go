package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// starterHeader introduces the generated configuration file.
const starterHeader = `# firebear configuration.
#
# Watched directories must exist before the service starts. Paths may use
# ~ for the home directory. Durations use Go syntax: 30s, 5m, 1h.
# Every key can also be set with a FIREBEAR_ environment variable, e.g.
# FIREBEAR_DASHBOARD_PORT=9000.

`

// starterFile mirrors Config with string durations so the generated file
// reads naturally.
type starterFile struct {
	Directories struct {
		Summary    string `yaml:"summary"`
		Transcript string `yaml:"transcript"`
	} `yaml:"directories"`
	Note struct {
		TitleTemplate string   `yaml:"title_template"`
		Separator     string   `yaml:"separator"`
		Tags          []string `yaml:"tags"`
	} `yaml:"note"`
	Service struct {
		Interval    string `yaml:"interval"`
		StateFile   string `yaml:"state_file"`
		BackupCount int    `yaml:"backup_count"`
	} `yaml:"service"`
	Retry struct {
		MaxRetries int    `yaml:"max_retries"`
		Delay      string `yaml:"delay"`
	} `yaml:"retry"`
	Watch struct {
		Enabled  bool   `yaml:"enabled"`
		Debounce string `yaml:"debounce"`
	} `yaml:"watch"`
	Journal struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"journal"`
	Dashboard struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"dashboard"`
	Logging struct {
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
	} `yaml:"logging"`
}

// WriteDefault writes a commented starter configuration and returns the
// path it wrote. An empty path targets the local .firebear directory.
// Existing files are preserved unless force is set.
func WriteDefault(path string, force bool) (string, error) {
	if path == "" {
		path = filepath.Join(localDir, fileName)
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
		}
	}

	def := Default()

	var s starterFile
	s.Directories.Summary = "~/Library/CloudStorage/GoogleDrive/My Drive/Fireflies Meetings/Summaries"
	s.Directories.Transcript = "~/Library/CloudStorage/GoogleDrive/My Drive/Fireflies Meetings/Transcripts"
	s.Note.TitleTemplate = def.Note.TitleTemplate
	s.Note.Separator = def.Note.Separator
	s.Note.Tags = def.Note.Tags
	s.Service.Interval = def.Service.Interval.String()
	s.Service.StateFile = def.Service.StateFile
	s.Service.BackupCount = def.Service.BackupCount
	s.Retry.MaxRetries = def.Retry.MaxRetries
	s.Retry.Delay = def.Retry.Delay.String()
	s.Watch.Enabled = def.Watch.Enabled
	s.Watch.Debounce = def.Watch.Debounce.String()
	s.Journal.Enabled = def.Journal.Enabled
	s.Journal.Path = def.Journal.Path
	s.Dashboard.Enabled = def.Dashboard.Enabled
	s.Dashboard.Port = def.Dashboard.Port
	s.Logging.File = filepath.Join(localDir, "logs", "firebear.log")
	s.Logging.MaxSizeMB = def.Logging.MaxSizeMB
	s.Logging.MaxBackups = def.Logging.MaxBackups

	data, err := yaml.Marshal(&s)
	if err != nil {
		return "", fmt.Errorf("failed to render config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(starterHeader), data...), 0644); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}

	return path, nil
}
