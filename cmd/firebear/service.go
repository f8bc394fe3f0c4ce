package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/chadwalters/firebear/internal/bear"
	"github.com/chadwalters/firebear/internal/config"
	"github.com/chadwalters/firebear/internal/journal"
	"github.com/chadwalters/firebear/internal/note"
	"github.com/chadwalters/firebear/internal/orchestrator"
	"github.com/chadwalters/firebear/internal/pdf"
	"github.com/chadwalters/firebear/internal/runner"
	"github.com/chadwalters/firebear/internal/state"
	"github.com/chadwalters/firebear/internal/ui"
)

// service bundles everything a command needs: the loaded configuration,
// the state store, the optional journal, and the wired runner.
type service struct {
	cfg     *config.Config
	logOut  io.Writer
	store   *state.Store
	journal *journal.Journal
	runner  *runner.Runner
}

// loadConfig reads and validates the configuration, printing any
// advisory warnings to stderr.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	warnings, err := cfg.Validate()
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "%s %s\n", ui.RenderWarn("⚠"), w)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore opens just the state store, for commands that inspect or
// maintain records without running the pipeline.
func openStore(cfg *config.Config) (*state.Store, error) {
	logger := componentLogger(cfg.Logging.Writer(), "state")
	return state.Open(cfg.Service.StateFile, cfg.Service.BackupCount, logger)
}

// openJournal opens the run history journal, or returns nil when the
// journal is disabled.
func openJournal(cfg *config.Config) (*journal.Journal, error) {
	if !cfg.Journal.Enabled {
		return nil, nil
	}
	return journal.Open(cfg.Journal.Path)
}

// buildService wires the full pipeline. events may be nil; watch adds
// filesystem-triggered cycles on top of the interval.
func buildService(cfg *config.Config, watch bool, events runner.Events) (*service, error) {
	out := cfg.Logging.Writer()

	store, err := state.Open(cfg.Service.StateFile, cfg.Service.BackupCount, componentLogger(out, "state"))
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	parser := pdf.NewParser(componentLogger(out, "pdf"))
	generator := note.NewGenerator(cfg.Note.TitleTemplate, cfg.Note.Separator, componentLogger(out, "note"))
	publisher := bear.NewClient(cfg.Note.Tags, componentLogger(out, "bear"))

	orchConfig := orchestrator.DefaultConfig()
	orchConfig.Retry = orchestrator.RetryPolicy{
		MaxRetries:   cfg.Retry.MaxRetries,
		InitialDelay: cfg.Retry.Delay,
		Multiplier:   2.0,
	}
	orchConfig.Logger = componentLogger(out, "orchestrator")

	orch, err := orchestrator.NewWithConfig(store, parser, generator, publisher, orchConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	jnl, err := openJournal(cfg)
	if err != nil {
		// History is an observer; losing it must not stop publishing.
		fmt.Fprintf(os.Stderr, "%s journal disabled: %v\n", ui.RenderWarn("⚠"), err)
		jnl = nil
	}

	runConfig := &runner.Config{
		Interval: cfg.Service.Interval,
		Watch:    watch || cfg.Watch.Enabled,
		Debounce: cfg.Watch.Debounce,
		Journal:  jnl,
		Events:   events,
		Logger:   componentLogger(out, "runner"),
	}

	r, err := runner.NewWithConfig(cfg.Directories.Summary, cfg.Directories.Transcript, store, orch, runConfig)
	if err != nil {
		if jnl != nil {
			_ = jnl.Close()
		}
		return nil, fmt.Errorf("failed to build runner: %w", err)
	}

	return &service{
		cfg:     cfg,
		logOut:  out,
		store:   store,
		journal: jnl,
		runner:  r,
	}, nil
}

// Close releases the journal connection.
func (s *service) Close() {
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing journal: %v\n", err)
		}
	}
}

// componentLogger returns a prefixed logger writing to the configured
// destination.
func componentLogger(out io.Writer, name string) *log.Logger {
	return log.New(out, "["+name+"] ", log.LstdFlags)
}

// fatal prints an error and exits, the way every command reports failure.
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
