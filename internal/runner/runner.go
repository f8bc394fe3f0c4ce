// Package runner drives the reconcile service that turns exported PDFs
// into published notes.
package runner

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chadwalters/firebear/internal/journal"
	"github.com/chadwalters/firebear/internal/matcher"
	"github.com/chadwalters/firebear/internal/orchestrator"
	"github.com/chadwalters/firebear/internal/scanner"
	"github.com/chadwalters/firebear/internal/state"
)

// Events receives progress callbacks during reconcile cycles. All methods
// are called from the reconcile goroutine and must not block. A nil Events
// disables callbacks.
type Events interface {
	// CycleStarted is called when a reconcile cycle begins.
	CycleStarted(cycle int)

	// CycleFinished is called when a cycle completes, with its counters.
	CycleFinished(cycle, scanned, matched, published, skipped, failed int, elapsed time.Duration)

	// PairProcessed is called once per pair with the outcome action
	// (created, updated, skipped, failed).
	PairProcessed(pairKey, meeting, action, noteID, errMsg string)
}

// Config holds configuration for the runner.
type Config struct {
	// Interval is how often to run a reconcile cycle
	Interval time.Duration

	// Watch enables filesystem-triggered cycles between intervals
	Watch bool

	// Debounce is how long the directories must stay quiet after a file
	// event before a triggered cycle runs. This batches rapid exports.
	Debounce time.Duration

	// Journal optionally records run and pair history
	Journal *journal.Journal

	// Events optionally receives progress callbacks
	Events Events

	// Logger for runner activity
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Interval: 5 * time.Minute,
		Debounce: 2 * time.Second,
		Logger:   log.New(os.Stderr, "[runner] ", log.LstdFlags),
	}
}

// CycleResult summarizes one reconcile cycle.
type CycleResult struct {
	Cycle     int
	Scanned   int
	Matched   int
	Published int
	Skipped   int
	Failed    int
	Elapsed   time.Duration
}

// Runner owns the scan, match, process loop.
//
// A cycle never fails as a whole: directory errors, unmatched files, and
// pair failures are logged and counted, and the next cycle starts from a
// clean slate. Cancellation is observed at cycle start and between pairs;
// a pair already being processed always runs to completion so a note is
// never half-published.
type Runner struct {
	summaryDir    string
	transcriptDir string
	scan          *scanner.Scanner
	match         *matcher.Matcher
	store         *state.Store
	orch          *orchestrator.Orchestrator
	config        *Config

	cycle   int
	trigger chan struct{}
	wg      sync.WaitGroup
}

// New creates a runner over the given directories.
//
// The runner requires:
//   - summaryDir: directory containing summary PDF exports
//   - transcriptDir: directory containing transcript PDF exports
//   - store: state snapshot used to decide what changed
//   - orch: pipeline that processes one pair
//
// Use Run() for the service loop or RunOnce() for a single cycle.
func New(summaryDir, transcriptDir string, store *state.Store, orch *orchestrator.Orchestrator) (*Runner, error) {
	return NewWithConfig(summaryDir, transcriptDir, store, orch, DefaultConfig())
}

// NewWithConfig creates a runner with custom configuration.
func NewWithConfig(summaryDir, transcriptDir string, store *state.Store, orch *orchestrator.Orchestrator, config *Config) (*Runner, error) {
	if summaryDir == "" {
		return nil, fmt.Errorf("summaryDir cannot be empty")
	}
	if transcriptDir == "" {
		return nil, fmt.Errorf("transcriptDir cannot be empty")
	}
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if orch == nil {
		return nil, fmt.Errorf("orch cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[runner] ", log.LstdFlags)
	}
	if config.Interval <= 0 {
		config.Interval = 5 * time.Minute
	}
	if config.Debounce <= 0 {
		config.Debounce = 2 * time.Second
	}

	return &Runner{
		summaryDir:    summaryDir,
		transcriptDir: transcriptDir,
		scan:          scanner.New(summaryDir, transcriptDir, config.Logger),
		match:         matcher.New(config.Logger),
		store:         store,
		orch:          orch,
		config:        config,
		trigger:       make(chan struct{}, 1),
	}, nil
}

// Run executes reconcile cycles until ctx is cancelled.
//
// One cycle runs immediately, then every Interval. With Watch enabled,
// file events in either directory also trigger a cycle after the
// directories stay quiet for Debounce. Run returns nil on cancellation.
func (r *Runner) Run(ctx context.Context) error {
	r.config.Logger.Printf("Service started: scanning every %s", r.config.Interval)

	if r.config.Watch {
		fw, err := NewFileWatcher()
		if err != nil {
			return fmt.Errorf("failed to create file watcher: %w", err)
		}
		if err := fw.Start(r.summaryDir, r.transcriptDir); err != nil {
			return fmt.Errorf("failed to start file watcher: %w", err)
		}
		defer func() {
			if err := fw.Stop(); err != nil {
				r.config.Logger.Printf("Error stopping watcher: %v", err)
			}
		}()

		r.config.Logger.Printf("Watching: %s, %s", r.summaryDir, r.transcriptDir)

		r.wg.Add(1)
		go r.consumeWatchEvents(ctx, fw)
	}

	// First cycle runs immediately so existing exports never wait a
	// full interval.
	r.RunOnce(ctx)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.config.Logger.Println("Shutdown signal received")
			r.wg.Wait()
			r.config.Logger.Println("Service stopped")
			return nil

		case <-ticker.C:
			r.RunOnce(ctx)

		case <-r.trigger:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single reconcile cycle: scan both directories, match
// changed files into pairs, and process each pair in order. Per-pair
// failures are logged and counted; the cycle itself never fails.
func (r *Runner) RunOnce(ctx context.Context) CycleResult {
	if ctx.Err() != nil {
		return CycleResult{}
	}

	r.cycle++
	start := time.Now()
	res := CycleResult{Cycle: r.cycle}

	if r.config.Events != nil {
		r.config.Events.CycleStarted(res.Cycle)
	}

	changed := r.scan.Scan()
	pairs := r.match.Match(changed)
	res.Scanned = len(changed)
	res.Matched = len(pairs)

	if res.Scanned > 0 {
		r.config.Logger.Printf("Cycle %d: %d changed files, %d pairs", res.Cycle, res.Scanned, res.Matched)
	}

	var events []journal.PairEvent
	for _, pair := range pairs {
		if ctx.Err() != nil {
			r.config.Logger.Printf("Cycle %d interrupted, %q and later pairs deferred", res.Cycle, pair.Name)
			break
		}
		events = append(events, r.processPair(pair, &res))
	}

	res.Elapsed = time.Since(start)
	r.recordCycle(res, start, events)

	if r.config.Events != nil {
		r.config.Events.CycleFinished(res.Cycle, res.Scanned, res.Matched, res.Published, res.Skipped, res.Failed, res.Elapsed)
	}

	return res
}

// processPair runs one pair through the pipeline, updates the cycle
// counters, and returns the journal row describing the outcome.
func (r *Runner) processPair(pair matcher.Pair, res *CycleResult) journal.PairEvent {
	outcome, err := r.orch.ProcessPair(pair)

	switch outcome {
	case orchestrator.OutcomeCreated, orchestrator.OutcomeUpdated:
		res.Published++
	case orchestrator.OutcomeSkipped:
		res.Skipped++
	default:
		res.Failed++
	}

	key := state.PairKey(pair.Summary.Path, pair.Transcript.Path)

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
		r.config.Logger.Printf("Error processing %q: %v", pair.Name, err)
	}

	// The pipeline records the note ID in the store; read it back so
	// history rows and dashboard events can link to the note.
	noteID := ""
	if rec, ok := r.store.Get(key); ok {
		noteID = rec.NoteID
	}

	if r.config.Events != nil {
		r.config.Events.PairProcessed(key, pair.Name, outcome.String(), noteID, errMsg)
	}

	return journal.PairEvent{
		PairKey: key,
		Meeting: pair.Name,
		Action:  outcome.String(),
		NoteID:  noteID,
		Error:   errMsg,
	}
}

// recordCycle writes the run row and its pair events to the journal.
// Journal writes are best-effort: failures are logged, never propagated.
func (r *Runner) recordCycle(res CycleResult, startedAt time.Time, events []journal.PairEvent) {
	if r.config.Journal == nil {
		return
	}

	runID, err := r.config.Journal.RecordRun(journal.Run{
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(res.Elapsed),
		Scanned:    res.Scanned,
		Matched:    res.Matched,
		Published:  res.Published,
		Skipped:    res.Skipped,
		Failed:     res.Failed,
	})
	if err != nil {
		r.config.Logger.Printf("Warning: failed to record run: %v", err)
		return
	}

	for _, ev := range events {
		ev.RunID = runID
		if err := r.config.Journal.RecordPairEvent(ev); err != nil {
			r.config.Logger.Printf("Warning: failed to record history for %s: %v", ev.PairKey, err)
		}
	}
}

// Trigger requests an extra reconcile cycle from Run. It never blocks;
// requests arriving while one is already queued are coalesced.
func (r *Runner) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// consumeWatchEvents turns file events into triggered cycles once the
// directories stay quiet for the debounce interval.
func (r *Runner) consumeWatchEvents(ctx context.Context, fw *FileWatcher) {
	defer r.wg.Done()

	var lastEvent time.Time
	ticker := time.NewTicker(r.config.Debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fw.Events():
			if !ok {
				return
			}
			r.config.Logger.Printf("File event: %s %s (%s)", ev.Op, filepath.Base(ev.Path), ev.Kind)
			lastEvent = time.Now()

		case err, ok := <-fw.Errors():
			if !ok {
				return
			}
			r.config.Logger.Printf("Watcher error: %v", err)

		case <-ticker.C:
			if lastEvent.IsZero() || time.Since(lastEvent) < r.config.Debounce {
				continue
			}
			lastEvent = time.Time{}
			r.Trigger()
		}
	}
}

// ProcessPairPaths processes one explicit pair, bypassing directory
// scanning and filename matching. The meeting name and timestamp come
// from the summary filename when it follows the export pattern, and fall
// back to the bare filename and file modification time when it does not.
func (r *Runner) ProcessPairPaths(summaryPath, transcriptPath string) (orchestrator.Outcome, error) {
	pair, err := r.buildPair(summaryPath, transcriptPath)
	if err != nil {
		return orchestrator.OutcomeFailed, err
	}

	outcome, procErr := r.orch.ProcessPair(pair)

	if r.config.Journal != nil {
		key := state.PairKey(summaryPath, transcriptPath)
		errMsg := ""
		if procErr != nil {
			errMsg = procErr.Error()
		}
		noteID := ""
		if rec, ok := r.store.Get(key); ok {
			noteID = rec.NoteID
		}
		if err := r.config.Journal.RecordPairEvent(journal.PairEvent{
			PairKey: key,
			Meeting: pair.Name,
			Action:  outcome.String(),
			NoteID:  noteID,
			Error:   errMsg,
		}); err != nil {
			r.config.Logger.Printf("Warning: failed to record history for %s: %v", key, err)
		}
	}

	return outcome, procErr
}

// buildPair stats both files and derives the meeting name and timestamp.
func (r *Runner) buildPair(summaryPath, transcriptPath string) (matcher.Pair, error) {
	summary, err := statFile(summaryPath)
	if err != nil {
		return matcher.Pair{}, fmt.Errorf("failed to read summary: %w", err)
	}
	transcript, err := statFile(transcriptPath)
	if err != nil {
		return matcher.Pair{}, fmt.Errorf("failed to read transcript: %w", err)
	}

	base := filepath.Base(summaryPath)
	name, _, ts, ok := matcher.ParseExportName(base)
	if !ok {
		name = strings.TrimSuffix(base, filepath.Ext(base))
		ts = summary.ModTime.UTC()
	}

	return matcher.Pair{
		Summary:    summary,
		Transcript: transcript,
		Name:       name,
		Timestamp:  ts,
	}, nil
}

// statFile snapshots one file the way a directory scan would.
func statFile(path string) (scanner.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return scanner.File{}, err
	}
	if info.IsDir() {
		return scanner.File{}, fmt.Errorf("%s is a directory", path)
	}
	return scanner.File{Path: path, ModTime: info.ModTime(), Size: info.Size()}, nil
}

// Cycle returns the number of cycles run so far.
func (r *Runner) Cycle() int {
	return r.cycle
}

// Records returns the published-pair records, sorted by pair key.
func (r *Runner) Records() []state.Record {
	return r.store.Records()
}
