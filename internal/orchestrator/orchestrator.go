// Package orchestrator runs the publish pipeline for one matched pair:
// change check, parse, compose, publish, record.
//
// Failures are classified transient or terminal. Transient failures are
// retried in place with exponential backoff, the parse and publish steps
// each drawing on their own budget; terminal failures abort the pair
// immediately. Either way a failed pair affects only itself, and callers
// move on to the next one.
//
// Once started, a pair runs to completion or failure, retries included.
// Shutdown is the caller's concern and is honored between pairs, not
// inside one.
package orchestrator

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/chadwalters/firebear/internal/bear"
	"github.com/chadwalters/firebear/internal/matcher"
	"github.com/chadwalters/firebear/internal/note"
	"github.com/chadwalters/firebear/internal/pdf"
	"github.com/chadwalters/firebear/internal/state"
)

// DocumentParser extracts the text of one export file.
type DocumentParser interface {
	Parse(path string) (pdf.Document, error)
}

// NoteGenerator composes the artifact for a meeting from its two parsed
// documents.
type NoteGenerator interface {
	Generate(meeting string, when time.Time, summary, transcript pdf.Document) (note.Note, error)
}

// Publisher delivers notes to their destination.
type Publisher interface {
	Create(n note.Note) (bear.Response, error)
	Update(noteID string, n note.Note) (bear.Response, error)
}

// Outcome says what processing a pair amounted to.
type Outcome int

const (
	// OutcomeFailed means the pair could not be published.
	OutcomeFailed Outcome = iota
	// OutcomeSkipped means the recorded content is already current.
	OutcomeSkipped
	// OutcomeCreated means a new note was published.
	OutcomeCreated
	// OutcomeUpdated means an existing note was replaced.
	OutcomeUpdated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFailed:
		return "failed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	default:
		return "unknown"
	}
}

// Config holds configuration for the Orchestrator.
type Config struct {
	// Retry controls backoff for transient failures.
	Retry RetryPolicy

	// Logger for pipeline activity.
	Logger *log.Logger

	// Sleep is how retry waits between attempts. Tests replace it to
	// observe delays without waiting.
	Sleep func(time.Duration)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Retry:  DefaultRetryPolicy(),
		Logger: log.New(os.Stderr, "[orchestrator] ", log.LstdFlags),
		Sleep:  time.Sleep,
	}
}

// Orchestrator publishes matched pairs through the configured parser,
// generator, and publisher, recording results in the state store.
type Orchestrator struct {
	store     *state.Store
	parser    DocumentParser
	generator NoteGenerator
	publisher Publisher
	config    *Config
}

// New creates an Orchestrator with default configuration.
func New(store *state.Store, parser DocumentParser, generator NoteGenerator, publisher Publisher) (*Orchestrator, error) {
	return NewWithConfig(store, parser, generator, publisher, DefaultConfig())
}

// NewWithConfig creates an Orchestrator with custom configuration.
func NewWithConfig(store *state.Store, parser DocumentParser, generator NoteGenerator, publisher Publisher, config *Config) (*Orchestrator, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if parser == nil {
		return nil, fmt.Errorf("parser cannot be nil")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator cannot be nil")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[orchestrator] ", log.LstdFlags)
	}
	if config.Sleep == nil {
		config.Sleep = time.Sleep
	}
	if config.Retry.MaxRetries < 0 {
		config.Retry.MaxRetries = 0
	}
	if config.Retry.InitialDelay <= 0 {
		config.Retry.InitialDelay = time.Second
	}
	if config.Retry.Multiplier < 1 {
		config.Retry.Multiplier = 2.0
	}

	return &Orchestrator{
		store:     store,
		parser:    parser,
		generator: generator,
		publisher: publisher,
		config:    config,
	}, nil
}

// ProcessPair runs the pipeline for one pair. A pair whose recorded
// hashes still match its files is skipped. The parse step and the
// publish step each carry their own retry budget; when either budget is
// exhausted the returned error is terminal so callers do not retry it
// again.
func (o *Orchestrator) ProcessPair(pair matcher.Pair) (Outcome, error) {
	if !o.store.HasChanged(pair.Summary.Path, pair.Transcript.Path) {
		return OutcomeSkipped, nil
	}
	return o.publish(pair)
}

// retryStep runs one pipeline step under the configured policy.
func (o *Orchestrator) retryStep(op string, fn func() error) error {
	return o.config.Retry.Do(op, o.config.Logger, o.config.Sleep, fn)
}

// publish is the pipeline after the change check: parse, compose,
// publish, record.
func (o *Orchestrator) publish(pair matcher.Pair) (Outcome, error) {
	summaryPath := pair.Summary.Path
	transcriptPath := pair.Transcript.Path

	// Parsing is one step with one budget: a transient read failure
	// re-parses both files, a content failure aborts immediately.
	var summary, transcript pdf.Document
	err := o.retryStep(fmt.Sprintf("parse of %q", pair.Name), func() error {
		var err error
		if summary, err = o.parseDocument(summaryPath, "summary"); err != nil {
			return err
		}
		transcript, err = o.parseDocument(transcriptPath, "transcript")
		return err
	})
	if err != nil {
		return OutcomeFailed, err
	}

	n, err := o.generator.Generate(pair.Name, pair.Timestamp, summary, transcript)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("failed to generate note for %q: %w", pair.Name, err)
	}

	existing, exists := o.store.Get(state.PairKey(summaryPath, transcriptPath))

	// Publishing draws on a fresh budget: a delivery retry never
	// re-parses, and parse retries never count against delivery.
	var resp bear.Response
	var outcome Outcome
	err = o.retryStep(fmt.Sprintf("publish of %q", pair.Name), func() error {
		var err error
		if exists && existing.NoteID != "" {
			resp, err = o.publisher.Update(existing.NoteID, n)
			outcome = OutcomeUpdated
		} else {
			resp, err = o.publisher.Create(n)
			outcome = OutcomeCreated
		}
		if err != nil {
			return fmt.Errorf("failed to publish %q: %w", pair.Name, err)
		}
		if !resp.Success {
			msg := resp.Err
			if msg == "" {
				msg = "publisher reported failure"
			}
			return retryable(fmt.Errorf("publish of %q failed: %s", pair.Name, msg))
		}
		return nil
	})
	if err != nil {
		return OutcomeFailed, err
	}

	// The note is out. Recording failures below are terminal: retrying
	// the pipeline now would publish a duplicate.
	noteID := resp.NoteID
	if noteID == "" {
		noteID = existing.NoteID
	}

	summaryHash, err := state.HashFile(summaryPath)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("published %q but failed to hash summary: %w", pair.Name, err)
	}
	transcriptHash, err := state.HashFile(transcriptPath)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("published %q but failed to hash transcript: %w", pair.Name, err)
	}

	rec := state.Record{
		PairKey:        state.PairKey(summaryPath, transcriptPath),
		SummaryPath:    summaryPath,
		SummaryHash:    summaryHash,
		TranscriptPath: transcriptPath,
		TranscriptHash: transcriptHash,
		NoteID:         noteID,
		LastProcessed:  time.Now(),
	}
	if err := o.store.Update(rec); err != nil {
		return OutcomeFailed, fmt.Errorf("published %q but failed to record state: %w", pair.Name, err)
	}

	o.config.Logger.Printf("Published note for %q (%s)", pair.Name, outcome)
	return outcome, nil
}

// parseDocument parses one file, classifying the failure: a read error
// is transient, a populated Document.Err is a permanent content problem.
func (o *Orchestrator) parseDocument(path, role string) (pdf.Document, error) {
	doc, err := o.parser.Parse(path)
	if err != nil {
		return pdf.Document{}, retryable(fmt.Errorf("failed to parse %s: %w", role, err))
	}
	if doc.Err != "" {
		return pdf.Document{}, fmt.Errorf("%s %s: %s", role, filepath.Base(path), doc.Err)
	}
	return doc, nil
}
