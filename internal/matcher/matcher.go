// Package matcher pairs summary and transcript PDFs that belong to the
// same meeting.
//
// Exported meeting files follow a fixed naming scheme:
//
//	<meeting name>-summary-2025-03-04T16-17-00.058Z.pdf
//	<meeting name>-transcript-2025-03-04T16-16-59.663Z.pdf
//
// The two sides of a pair share the meeting name and carry export
// timestamps within a few seconds of each other. Matching is driven
// entirely by filenames; file content is never read.
package matcher

import (
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/chadwalters/firebear/internal/scanner"
)

// Window is how far apart the export timestamps of a summary and its
// transcript may be while still counting as one meeting. It is a design
// constant of the export format, not a tunable.
const Window = 5 * time.Second

// timestampLayout parses the timestamp embedded in exported filenames.
// The trailing Z is a literal; timestamps are always UTC.
const timestampLayout = "2006-01-02T15-04-05.000Z"

var namePattern = regexp.MustCompile(
	`(?i)^(.*?)-(summary|transcript)-(\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}\.\d{3}Z)\.pdf$`,
)

// Pair is a summary file and transcript file judged to belong to the same
// meeting. Pairs are rebuilt on every matching pass and never persisted.
type Pair struct {
	// Summary is the summary-side file.
	Summary scanner.File
	// Transcript is the transcript-side file.
	Transcript scanner.File
	// Name is the meeting name shared by both filenames.
	Name string
	// Timestamp is the export timestamp of the first file seen for the
	// meeting, in UTC.
	Timestamp time.Time
}

// parsed is a scanned file whose name matched the export pattern.
type parsed struct {
	file scanner.File
	name string
	role string
	ts   time.Time
}

// bucket collects the two roles of one meeting while files arrive.
type bucket struct {
	name       string
	ts         time.Time
	summary    *scanner.File
	transcript *scanner.File
}

// Matcher groups scanned files into meeting pairs.
type Matcher struct {
	logger *log.Logger
}

// New creates a Matcher. If logger is nil, a stderr logger is used.
func New(logger *log.Logger) *Matcher {
	if logger == nil {
		logger = log.New(os.Stderr, "[matcher] ", log.LstdFlags)
	}
	return &Matcher{logger: logger}
}

// Match groups files into complete (summary, transcript) pairs.
//
// Files whose names do not match the export pattern are skipped with a log
// line. A meeting whose second file has not arrived yet yields no pair and
// is logged at most once per pass; the file will match on a later pass once
// its counterpart shows up. If two files claim the same role in one meeting
// the later one in input order wins and a warning names both files.
//
// The result is sorted by (Timestamp, Name) so processing order is stable
// across passes.
func (m *Matcher) Match(files []scanner.File) []Pair {
	var buckets []*bucket

	for _, file := range files {
		p, ok := m.parseFilename(file)
		if !ok {
			continue
		}

		b := findBucket(buckets, p.name, p.ts)
		if b == nil {
			b = &bucket{name: p.name, ts: p.ts}
			buckets = append(buckets, b)
		}

		f := p.file
		switch p.role {
		case "summary":
			if b.summary != nil {
				m.logger.Printf("Warning: duplicate summary for meeting %q: replacing %s with %s",
					b.name, filepath.Base(b.summary.Path), filepath.Base(f.Path))
			}
			b.summary = &f
		case "transcript":
			if b.transcript != nil {
				m.logger.Printf("Warning: duplicate transcript for meeting %q: replacing %s with %s",
					b.name, filepath.Base(b.transcript.Path), filepath.Base(f.Path))
			}
			b.transcript = &f
		}
	}

	var pairs []Pair
	for _, b := range buckets {
		if b.summary == nil || b.transcript == nil {
			m.logger.Printf("Incomplete pair for meeting %q at %s", b.name, b.ts.Format("2006-01-02 15:04:05"))
			continue
		}
		pairs = append(pairs, Pair{
			Summary:    *b.summary,
			Transcript: *b.transcript,
			Name:       b.name,
			Timestamp:  b.ts,
		})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if !pairs[i].Timestamp.Equal(pairs[j].Timestamp) {
			return pairs[i].Timestamp.Before(pairs[j].Timestamp)
		}
		return pairs[i].Name < pairs[j].Name
	})

	return pairs
}

// ParseExportName extracts the meeting name, role, and timestamp from an
// exported file's base name. It reports false when the name does not
// follow the export pattern.
func ParseExportName(base string) (name, role string, ts time.Time, ok bool) {
	groups := namePattern.FindStringSubmatch(base)
	if groups == nil {
		return "", "", time.Time{}, false
	}

	ts, err := time.Parse(timestampLayout, groups[3])
	if err != nil {
		return "", "", time.Time{}, false
	}

	return strings.TrimSpace(groups[1]), strings.ToLower(groups[2]), ts, true
}

// parseFilename extracts the meeting name, role, and timestamp from a
// file's base name.
func (m *Matcher) parseFilename(file scanner.File) (parsed, bool) {
	base := filepath.Base(file.Path)
	name, role, ts, ok := ParseExportName(base)
	if !ok {
		m.logger.Printf("Skipping %s: name does not match export pattern", base)
		return parsed{}, false
	}

	return parsed{
		file: file,
		name: name,
		role: role,
		ts:   ts,
	}, true
}

// findBucket returns the first open bucket for the meeting name within the
// match window, or nil.
func findBucket(buckets []*bucket, name string, ts time.Time) *bucket {
	for _, b := range buckets {
		if b.name != name {
			continue
		}
		d := b.ts.Sub(ts)
		if d < 0 {
			d = -d
		}
		if d < Window {
			return b
		}
	}
	return nil
}
