// Package note composes the published artifact from a pair of parsed
// meeting documents.
package note

import (
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/chadwalters/firebear/internal/pdf"
)

const (
	// DefaultTitleTemplate names notes by meeting date and name.
	DefaultTitleTemplate = "{date} - {name}"
	// DefaultSeparator divides the summary section from the transcript.
	DefaultSeparator = "--==RAW NOTES==--"

	// titleDateLayout renders the meeting date inside titles.
	titleDateLayout = "20060102"
)

// placeholderPattern finds template variables left unreplaced, which
// means the template names a variable that does not exist.
var placeholderPattern = regexp.MustCompile(`\{\w+\}`)

// Note is a composed artifact ready for publishing.
type Note struct {
	Title string
	Body  string
}

// Generator builds notes from parsed summary and transcript documents.
// Titles come from a template with {date} and {name} variables.
type Generator struct {
	titleTemplate string
	separator     string
	logger        *log.Logger
}

// NewGenerator returns a Generator. Empty template or separator values
// fall back to the defaults; a nil logger falls back to stderr.
func NewGenerator(titleTemplate, separator string, logger *log.Logger) *Generator {
	if titleTemplate == "" {
		titleTemplate = DefaultTitleTemplate
	}
	if separator == "" {
		separator = DefaultSeparator
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[note] ", log.LstdFlags)
	}
	return &Generator{
		titleTemplate: titleTemplate,
		separator:     separator,
		logger:        logger,
	}
}

// Generate composes the note for one meeting. The body carries the
// summary first, then the separator, then the transcript, each under its
// own heading.
func (g *Generator) Generate(meeting string, when time.Time, summary, transcript pdf.Document) (Note, error) {
	return Note{
		Title: g.formatTitle(meeting, when),
		Body:  g.formatBody(summary, transcript),
	}, nil
}

// formatTitle renders the title template. A template that still contains
// an unreplaced {variable} afterwards is invalid; the default format is
// used instead.
func (g *Generator) formatTitle(meeting string, when time.Time) string {
	date := when.Format(titleDateLayout)

	title := strings.ReplaceAll(g.titleTemplate, "{date}", date)
	title = strings.ReplaceAll(title, "{name}", meeting)
	if placeholderPattern.MatchString(title) {
		g.logger.Printf("Error: invalid variable in title template %q, using default format", g.titleTemplate)
		return date + " - " + meeting
	}
	return title
}

// formatBody assembles the two sections around the separator.
func (g *Generator) formatBody(summary, transcript pdf.Document) string {
	sections := []string{
		"## Summary\n",
		strings.TrimSpace(summary.Text),
		"\n\n" + g.separator + "\n\n",
		"## Transcript\n",
		strings.TrimSpace(transcript.Text),
	}
	return strings.Join(sections, "\n")
}
