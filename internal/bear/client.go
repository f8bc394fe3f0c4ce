// Package bear publishes notes to Bear.app through its x-callback-url
// scheme.
//
// Bear offers no reply channel when driven this way: the URL is handed
// to the platform opener and the only failure signal is the opener's
// exit status. A Response with Success=false therefore means the launch
// failed, and Success=true means the command was delivered, not that
// Bear confirmed it.
package bear

import (
	"bytes"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/chadwalters/firebear/internal/note"
)

const baseURL = "bear://x-callback-url"

// noteIDPattern matches the identifier Bear appends to titles, as in
// "My Note [1A2B3C]".
var noteIDPattern = regexp.MustCompile(`\[([A-F0-9]+)\]$`)

// Response reports the outcome of one publish call.
type Response struct {
	// Success is false when the command could not be delivered.
	Success bool
	// NoteID identifies the note when known.
	NoteID string
	// Err describes the failure when Success is false.
	Err string
}

// Opener launches a URL with the platform's URL-scheme handler.
type Opener func(url string) error

// Client drives Bear.app. Configured tags are appended to every
// published note body.
type Client struct {
	tags   []string
	open   Opener
	logger *log.Logger
}

// NewClient returns a Client that launches URLs with the system opener.
func NewClient(tags []string, logger *log.Logger) *Client {
	return NewClientWithOpener(tags, nil, logger)
}

// NewClientWithOpener returns a Client using the given opener. A nil
// opener falls back to the system opener, a nil logger to stderr.
func NewClientWithOpener(tags []string, opener Opener, logger *log.Logger) *Client {
	if opener == nil {
		opener = openWithSystem
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[bear] ", log.LstdFlags)
	}
	return &Client{tags: tags, open: opener, logger: logger}
}

// Create publishes a new note without opening it in the Bear window.
func (c *Client) Create(n note.Note) (Response, error) {
	u := buildURL("create", [][2]string{
		{"title", n.Title},
		{"text", c.withTags(n.Body)},
		{"open_note", "no"},
	})
	if err := c.open(u); err != nil {
		c.logger.Printf("Error creating note %q: %v", n.Title, err)
		return Response{Err: fmt.Sprintf("failed to create note: %v", err)}, nil
	}
	return Response{Success: true, NoteID: extractNoteID(n.Title)}, nil
}

// Update replaces the full content of an existing note.
func (c *Client) Update(noteID string, n note.Note) (Response, error) {
	u := buildURL("add-text", [][2]string{
		{"id", noteID},
		{"title", n.Title},
		{"text", c.withTags(n.Body)},
		{"mode", "replace"},
		{"open_note", "no"},
	})
	if err := c.open(u); err != nil {
		c.logger.Printf("Error updating note %q: %v", noteID, err)
		return Response{Err: fmt.Sprintf("failed to update note: %v", err)}, nil
	}
	return Response{Success: true, NoteID: noteID}, nil
}

// withTags appends the configured tags to the body as a trailing
// "#tag1 #tag2" line.
func (c *Client) withTags(body string) string {
	hashtags := make([]string, 0, len(c.tags))
	for _, tag := range c.tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			hashtags = append(hashtags, "#"+tag)
		}
	}
	if len(hashtags) == 0 {
		return body
	}
	return body + "\n\n" + strings.Join(hashtags, " ")
}

// buildURL assembles an x-callback-url, keeping the given parameter
// order.
func buildURL(action string, params [][2]string) string {
	var b strings.Builder
	b.WriteString(baseURL)
	b.WriteByte('/')
	b.WriteString(action)
	for i, p := range params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(p[0])
		b.WriteByte('=')
		b.WriteString(escape(p[1]))
	}
	return b.String()
}

// escape percent-encodes a parameter value. Spaces become %20, not +;
// Bear does not decode form encoding.
func escape(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}

// extractNoteID pulls the Bear identifier off the end of a title, if
// present.
func extractNoteID(title string) string {
	if m := noteIDPattern.FindStringSubmatch(title); m != nil {
		return m[1]
	}
	return ""
}

// openWithSystem hands the URL to the operating system's opener.
func openWithSystem(u string) error {
	cmd := exec.Command("open", u)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("open command failed: %s", msg)
		}
		return fmt.Errorf("open command failed: %w", err)
	}
	return nil
}
