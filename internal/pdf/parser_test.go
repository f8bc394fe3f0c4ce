package pdf

import (
	"os"
	"path/filepath"
	"testing"
)

// TestCleanText verifies whitespace normalization and de-gluing of words
// jammed together by PDF extraction.
func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "collapses blank line runs",
			in:   "Meeting Notes\n\n\n\n\nAction items",
			want: "Meeting Notes\n\nAction items",
		},
		{
			name: "collapses repeated spaces",
			in:   "one    two  three",
			want: "one two three",
		},
		{
			name: "trims surrounding whitespace",
			in:   "\n\n  body  \n\n",
			want: "body",
		},
		{
			name: "splits glued words",
			in:   "agreedNext stepsAssigned",
			want: "agreed Next steps Assigned",
		},
		{
			name: "normalizes tabs but keeps newlines",
			in:   "col one\tcol two\nrow two",
			want: "col one col two\nrow two",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanText(tt.in); got != tt.want {
				t.Errorf("cleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestExtractTitle verifies that the title is the first non-empty line.
func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "first line",
			in:   "Team Meeting\nDiscussion of goals",
			want: "Team Meeting",
		},
		{
			name: "skips leading blank lines",
			in:   "\n  \nWeekly Sync\nbody",
			want: "Weekly Sync",
		},
		{
			name: "no content",
			in:   "\n \n\t\n",
			want: "Untitled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractTitle(tt.in); got != tt.want {
				t.Errorf("extractTitle(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestParse_MissingFile verifies that a file which cannot be read at all
// surfaces an error, the signal that a later attempt may succeed.
func TestParse_MissingFile(t *testing.T) {
	p := NewParser(nil)

	if _, err := p.Parse(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("expected error for missing file")
	}
}

// TestParse_MalformedContentReportedInDocument verifies that readable
// bytes which are not a usable PDF come back as a content error in the
// Document, not as an error return. The bytes are permanent for this
// file version; retrying the read cannot fix them.
func TestParse_MalformedContentReportedInDocument(t *testing.T) {
	p := NewParser(nil)

	tests := []struct {
		name    string
		content string
	}{
		{"not a pdf at all", "this is not a pdf"},
		{"pdf header with garbage body", "%PDF-1.4 this is not a real pdf body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "broken.pdf")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write file: %v", err)
			}

			doc, err := p.Parse(path)
			if err != nil {
				t.Fatalf("Parse() error = %v, want content error in Document", err)
			}
			if doc.Err == "" {
				t.Error("Document.Err is empty, want a content error")
			}
		})
	}
}
