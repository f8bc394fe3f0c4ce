package note

import (
	"testing"
	"time"

	"github.com/chadwalters/firebear/internal/pdf"
)

var meetingTime = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

// TestGenerate_BodyLayout verifies the exact section layout: summary
// heading, summary text, separator, transcript heading, transcript text.
func TestGenerate_BodyLayout(t *testing.T) {
	g := NewGenerator("", "", nil)

	n, err := g.Generate("Team Meeting", meetingTime,
		pdf.Document{Text: "Key decisions were made."},
		pdf.Document{Text: "Alice: hello\nBob: hi"},
	)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	want := "## Summary\n\n" +
		"Key decisions were made.\n\n\n" +
		"--==RAW NOTES==--\n\n\n" +
		"## Transcript\n\n" +
		"Alice: hello\nBob: hi"
	if n.Body != want {
		t.Errorf("Body = %q, want %q", n.Body, want)
	}
}

// TestGenerate_DefaultTitle verifies the default date-dash-name title.
func TestGenerate_DefaultTitle(t *testing.T) {
	g := NewGenerator("", "", nil)

	n, err := g.Generate("Team Meeting", meetingTime, pdf.Document{Text: "s"}, pdf.Document{Text: "t"})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if n.Title != "20240304 - Team Meeting" {
		t.Errorf("Title = %q, want %q", n.Title, "20240304 - Team Meeting")
	}
}

// TestGenerate_CustomTemplate verifies variable substitution in a custom
// title template.
func TestGenerate_CustomTemplate(t *testing.T) {
	g := NewGenerator("Meeting: {name} ({date})", "", nil)

	n, err := g.Generate("Standup", meetingTime, pdf.Document{Text: "s"}, pdf.Document{Text: "t"})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if n.Title != "Meeting: Standup (20240304)" {
		t.Errorf("Title = %q, want %q", n.Title, "Meeting: Standup (20240304)")
	}
}

// TestGenerate_BadTemplateFallsBack verifies that a template naming an
// unknown variable falls back to the default format instead of
// publishing a broken title.
func TestGenerate_BadTemplateFallsBack(t *testing.T) {
	g := NewGenerator("{date} {nmae}", "", nil)

	n, err := g.Generate("Standup", meetingTime, pdf.Document{Text: "s"}, pdf.Document{Text: "t"})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if n.Title != "20240304 - Standup" {
		t.Errorf("Title = %q, want fallback %q", n.Title, "20240304 - Standup")
	}
}

// TestGenerate_CustomSeparator verifies the separator setting reaches the
// body.
func TestGenerate_CustomSeparator(t *testing.T) {
	g := NewGenerator("", "=====", nil)

	n, err := g.Generate("Standup", meetingTime, pdf.Document{Text: "s"}, pdf.Document{Text: "t"})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	want := "## Summary\n\ns\n\n\n=====\n\n\n## Transcript\n\nt"
	if n.Body != want {
		t.Errorf("Body = %q, want %q", n.Body, want)
	}
}

// TestGenerate_TrimsDocumentWhitespace verifies that stray surrounding
// whitespace in parsed documents does not leak into the note.
func TestGenerate_TrimsDocumentWhitespace(t *testing.T) {
	g := NewGenerator("", "", nil)

	n, err := g.Generate("Standup", meetingTime,
		pdf.Document{Text: "\n  summary body \n"},
		pdf.Document{Text: "\ttranscript body\n\n"},
	)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	want := "## Summary\n\nsummary body\n\n\n--==RAW NOTES==--\n\n\n## Transcript\n\ntranscript body"
	if n.Body != want {
		t.Errorf("Body = %q, want %q", n.Body, want)
	}
}
