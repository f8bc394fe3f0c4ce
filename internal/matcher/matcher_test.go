package matcher

import (
	"testing"
	"time"

	"github.com/chadwalters/firebear/internal/scanner"
)

// file builds a scanner.File with the given base name.
func file(name string) scanner.File {
	return scanner.File{Path: "/meetings/" + name, ModTime: time.Now(), Size: 1024}
}

// TestMatch_BasicPair verifies that a summary and transcript with the same
// meeting name and close timestamps produce exactly one pair.
func TestMatch_BasicPair(t *testing.T) {
	m := New(nil)

	pairs := m.Match([]scanner.File{
		file("Team Meeting-summary-2024-03-04T10-00-00.000Z.pdf"),
		file("Team Meeting-transcript-2024-03-04T10-00-00.000Z.pdf"),
	})

	if len(pairs) != 1 {
		t.Fatalf("Expected 1 pair, got %d", len(pairs))
	}

	p := pairs[0]
	if p.Name != "Team Meeting" {
		t.Errorf("Expected meeting name %q, got %q", "Team Meeting", p.Name)
	}
	want := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	if !p.Timestamp.Equal(want) {
		t.Errorf("Expected timestamp %v, got %v", want, p.Timestamp)
	}
	if p.Summary.Path != "/meetings/Team Meeting-summary-2024-03-04T10-00-00.000Z.pdf" {
		t.Errorf("Wrong summary file: %s", p.Summary.Path)
	}
	if p.Transcript.Path != "/meetings/Team Meeting-transcript-2024-03-04T10-00-00.000Z.pdf" {
		t.Errorf("Wrong transcript file: %s", p.Transcript.Path)
	}
}

// TestMatch_TimestampsWithinWindow verifies that timestamps a few seconds
// apart still match, as export times of the two files rarely agree exactly.
func TestMatch_TimestampsWithinWindow(t *testing.T) {
	m := New(nil)

	pairs := m.Match([]scanner.File{
		file("Standup-summary-2025-03-04T16-17-00.058Z.pdf"),
		file("Standup-transcript-2025-03-04T16-16-59.663Z.pdf"),
	})

	if len(pairs) != 1 {
		t.Fatalf("Expected 1 pair, got %d", len(pairs))
	}
	if pairs[0].Name != "Standup" {
		t.Errorf("Expected meeting name Standup, got %q", pairs[0].Name)
	}
}

// TestMatch_TimestampsOutsideWindow verifies that files five or more
// seconds apart open separate buckets and yield no pairs.
func TestMatch_TimestampsOutsideWindow(t *testing.T) {
	m := New(nil)

	pairs := m.Match([]scanner.File{
		file("Standup-summary-2024-03-04T10-00-00.000Z.pdf"),
		file("Standup-transcript-2024-03-04T10-00-05.000Z.pdf"),
	})

	if len(pairs) != 0 {
		t.Errorf("Expected 0 pairs for timestamps 5s apart, got %d", len(pairs))
	}
}

// TestMatch_UnparseableNamesSkipped verifies that files not matching the
// export pattern are filtered out without affecting valid pairs.
func TestMatch_UnparseableNamesSkipped(t *testing.T) {
	m := New(nil)

	pairs := m.Match([]scanner.File{
		file("random-notes.pdf"),
		file("Standup-recording-2024-03-04T10-00-00.000Z.pdf"),
		file("Standup-summary-2024-03-04.pdf"),
		file("Standup-summary-2024-03-04T10-00-00.000Z.pdf"),
		file("Standup-transcript-2024-03-04T10-00-01.500Z.pdf"),
	})

	if len(pairs) != 1 {
		t.Fatalf("Expected 1 pair, got %d", len(pairs))
	}
}

// TestMatch_IncompletePairDropped verifies that a summary without its
// transcript yields nothing.
func TestMatch_IncompletePairDropped(t *testing.T) {
	m := New(nil)

	pairs := m.Match([]scanner.File{
		file("Standup-summary-2024-03-04T10-00-00.000Z.pdf"),
	})

	if len(pairs) != 0 {
		t.Errorf("Expected 0 pairs for a lone summary, got %d", len(pairs))
	}
}

// TestMatch_DuplicateRoleLaterWins verifies that when two files claim the
// same role in one meeting, the later one in input order replaces the
// earlier one.
func TestMatch_DuplicateRoleLaterWins(t *testing.T) {
	m := New(nil)

	pairs := m.Match([]scanner.File{
		file("Standup-summary-2024-03-04T10-00-00.000Z.pdf"),
		file("Standup-summary-2024-03-04T10-00-01.000Z.pdf"),
		file("Standup-transcript-2024-03-04T10-00-02.000Z.pdf"),
	})

	if len(pairs) != 1 {
		t.Fatalf("Expected 1 pair, got %d", len(pairs))
	}
	want := "/meetings/Standup-summary-2024-03-04T10-00-01.000Z.pdf"
	if pairs[0].Summary.Path != want {
		t.Errorf("Expected later summary %s, got %s", want, pairs[0].Summary.Path)
	}
}

// TestMatch_CaseInsensitiveRole verifies that the role and extension parse
// regardless of case.
func TestMatch_CaseInsensitiveRole(t *testing.T) {
	m := New(nil)

	pairs := m.Match([]scanner.File{
		file("Standup-Summary-2024-03-04T10-00-00.000Z.PDF"),
		file("Standup-TRANSCRIPT-2024-03-04T10-00-01.000Z.pdf"),
	})

	if len(pairs) != 1 {
		t.Fatalf("Expected 1 pair, got %d", len(pairs))
	}
}

// TestMatch_MeetingNameTrimmed verifies that surrounding whitespace in the
// name segment is stripped.
func TestMatch_MeetingNameTrimmed(t *testing.T) {
	m := New(nil)

	pairs := m.Match([]scanner.File{
		file(" Standup -summary-2024-03-04T10-00-00.000Z.pdf"),
		file(" Standup -transcript-2024-03-04T10-00-01.000Z.pdf"),
	})

	if len(pairs) != 1 {
		t.Fatalf("Expected 1 pair, got %d", len(pairs))
	}
	if pairs[0].Name != "Standup" {
		t.Errorf("Expected trimmed name %q, got %q", "Standup", pairs[0].Name)
	}
}

// TestMatch_SameNameDifferentMeetings verifies that recurring meetings with
// the same name but distant timestamps pair up independently.
func TestMatch_SameNameDifferentMeetings(t *testing.T) {
	m := New(nil)

	pairs := m.Match([]scanner.File{
		file("Standup-summary-2024-03-04T10-00-00.000Z.pdf"),
		file("Standup-transcript-2024-03-04T10-00-01.000Z.pdf"),
		file("Standup-summary-2024-03-05T10-00-00.000Z.pdf"),
		file("Standup-transcript-2024-03-05T10-00-01.000Z.pdf"),
	})

	if len(pairs) != 2 {
		t.Fatalf("Expected 2 pairs, got %d", len(pairs))
	}
}

// TestMatch_DeterministicOrder verifies that pairs come back sorted by
// timestamp, then name. The processing loop depends on this for stable
// cycle-to-cycle ordering.
func TestMatch_DeterministicOrder(t *testing.T) {
	m := New(nil)

	pairs := m.Match([]scanner.File{
		file("Beta-summary-2024-03-04T12-00-00.000Z.pdf"),
		file("Beta-transcript-2024-03-04T12-00-01.000Z.pdf"),
		file("Alpha-summary-2024-03-04T12-00-00.000Z.pdf"),
		file("Alpha-transcript-2024-03-04T12-00-01.000Z.pdf"),
		file("Zulu-summary-2024-03-04T09-00-00.000Z.pdf"),
		file("Zulu-transcript-2024-03-04T09-00-01.000Z.pdf"),
	})

	if len(pairs) != 3 {
		t.Fatalf("Expected 3 pairs, got %d", len(pairs))
	}

	wantOrder := []string{"Zulu", "Alpha", "Beta"}
	for i, want := range wantOrder {
		if pairs[i].Name != want {
			t.Errorf("Position %d: expected %q, got %q", i, want, pairs[i].Name)
		}
	}
}

// TestMatch_TimestampParsing verifies millisecond precision and UTC
// interpretation of the filename timestamp.
func TestMatch_TimestampParsing(t *testing.T) {
	m := New(nil)

	pairs := m.Match([]scanner.File{
		file("Sync-summary-2025-03-04T16-17-00.058Z.pdf"),
		file("Sync-transcript-2025-03-04T16-17-00.999Z.pdf"),
	})

	if len(pairs) != 1 {
		t.Fatalf("Expected 1 pair, got %d", len(pairs))
	}
	want := time.Date(2025, 3, 4, 16, 17, 0, 58*int(time.Millisecond), time.UTC)
	if !pairs[0].Timestamp.Equal(want) {
		t.Errorf("Expected %v, got %v", want, pairs[0].Timestamp)
	}
}

// TestMatch_EmptyInput verifies that no files yield no pairs.
func TestMatch_EmptyInput(t *testing.T) {
	m := New(nil)

	if pairs := m.Match(nil); len(pairs) != 0 {
		t.Errorf("Expected 0 pairs for empty input, got %d", len(pairs))
	}
}

// TestParseExportName verifies direct parsing of exported file names.
func TestParseExportName(t *testing.T) {
	tests := []struct {
		base     string
		wantName string
		wantRole string
		wantTS   time.Time
		wantOK   bool
	}{
		{
			base:     "Team Meeting-summary-2024-03-04T10-00-00.000Z.pdf",
			wantName: "Team Meeting",
			wantRole: "summary",
			wantTS:   time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC),
			wantOK:   true,
		},
		{
			base:     "Sync-TRANSCRIPT-2025-03-04T16-17-00.058Z.pdf",
			wantName: "Sync",
			wantRole: "transcript",
			wantTS:   time.Date(2025, 3, 4, 16, 17, 0, 58*int(time.Millisecond), time.UTC),
			wantOK:   true,
		},
		{base: "notes.pdf", wantOK: false},
		{base: "Sync-recap-2024-03-04T10-00-00.000Z.pdf", wantOK: false},
		{base: "Sync-summary-2024-13-04T10-00-00.000Z.pdf", wantOK: false},
	}

	for _, tt := range tests {
		name, role, ts, ok := ParseExportName(tt.base)
		if ok != tt.wantOK {
			t.Errorf("ParseExportName(%q) ok = %v, want %v", tt.base, ok, tt.wantOK)
			continue
		}
		if !ok {
			continue
		}
		if name != tt.wantName {
			t.Errorf("ParseExportName(%q) name = %q, want %q", tt.base, name, tt.wantName)
		}
		if role != tt.wantRole {
			t.Errorf("ParseExportName(%q) role = %q, want %q", tt.base, role, tt.wantRole)
		}
		if !ts.Equal(tt.wantTS) {
			t.Errorf("ParseExportName(%q) ts = %v, want %v", tt.base, ts, tt.wantTS)
		}
	}
}
