package runner

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// watchDirs creates summary and transcript directories under a temp root.
func watchDirs(t *testing.T) (string, string) {
	t.Helper()

	tmp := t.TempDir()
	summaryDir := filepath.Join(tmp, "summaries")
	transcriptDir := filepath.Join(tmp, "transcripts")

	if err := os.MkdirAll(summaryDir, 0755); err != nil {
		t.Fatalf("Failed to create summary dir: %v", err)
	}
	if err := os.MkdirAll(transcriptDir, 0755); err != nil {
		t.Fatalf("Failed to create transcript dir: %v", err)
	}
	return summaryDir, transcriptDir
}

// TestNewFileWatcher verifies that creating a new FileWatcher succeeds.
func TestNewFileWatcher(t *testing.T) {
	fw, err := NewFileWatcher()
	if err != nil {
		t.Fatalf("NewFileWatcher() failed: %v", err)
	}
	defer fw.Stop()

	if fw.IsRunning() {
		t.Error("Newly created watcher should not be running")
	}
}

// TestFileWatcher_StartStop verifies that the watcher can start and stop cleanly.
func TestFileWatcher_StartStop(t *testing.T) {
	summaryDir, transcriptDir := watchDirs(t)

	fw, err := NewFileWatcher()
	if err != nil {
		t.Fatalf("NewFileWatcher() failed: %v", err)
	}

	if err := fw.Start(summaryDir, transcriptDir); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	if !fw.IsRunning() {
		t.Error("Watcher should be running after Start()")
	}

	if err := fw.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	if fw.IsRunning() {
		t.Error("Watcher should not be running after Stop()")
	}
}

// TestFileWatcher_StartAlreadyRunning verifies that starting an already running watcher fails.
func TestFileWatcher_StartAlreadyRunning(t *testing.T) {
	summaryDir, transcriptDir := watchDirs(t)

	fw, err := NewFileWatcher()
	if err != nil {
		t.Fatalf("NewFileWatcher() failed: %v", err)
	}
	defer fw.Stop()

	if err := fw.Start(summaryDir, transcriptDir); err != nil {
		t.Fatalf("First Start() failed: %v", err)
	}

	if err := fw.Start(summaryDir, transcriptDir); err == nil {
		t.Error("Second Start() should fail when watcher is already running")
	}
}

// TestFileWatcher_SummaryFileCreated verifies that creating a summary PDF triggers an event.
func TestFileWatcher_SummaryFileCreated(t *testing.T) {
	summaryDir, transcriptDir := watchDirs(t)

	fw, err := NewFileWatcher()
	if err != nil {
		t.Fatalf("NewFileWatcher() failed: %v", err)
	}
	defer fw.Stop()

	if err := fw.Start(summaryDir, transcriptDir); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	path := filepath.Join(summaryDir, "Team Meeting-summary-2024-03-04T10-00-00.000Z.pdf")
	if err := os.WriteFile(path, []byte("%PDF"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	select {
	case event := <-fw.Events():
		if event.Kind != KindSummary {
			t.Errorf("Expected KindSummary, got %v", event.Kind)
		}
		if event.Op != OpCreate {
			t.Errorf("Expected OpCreate, got %v", event.Op)
		}
		if filepath.Dir(event.Path) != summaryDir {
			t.Errorf("Expected path under %s, got %s", summaryDir, event.Path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for create event")
	}
}

// TestFileWatcher_TranscriptFileDeleted verifies that deleting a transcript PDF triggers an event.
func TestFileWatcher_TranscriptFileDeleted(t *testing.T) {
	summaryDir, transcriptDir := watchDirs(t)

	path := filepath.Join(transcriptDir, "Team Meeting-transcript-2024-03-04T10-00-02.000Z.pdf")
	if err := os.WriteFile(path, []byte("%PDF"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	fw, err := NewFileWatcher()
	if err != nil {
		t.Fatalf("NewFileWatcher() failed: %v", err)
	}
	defer fw.Stop()

	if err := fw.Start(summaryDir, transcriptDir); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	// Give watcher time to stabilize
	time.Sleep(100 * time.Millisecond)

	if err := os.Remove(path); err != nil {
		t.Fatalf("Failed to delete file: %v", err)
	}

	select {
	case event := <-fw.Events():
		if event.Kind != KindTranscript {
			t.Errorf("Expected KindTranscript, got %v", event.Kind)
		}
		if event.Op != OpDelete {
			t.Errorf("Expected OpDelete, got %v", event.Op)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for delete event")
	}
}

// TestFileWatcher_NonPDFFilesIgnored verifies that non-.pdf files are ignored.
func TestFileWatcher_NonPDFFilesIgnored(t *testing.T) {
	summaryDir, transcriptDir := watchDirs(t)

	fw, err := NewFileWatcher()
	if err != nil {
		t.Fatalf("NewFileWatcher() failed: %v", err)
	}
	defer fw.Stop()

	if err := fw.Start(summaryDir, transcriptDir); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	txtPath := filepath.Join(summaryDir, "readme.txt")
	if err := os.WriteFile(txtPath, []byte("This is a readme"), 0644); err != nil {
		t.Fatalf("Failed to write txt file: %v", err)
	}

	select {
	case event := <-fw.Events():
		t.Errorf("Should not receive event for non-.pdf file, got: %+v", event)
	case <-time.After(500 * time.Millisecond):
		// Expected - no event for non-.pdf file
	}
}

// TestFileWatcher_SharedDirectory verifies watching when both roles share
// one directory.
func TestFileWatcher_SharedDirectory(t *testing.T) {
	dir := t.TempDir()

	fw, err := NewFileWatcher()
	if err != nil {
		t.Fatalf("NewFileWatcher() failed: %v", err)
	}
	defer fw.Stop()

	if err := fw.Start(dir, dir); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	path := filepath.Join(dir, "Sync-summary-2024-03-04T10-00-00.000Z.pdf")
	if err := os.WriteFile(path, []byte("%PDF"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	select {
	case event := <-fw.Events():
		if event.Kind != KindSummary {
			t.Errorf("Expected KindSummary for shared directory, got %v", event.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for create event")
	}
}

// TestFileWatcher_StopClosesChannels verifies that Stop() closes the event channels.
func TestFileWatcher_StopClosesChannels(t *testing.T) {
	summaryDir, transcriptDir := watchDirs(t)

	fw, err := NewFileWatcher()
	if err != nil {
		t.Fatalf("NewFileWatcher() failed: %v", err)
	}

	if err := fw.Start(summaryDir, transcriptDir); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	events := fw.Events()
	errors := fw.Errors()

	if err := fw.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	select {
	case _, ok := <-events:
		if ok {
			t.Error("Events channel should be closed after Stop()")
		}
	case <-time.After(1 * time.Second):
		t.Error("Timeout verifying events channel closure")
	}

	select {
	case _, ok := <-errors:
		if ok {
			t.Error("Errors channel should be closed after Stop()")
		}
	case <-time.After(1 * time.Second):
		t.Error("Timeout verifying errors channel closure")
	}
}

// TestFileWatcher_StartNonexistentDirectory verifies that starting with nonexistent directories fails.
func TestFileWatcher_StartNonexistentDirectory(t *testing.T) {
	fw, err := NewFileWatcher()
	if err != nil {
		t.Fatalf("NewFileWatcher() failed: %v", err)
	}
	defer fw.Stop()

	if err := fw.Start("/nonexistent/summaries", "/nonexistent/transcripts"); err == nil {
		t.Error("Start() should fail with nonexistent directories")
	}
}

// TestEventOp_String verifies the String() method for EventOp.
func TestEventOp_String(t *testing.T) {
	tests := []struct {
		op       EventOp
		expected string
	}{
		{OpCreate, "create"},
		{OpModify, "modify"},
		{OpDelete, "delete"},
		{EventOp(999), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.op.String(); got != tt.expected {
			t.Errorf("EventOp(%d).String() = %q, want %q", tt.op, got, tt.expected)
		}
	}
}

// TestDirKind_String verifies the String() method for DirKind.
func TestDirKind_String(t *testing.T) {
	tests := []struct {
		kind     DirKind
		expected string
	}{
		{KindSummary, "summary"},
		{KindTranscript, "transcript"},
		{DirKind(999), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.expected {
			t.Errorf("DirKind(%d).String() = %q, want %q", tt.kind, got, tt.expected)
		}
	}
}
