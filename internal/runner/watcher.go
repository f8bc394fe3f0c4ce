package runner

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// EventOp represents the type of file system operation.
type EventOp int

const (
	// OpCreate indicates a new file was created.
	OpCreate EventOp = iota
	// OpModify indicates an existing file was modified.
	OpModify
	// OpDelete indicates a file was deleted.
	OpDelete
)

// String returns a human-readable representation of the operation.
func (op EventOp) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// DirKind represents which watched directory an event came from.
type DirKind int

const (
	// KindSummary indicates a file in the summary export directory.
	KindSummary DirKind = iota
	// KindTranscript indicates a file in the transcript export directory.
	KindTranscript
)

// String returns a human-readable representation of the directory kind.
func (k DirKind) String() string {
	switch k {
	case KindSummary:
		return "summary"
	case KindTranscript:
		return "transcript"
	default:
		return "unknown"
	}
}

// FileEvent represents a file system event for an exported PDF.
type FileEvent struct {
	// Path is the path to the file that changed.
	Path string
	// Kind indicates which watched directory the file lives in.
	Kind DirKind
	// Op is the operation that occurred (create, modify, delete).
	Op EventOp
}

// FileWatcher watches the summary and transcript directories for changes.
// It uses fsnotify for cross-platform file system event monitoring.
type FileWatcher struct {
	watcher       *fsnotify.Watcher
	events        chan FileEvent
	errors        chan error
	done          chan struct{}
	wg            sync.WaitGroup
	mu            sync.Mutex
	running       bool
	summaryDir    string
	transcriptDir string
}

// NewFileWatcher creates a new FileWatcher instance.
// The watcher must be started with Start() before it will emit events.
func NewFileWatcher() (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher: watcher,
		events:  make(chan FileEvent, 100),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching the specified directories for changes.
// It monitors both directories for *.pdf file events.
// Returns an error if the directories cannot be watched.
func (fw *FileWatcher) Start(summaryDir, transcriptDir string) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.running {
		return fmt.Errorf("watcher already running")
	}

	fw.summaryDir = summaryDir
	fw.transcriptDir = transcriptDir

	if err := fw.watcher.Add(summaryDir); err != nil {
		return fmt.Errorf("failed to watch summary directory %s: %w", summaryDir, err)
	}

	// Both roles may share one directory; watch it once.
	if transcriptDir != summaryDir {
		if err := fw.watcher.Add(transcriptDir); err != nil {
			// Clean up summary watch if transcript watch fails
			fw.watcher.Remove(summaryDir)
			return fmt.Errorf("failed to watch transcript directory %s: %w", transcriptDir, err)
		}
	}

	fw.running = true
	fw.wg.Add(1)
	go fw.processEvents()

	return nil
}

// Stop stops watching for file system events and cleans up resources.
// It blocks until the event processing goroutine has exited.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	if !fw.running {
		fw.mu.Unlock()
		return nil
	}
	fw.running = false
	fw.mu.Unlock()

	// Signal shutdown
	close(fw.done)

	// Close the underlying watcher (this will unblock the event loop)
	if err := fw.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	// Wait for event processing to finish
	fw.wg.Wait()

	// Close channels
	close(fw.events)
	close(fw.errors)

	return nil
}

// Events returns the channel that emits FileEvent notifications.
// This channel is closed when the watcher is stopped.
func (fw *FileWatcher) Events() <-chan FileEvent {
	return fw.events
}

// Errors returns the channel that emits error notifications.
// This channel is closed when the watcher is stopped.
func (fw *FileWatcher) Errors() <-chan error {
	return fw.errors
}

// processEvents is the main event loop that converts fsnotify events to
// FileEvent notifications.
func (fw *FileWatcher) processEvents() {
	defer fw.wg.Done()

	for {
		select {
		case <-fw.done:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			if fileEvent, ok := fw.convertEvent(event); ok {
				select {
				case fw.events <- fileEvent:
				case <-fw.done:
					return
				}
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}

			select {
			case fw.errors <- err:
			case <-fw.done:
				return
			}
		}
	}
}

// convertEvent converts an fsnotify event to a FileEvent.
// Returns (FileEvent, true) if the event should be processed,
// or (FileEvent{}, false) if the event should be ignored.
func (fw *FileWatcher) convertEvent(event fsnotify.Event) (FileEvent, bool) {
	// Only process .pdf files
	if !strings.EqualFold(filepath.Ext(event.Name), ".pdf") {
		return FileEvent{}, false
	}

	kind, ok := fw.determineKind(event.Name)
	if !ok {
		return FileEvent{}, false
	}

	var op EventOp
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
	case event.Has(fsnotify.Write):
		op = OpModify
	case event.Has(fsnotify.Remove):
		op = OpDelete
	case event.Has(fsnotify.Rename):
		// Treat rename as delete (the new name will trigger a create)
		op = OpDelete
	default:
		// Ignore chmod and other events
		return FileEvent{}, false
	}

	return FileEvent{
		Path: event.Name,
		Kind: kind,
		Op:   op,
	}, true
}

// determineKind checks whether the file path is in the summary or
// transcript directory and returns the corresponding DirKind.
func (fw *FileWatcher) determineKind(path string) (DirKind, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, false
	}

	dir := filepath.Dir(absPath)

	absSummaryDir, _ := filepath.Abs(fw.summaryDir)
	absTranscriptDir, _ := filepath.Abs(fw.transcriptDir)

	if dir == absSummaryDir {
		return KindSummary, true
	}
	if dir == absTranscriptDir {
		return KindTranscript, true
	}

	return 0, false
}

// IsRunning returns true if the watcher is currently running.
func (fw *FileWatcher) IsRunning() bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.running
}
