// Package runner drives the reconcile loop that turns exported meeting
// PDFs into published notes.
//
// # Architecture
//
// The runner ties the leaf components together:
//
//   - scanner.Scanner: reports files new or modified since the last scan
//   - matcher.Matcher: groups changed files into (summary, transcript) pairs
//   - orchestrator.Orchestrator: runs one pair through parse, generate,
//     publish, record
//   - FileWatcher: optional fsnotify-based trigger for cycles between
//     polling intervals
//
// A reconcile cycle is scan, match, process. Only files that changed since
// the previous scan reach the matcher, so a pair whose files are untouched
// costs nothing after its first pass. Across restarts the scanner state is
// empty and every file reports as new; the orchestrator's content hash
// check is what keeps those from publishing twice.
//
// # File Watching
//
// With Config.Watch enabled, Run starts a FileWatcher on both directories
// and runs an extra cycle once the directories stay quiet for
// Config.Debounce. Exports arrive as bursts of writes, so the debounce
// keeps a half-written PDF from being read mid-copy:
//
//	fw, err := runner.NewFileWatcher()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer fw.Stop()
//
//	if err := fw.Start("/exports/summaries", "/exports/transcripts"); err != nil {
//	    log.Fatal(err)
//	}
//
//	for event := range fw.Events() {
//	    fmt.Printf("%s: %s (%s)\n", event.Op, event.Path, event.Kind)
//	}
//
// The watcher filters to .pdf files, maps fsnotify.Rename to a delete (the
// new name triggers a separate create), and ignores chmod events.
//
// # Graceful Shutdown
//
// Run returns nil when its context is cancelled. Cancellation is observed
// at cycle start and between pairs; the pair being processed always runs
// to completion, so a note is never half-published. Stop() on a
// FileWatcher closes its Events() and Errors() channels after the event
// loop exits.
package runner
