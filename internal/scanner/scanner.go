// Package scanner provides incremental directory scanning for meeting PDFs.
//
// A Scanner watches the summary and transcript export directories and
// reports files that are new or whose (mtime, size) changed since the
// previous scan. Files that disappear between scans are forgotten so a
// reappearance is reported as new again.
package scanner

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// pdfExt is the only file extension the scanner considers.
const pdfExt = ".pdf"

// File is a snapshot of a filesystem entry as last observed by a scan.
type File struct {
	// Path is the full path to the file.
	Path string
	// ModTime is the modification time at scan.
	ModTime time.Time
	// Size is the file size in bytes at scan.
	Size int64
}

// Scanner tracks two directories and reports changed files between scans.
// It is not safe for concurrent use; callers drive it from a single loop.
type Scanner struct {
	summaryDir    string
	transcriptDir string
	known         map[string]File
	logger        *log.Logger
}

// New creates a Scanner over the given summary and transcript directories.
// If logger is nil, a stderr logger is used.
func New(summaryDir, transcriptDir string, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.New(os.Stderr, "[scanner] ", log.LstdFlags)
	}
	return &Scanner{
		summaryDir:    summaryDir,
		transcriptDir: transcriptDir,
		known:         make(map[string]File),
		logger:        logger,
	}
}

// Scan lists both directories and returns the PDF files that are new or
// modified since the previous call. A directory that cannot be listed is
// logged and skipped for this cycle; the other directory is still scanned.
// Paths that vanished since the last scan are dropped from the internal
// state without being reported. The returned order is unspecified.
func (s *Scanner) Scan() []File {
	var changed []File
	seen := make(map[string]bool)

	for _, dir := range []string{s.summaryDir, s.transcriptDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			s.logger.Printf("Error scanning directory %s: %v", dir, err)
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), pdfExt) {
				continue
			}

			info, err := entry.Info()
			if err != nil {
				s.logger.Printf("Error reading file info for %s: %v", entry.Name(), err)
				continue
			}

			path := filepath.Join(dir, entry.Name())
			if seen[path] {
				continue
			}
			seen[path] = true

			f := File{Path: path, ModTime: info.ModTime(), Size: info.Size()}
			prev, ok := s.known[path]
			if ok && prev.ModTime.Equal(f.ModTime) && prev.Size == f.Size {
				continue
			}

			s.known[path] = f
			changed = append(changed, f)
		}
	}

	// Forget files that no longer exist so a reappearance counts as new.
	for path := range s.known {
		if !seen[path] {
			delete(s.known, path)
		}
	}

	return changed
}

// Known returns the number of files currently tracked.
func (s *Scanner) Known() int {
	return len(s.known)
}
