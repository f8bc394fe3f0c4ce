// Package state persists the durable memory of which meeting pairs have
// been published and at what content version.
//
// The store keeps one Record per pair in a single JSON snapshot file.
// Every update first copies the current snapshot to a timestamped .bak
// file, then atomically replaces the snapshot via a temp file and rename,
// then prunes backups beyond the retention count. The previous valid
// state therefore survives a crash at any point in the write path.
//
// Loading never fails the caller: a snapshot that cannot be read or
// parsed is restored from the newest backup, and if no usable backup
// exists the store starts empty with a logged warning.
//
// Change detection is content-based. Each Record carries SHA-256 digests
// of both files, computed by streaming so large exports do not need to
// fit in memory.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// DefaultBackupCount is the number of snapshot backups retained when
	// no explicit count is configured.
	DefaultBackupCount = 3

	// MinBackupCount is the floor on retention: at least one backup must
	// survive every update or the recovery chain breaks.
	MinBackupCount = 1
)

// backupStampLayout names backup files. Nanosecond resolution keeps names
// unique under rapid successive updates, and lexical order matches
// creation order.
const backupStampLayout = "20060102_150405.000000000"

// Record is the durable memory of one successfully published pair.
// It is created on first publish, replaced in place on republish after a
// content change, and deleted only by an explicit Remove.
type Record struct {
	// PairKey identifies the pair; see PairKey.
	PairKey string `json:"pair_key"`
	// SummaryPath is where the summary file lived when last published.
	SummaryPath string `json:"summary_path"`
	// SummaryHash is the SHA-256 of the summary file's bytes.
	SummaryHash string `json:"summary_hash"`
	// TranscriptPath is where the transcript file lived when last published.
	TranscriptPath string `json:"transcript_path"`
	// TranscriptHash is the SHA-256 of the transcript file's bytes.
	TranscriptHash string `json:"transcript_hash"`
	// NoteID is the identifier of the published note, when known.
	NoteID string `json:"bear_note_id"`
	// LastProcessed is when the pair was last successfully published.
	LastProcessed time.Time `json:"last_processed"`
}

// snapshot is the on-disk document: all records, sorted by pair key.
type snapshot struct {
	Records []Record `json:"records"`
}

// PairKey derives the stable identity of a pair from the two file names.
// Only base names participate, so moving both files to another directory
// keeps the identity.
func PairKey(summaryPath, transcriptPath string) string {
	return filepath.Base(summaryPath) + "|" + filepath.Base(transcriptPath)
}

// HashFile returns the hex SHA-256 digest of the file's content, reading
// in chunks rather than loading the whole file.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Store owns the snapshot file and its backups. All access within a
// process is expected to come from one goroutine; the store does no
// internal locking.
type Store struct {
	path        string
	backupCount int
	records     map[string]Record
	logger      *log.Logger
}

// Open creates a Store for the snapshot at path, ensures the parent
// directory exists, and loads current state. A backupCount of zero means
// unset and falls back to DefaultBackupCount; negative values are raised
// to MinBackupCount. If logger is nil, a stderr logger is used.
func Open(path string, backupCount int, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "[state] ", log.LstdFlags)
	}
	if backupCount == 0 {
		backupCount = DefaultBackupCount
	}
	if backupCount < MinBackupCount {
		backupCount = MinBackupCount
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	s := &Store{
		path:        path,
		backupCount: backupCount,
		records:     make(map[string]Record),
		logger:      logger,
	}
	s.Load()
	return s, nil
}

// Path returns the snapshot file location.
func (s *Store) Path() string {
	return s.path
}

// Len returns the number of records currently held.
func (s *Store) Len() int {
	return len(s.records)
}

// Load reads the snapshot from disk, replacing in-memory state. A
// snapshot that cannot be read or parsed is restored from the newest
// backup; with no usable backup the store starts empty. Load never
// reports an error, only logs.
func (s *Store) Load() {
	s.records = make(map[string]Record)

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return
	}

	var snap snapshot
	if err == nil {
		err = json.Unmarshal(data, &snap)
	}
	if err != nil {
		s.logger.Printf("Warning: failed to load state file %s: %v", s.path, err)
		snap, err = s.restoreFromBackup()
		if err != nil {
			s.logger.Printf("Warning: could not restore from backup: %v, starting with empty state", err)
			return
		}
	}

	for _, rec := range snap.Records {
		if rec.PairKey == "" {
			rec.PairKey = PairKey(rec.SummaryPath, rec.TranscriptPath)
		}
		s.records[rec.PairKey] = rec
	}
}

// Get returns the record for a pair key.
func (s *Store) Get(pairKey string) (Record, bool) {
	rec, ok := s.records[pairKey]
	return rec, ok
}

// Records returns a copy of all records sorted by pair key.
func (s *Store) Records() []Record {
	recs := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].PairKey < recs[j].PairKey
	})
	return recs
}

// HasChanged reports whether the pair needs publishing: true when no
// record exists, or when the current content hash of either file differs
// from the recorded one. A file that cannot be hashed counts as changed.
func (s *Store) HasChanged(summaryPath, transcriptPath string) bool {
	rec, ok := s.records[PairKey(summaryPath, transcriptPath)]
	if !ok {
		return true
	}

	summaryHash, err := HashFile(summaryPath)
	if err != nil {
		s.logger.Printf("Error hashing %s: %v", summaryPath, err)
		return true
	}
	if summaryHash != rec.SummaryHash {
		return true
	}

	transcriptHash, err := HashFile(transcriptPath)
	if err != nil {
		s.logger.Printf("Error hashing %s: %v", transcriptPath, err)
		return true
	}
	return transcriptHash != rec.TranscriptHash
}

// Update inserts or replaces a record and persists the snapshot. The
// current on-disk snapshot is backed up first, then the new snapshot is
// written to a temp file and renamed into place, then backups beyond the
// retention count are pruned oldest-first. A missing PairKey is derived
// from the paths; a zero LastProcessed is set to now.
func (s *Store) Update(rec Record) error {
	if rec.PairKey == "" {
		rec.PairKey = PairKey(rec.SummaryPath, rec.TranscriptPath)
	}
	if rec.LastProcessed.IsZero() {
		rec.LastProcessed = time.Now()
	}

	if err := s.createBackup(); err != nil {
		return fmt.Errorf("failed to back up state: %w", err)
	}

	s.records[rec.PairKey] = rec

	if err := s.save(); err != nil {
		return err
	}

	s.pruneBackups()
	return nil
}

// Remove deletes the record for a pair from memory and disk. Removing an
// unknown key is a no-op. No backup is taken.
func (s *Store) Remove(pairKey string) error {
	if _, ok := s.records[pairKey]; !ok {
		return nil
	}
	delete(s.records, pairKey)
	return s.save()
}

// save writes the snapshot atomically: temp file in the same directory,
// then rename over the live path.
func (s *Store) save() error {
	snap := snapshot{Records: s.Records()}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// stem is the snapshot file name without its extension, used to name and
// find backups.
func (s *Store) stem() string {
	base := filepath.Base(s.path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// listBackups returns all backup files for this snapshot, oldest first.
func (s *Store) listBackups() ([]string, error) {
	pattern := filepath.Join(filepath.Dir(s.path), s.stem()+".*.bak")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}

// createBackup copies the current snapshot to a timestamped .bak file.
// No snapshot on disk means nothing to back up.
func (s *Store) createBackup() error {
	src, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open state file: %w", err)
	}
	defer src.Close()

	stamp := time.Now().Format(backupStampLayout)
	backupPath := filepath.Join(filepath.Dir(s.path), fmt.Sprintf("%s.%s.bak", s.stem(), stamp))

	dst, err := os.Create(backupPath)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(backupPath)
		return fmt.Errorf("failed to copy state to backup: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(backupPath)
		return fmt.Errorf("failed to finish backup: %w", err)
	}
	return nil
}

// pruneBackups deletes the oldest backups beyond the retention count.
// Failures are logged, not returned; pruning must never fail an update.
func (s *Store) pruneBackups() {
	backups, err := s.listBackups()
	if err != nil {
		s.logger.Printf("Warning: %v", err)
		return
	}
	for len(backups) > s.backupCount {
		oldest := backups[0]
		if err := os.Remove(oldest); err != nil {
			s.logger.Printf("Warning: failed to remove old backup %s: %v", oldest, err)
			return
		}
		backups = backups[1:]
	}
}

// restoreFromBackup reads the newest backup, rewrites the snapshot from
// it, and returns the parsed contents.
func (s *Store) restoreFromBackup() (snapshot, error) {
	backups, err := s.listBackups()
	if err != nil {
		return snapshot{}, err
	}
	if len(backups) == 0 {
		return snapshot{}, errors.New("no backup files found")
	}

	newest := backups[len(backups)-1]
	data, err := os.ReadFile(newest)
	if err != nil {
		return snapshot{}, fmt.Errorf("failed to read backup %s: %w", newest, err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return snapshot{}, fmt.Errorf("failed to parse backup %s: %w", newest, err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		s.logger.Printf("Warning: failed to rewrite state file from backup: %v", err)
	}
	s.logger.Printf("Restored state from backup %s", filepath.Base(newest))
	return snap, nil
}
