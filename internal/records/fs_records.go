package records

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"namereg/internal/identity"
)

var _ Records = (*FileSystemRecords)(nil)

// ErrStoreClosed is returned for mutations after Close.
var ErrStoreClosed = errors.New("record store is closed")

// FileSystemRecords keeps records in memory and makes every accepted mutation
// durable in an append-only journal, compacted into a snapshot periodically.
type FileSystemRecords struct {
	id               string
	mu               sync.RWMutex
	snapshotMu       sync.Mutex // held across a whole snapshot, taken before mu
	records          map[string]Record
	baseDir          string
	journalFile      *os.File
	journalName      string
	snapshotInterval time.Duration
	stopCh           chan struct{}
	closed           bool
	logger           *zap.Logger
}

type journalEntry struct {
	Op     string `json:"op"` // "POST", "PUT" or "DELETE"
	Record Record `json:"record"`
}

const (
	snapshotFile  = "snapshot.json"
	journalPrefix = "journal-"
	journalSuffix = ".jsonl"
)

// NewFileSystemRecords opens (or creates) a journaled record store in baseDir.
// A snapshotInterval of zero disables compaction.
func NewFileSystemRecords(baseDir string, snapshotInterval time.Duration, logger *zap.Logger) (*FileSystemRecords, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	id, err := identity.LoadOrCreateID(filepath.Join(baseDir, "id"))
	if err != nil {
		return nil, err
	}

	s := &FileSystemRecords{
		id:               id,
		records:          make(map[string]Record),
		baseDir:          baseDir,
		snapshotInterval: snapshotInterval,
		stopCh:           make(chan struct{}),
		logger:           logger,
	}

	snapshotPath := filepath.Join(baseDir, snapshotFile)
	if data, err := os.ReadFile(snapshotPath); err == nil {
		if err := json.Unmarshal(data, &s.records); err != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	journals, err := s.journals()
	if err != nil {
		return nil, err
	}
	for _, journal := range journals {
		if err := s.applyJournal(filepath.Join(baseDir, journal)); err != nil {
			return nil, fmt.Errorf("failed to apply journal %s: %w", journal, err)
		}
	}

	if err := s.openNewJournal(); err != nil {
		return nil, err
	}

	if snapshotInterval > 0 {
		go s.snapshotLoop()
	}

	return s, nil
}

// ID returns the store ID.
func (s *FileSystemRecords) ID() string {
	return s.id
}

func (s *FileSystemRecords) journals() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}
	var journals []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), journalPrefix) && strings.HasSuffix(entry.Name(), journalSuffix) {
			journals = append(journals, entry.Name())
		}
	}
	sort.Strings(journals)
	return journals, nil
}

func (s *FileSystemRecords) applyJournal(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var entry journalEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			s.logger.Warn("skipping malformed journal line", zap.String("journal", path), zap.Error(err))
			continue
		}
		switch entry.Op {
		case "POST", "PUT", "DELETE":
			s.records[entry.Record.Address] = entry.Record
		}
	}
	return scanner.Err()
}

func (s *FileSystemRecords) openNewJournal() error {
	name := fmt.Sprintf("%s%d%s", journalPrefix, time.Now().UnixNano(), journalSuffix)
	file, err := os.OpenFile(filepath.Join(s.baseDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	if s.journalFile != nil {
		s.journalFile.Close()
	}

	s.journalFile = file
	s.journalName = name
	return nil
}

// Close stops the snapshot loop and folds every journal into the snapshot,
// so a store opened for a single command leaves no journal behind.
func (s *FileSystemRecords) Close() error {
	s.snapshotMu.Lock()
	defer s.snapshotMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.stopCh)

	err := s.journalFile.Close()
	s.journalFile = nil
	if err != nil {
		return err
	}

	if err := s.writeSnapshot(s.records); err != nil {
		return err
	}
	return s.removeJournals("")
}

// Get returns the live record stored at address.
func (s *FileSystemRecords) Get(ctx context.Context, address string, tag uint64) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[address]
	if !ok || rec.Deleted() {
		return Record{}, ErrRecordNotFound
	}
	return cloneRecord(rec), nil
}

// Put creates a record.
func (s *FileSystemRecords) Put(ctx context.Context, rec Record) error {
	return s.apply("POST", rec, CheckCreate)
}

// Post updates a record.
func (s *FileSystemRecords) Post(ctx context.Context, rec Record) error {
	return s.apply("PUT", rec, CheckUpdate)
}

// Delete replaces a record with a tombstone.
func (s *FileSystemRecords) Delete(ctx context.Context, rec Record) error {
	return s.apply("DELETE", rec, CheckDelete)
}

func (s *FileSystemRecords) apply(op string, rec Record, check func(*Record, Record) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	var current *Record
	if existing, ok := s.records[rec.Address]; ok {
		current = &existing
	}
	if err := check(current, rec); err != nil {
		return err
	}

	rec = cloneRecord(rec)
	data, err := json.Marshal(journalEntry{Op: op, Record: rec})
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if _, err := s.journalFile.Write(data); err != nil {
		return err
	}
	if err := s.journalFile.Sync(); err != nil {
		return err
	}

	s.records[rec.Address] = rec
	return nil
}

func (s *FileSystemRecords) snapshotLoop() {
	ticker := time.NewTicker(s.snapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if err := s.doSnapshot(); err != nil {
				s.logger.Warn("snapshot failed", zap.String("dir", s.baseDir), zap.Error(err))
			}
		}
	}
}

func (s *FileSystemRecords) doSnapshot() error {
	s.snapshotMu.Lock()
	defer s.snapshotMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	recordsCopy := make(map[string]Record, len(s.records))
	for k, v := range s.records {
		recordsCopy[k] = cloneRecord(v)
	}

	// The new journal receives every mutation after the copy, so older
	// journals become redundant once the snapshot is in place.
	if err := s.openNewJournal(); err != nil {
		s.mu.Unlock()
		return err
	}
	newJournal := s.journalName
	s.mu.Unlock()

	if err := s.writeSnapshot(recordsCopy); err != nil {
		return err
	}
	return s.removeJournals(newJournal)
}

func (s *FileSystemRecords) writeSnapshot(records map[string]Record) error {
	tmpPath := filepath.Join(s.baseDir, "snapshot.tmp")
	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	err = json.NewEncoder(file).Encode(records)
	if err == nil {
		err = file.Sync()
	}
	err = multierr.Append(err, file.Close())
	if err != nil {
		return multierr.Append(err, os.Remove(tmpPath))
	}

	if err := os.Rename(tmpPath, filepath.Join(s.baseDir, snapshotFile)); err != nil {
		return multierr.Append(err, os.Remove(tmpPath))
	}
	return nil
}

// removeJournals deletes every journal except keep.
func (s *FileSystemRecords) removeJournals(keep string) error {
	journals, err := s.journals()
	if err != nil {
		return err
	}
	for _, journal := range journals {
		if journal != keep {
			err = multierr.Append(err, os.Remove(filepath.Join(s.baseDir, journal)))
		}
	}
	return err
}
