// Package store keeps what a session produces on disk: an audit trail,
// content-addressed scan snapshots and the captured credential log.
package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Store manages a directory of session records.
type Store struct {
	baseDir   string
	scansDir  string
	indexPath string
	auditPath string
	credsPath string

	mu sync.Mutex // serialises appends and index updates
}

// Index contains quick lookup information for all saved scans.
type Index struct {
	Scans     map[string]IndexEntry `json:"scans"` // hash -> entry
	UpdatedAt time.Time             `json:"updated_at"`
}

// IndexEntry contains summary info for quick listing.
type IndexEntry struct {
	Hash      string    `json:"hash"`
	Profile   string    `json:"profile"`
	Networks  int       `json:"networks"`
	Clients   int       `json:"clients"`
	BLE       int       `json:"ble"`
	Strongest string    `json:"strongest,omitempty"`
	Sightings int       `json:"sightings"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrNotFound is returned for an unknown scan hash.
var ErrNotFound = errors.New("scan not found")

// DefaultPath returns the default store path (~/.bw16).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".bw16"), nil
}

// Open opens or creates a store at the given path.
func Open(path string) (*Store, error) {
	s := &Store{
		baseDir:   path,
		scansDir:  filepath.Join(path, "scans"),
		indexPath: filepath.Join(path, "scans", "index.json"),
		auditPath: filepath.Join(path, "audit.log"),
		credsPath: filepath.Join(path, "credentials.log"),
	}

	if err := os.MkdirAll(s.scansDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scans dir: %w", err)
	}

	return s, nil
}

// OpenDefault opens the store at the default path.
func OpenDefault() (*Store, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Open(path)
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.baseDir }

// Audit appends one timestamped line to audit.log.
func (s *Store) Audit(format string, args ...any) error {
	line := fmt.Sprintf(format, args...)
	line = strings.ReplaceAll(line, "\n", " ")
	return s.appendLine(s.auditPath, time.Now().Format(time.RFC3339)+" "+line)
}

// AppendCredential adds a captured credential line to credentials.log.
func (s *Store) AppendCredential(line string) error {
	return s.appendLine(s.credsPath, time.Now().Format(time.RFC3339)+" "+line)
}

// Credentials returns every line of credentials.log, oldest first.
func (s *Store) Credentials() ([]string, error) {
	return s.readLines(s.credsPath)
}

// AuditLog returns every line of audit.log, oldest first.
func (s *Store) AuditLog() ([]string, error) {
	return s.readLines(s.auditPath)
}

func (s *Store) appendLine(path, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func (s *Store) readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

// SaveScan adds a scan to the store. If the same content was saved before,
// it records another sighting instead. Returns the hash and whether the
// scan was new.
func (s *Store) SaveScan(scan *Scan, seen Sighting) (string, bool, error) {
	hash, err := ContentHash(scan)
	if err != nil {
		return "", false, err
	}
	if seen.Timestamp.IsZero() {
		seen.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	scanPath := filepath.Join(s.scansDir, hashToFilename(hash)+".json")

	isNew := false
	var rec *Scan
	if _, err := os.Stat(scanPath); os.IsNotExist(err) {
		isNew = true
		rec = scan
		rec.ContentHash = hash
		rec.CreatedAt = seen.Timestamp
		rec.Sightings = []Sighting{seen}
	} else {
		rec, err = s.readScan(scanPath)
		if err != nil {
			return "", false, err
		}
		rec.Sightings = append(rec.Sightings, seen)
	}
	rec.UpdatedAt = seen.Timestamp

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", false, fmt.Errorf("failed to marshal scan: %w", err)
	}
	if err := os.WriteFile(scanPath, data, 0644); err != nil {
		return "", false, fmt.Errorf("failed to write scan: %w", err)
	}

	if err := s.updateIndex(hash, rec); err != nil {
		return "", false, fmt.Errorf("failed to update index: %w", err)
	}

	return hash, isNew, nil
}

// GetScan retrieves a scan by full hash or by a unique hash prefix.
func (s *Store) GetScan(hash string) (*Scan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	full, err := s.resolve(hash)
	if err != nil {
		return nil, err
	}
	return s.readScan(filepath.Join(s.scansDir, hashToFilename(full)+".json"))
}

func (s *Store) resolve(prefix string) (string, error) {
	index, err := s.loadIndex()
	if err != nil {
		return "", err
	}
	want := hashToFilename(prefix)
	var match string
	for hash := range index.Scans {
		if strings.HasPrefix(hashToFilename(hash), want) {
			if match != "" {
				return "", fmt.Errorf("hash prefix %q is ambiguous", prefix)
			}
			match = hash
		}
	}
	if match == "" {
		return "", fmt.Errorf("%s: %w", prefix, ErrNotFound)
	}
	return match, nil
}

func (s *Store) readScan(path string) (*Scan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scan: %w", err)
	}
	var rec Scan
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse scan: %w", err)
	}
	return &rec, nil
}

// List returns all saved scans, newest first.
func (s *Store) List() ([]IndexEntry, error) {
	s.mu.Lock()
	index, err := s.loadIndex()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	entries := make([]IndexEntry, 0, len(index.Scans))
	for _, entry := range index.Scans {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// Count returns the number of saved scans.
func (s *Store) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, err := s.loadIndex()
	if err != nil {
		return 0, err
	}
	return len(index.Scans), nil
}

func (s *Store) loadIndex() (*Index, error) {
	data, err := os.ReadFile(s.indexPath)
	if os.IsNotExist(err) {
		return &Index{Scans: make(map[string]IndexEntry)}, nil
	}
	if err != nil {
		return nil, err
	}

	var index Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, err
	}
	if index.Scans == nil {
		index.Scans = make(map[string]IndexEntry)
	}
	return &index, nil
}

func (s *Store) updateIndex(hash string, rec *Scan) error {
	index, err := s.loadIndex()
	if err != nil {
		return err
	}

	entry := rec.Summary()
	entry.Hash = hash
	index.Scans[hash] = entry
	index.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.indexPath, data, 0644)
}

// hashToFilename converts a full hash to a safe filename.
func hashToFilename(hash string) string {
	return strings.TrimPrefix(hash, "sha256:")
}
