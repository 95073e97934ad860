package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Record is the persisted last-known signal for one symbol
type Record struct {
	Signal     string                 `json:"signal_type"`
	Confidence float64                `json:"confidence"`
	Timestamp  time.Time              `json:"timestamp"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// Store keeps per-symbol signal records in memory and mirrors them to a
// JSON file. The file is read once at construction and rewritten whole on
// every change; a missing or corrupt file starts the store empty. The
// store serializes all access, so it is safe for a single writer plus
// concurrent readers such as the status API.
type Store struct {
	path   string
	logger zerolog.Logger

	mu      sync.RWMutex
	records map[string]Record
}

// NewStore loads the state file at path, tolerating its absence
func NewStore(path string, logger zerolog.Logger) *Store {
	s := &Store{
		path:    path,
		logger:  logger.With().Str("component", "StateStore").Logger(),
		records: make(map[string]Record),
	}
	s.load()
	return s
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info().Str("path", s.path).Msg("No existing state file, starting fresh")
		} else {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("Could not read state file, starting fresh")
		}
		return
	}

	var records map[string]Record
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("State file is corrupt, starting fresh")
		return
	}

	s.records = records
	s.logger.Info().Int("symbols", len(records)).Msg("Loaded signal states")
}

// Get returns the record for a symbol, if one exists
func (s *Store) Get(symbol string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[symbol]
	return rec, ok
}

// All returns a copy of every record keyed by symbol
func (s *Store) All() map[string]Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Record, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}
	return out
}

// Put stores a record and synchronously rewrites the state file. The
// in-memory record is kept even when the write fails, so a transient disk
// error does not lose the transition for the running process.
func (s *Store) Put(symbol string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[symbol] = rec
	return s.save()
}

// Delete removes a symbol's record and rewrites the state file
func (s *Store) Delete(symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[symbol]; !ok {
		return nil
	}
	delete(s.records, symbol)
	return s.save()
}

// save writes the whole record map atomically: temp file, then rename.
// Caller must hold the lock.
func (s *Store) save() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating state directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}
