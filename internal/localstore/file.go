package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
)

// JSONLFile is the file name used by FileStore inside the data directory.
const JSONLFile = "megakanban.jsonl"

// record is one line of the JSONL file.
type record struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// FileStore keeps every key in memory and rewrites a JSONL file on each
// mutation. Lines that do not parse are skipped on load.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
	closed bool
}

// OpenFile loads megakanban.jsonl from dataDir. A missing file is created
// empty.
func OpenFile(dataDir string) (*FileStore, error) {
	path := filepath.Join(dataDir, JSONLFile)
	s := &FileStore{path: path, values: make(map[string]string)}

	lines, err := readJSONL(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := writeJSONL(path, nil); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		var rec record
		if err := json.Unmarshal(line, &rec); err != nil || rec.Key == "" {
			continue
		}
		s.values[rec.Key] = rec.Value
	}
	return s, nil
}

// Get returns the value stored under key.
func (s *FileStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, ErrClosed
	}
	v, ok := s.values[key]
	return v, ok, nil
}

// Set stores value under key and rewrites the file.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	prev, had := s.values[key]
	s.values[key] = value
	if err := s.persistLocked(); err != nil {
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

// Remove deletes key and rewrites the file. Removing an absent key is
// not an error.
func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	prev, had := s.values[key]
	if !had {
		return nil
	}
	delete(s.values, key)
	if err := s.persistLocked(); err != nil {
		s.values[key] = prev
		return err
	}
	return nil
}

// Close is idempotent. Every mutation is already on disk.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *FileStore) persistLocked() error {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]json.RawMessage, 0, len(keys))
	for _, k := range keys {
		line, err := json.Marshal(record{Key: k, Value: s.values[k]})
		if err != nil {
			return fmt.Errorf("encoding %s: %w", k, err)
		}
		lines = append(lines, line)
	}
	return writeJSONL(s.path, lines)
}
