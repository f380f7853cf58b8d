package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// MapStore persists saved maps.
type MapStore interface {
	Load() (map[int]OptionMap, error)
	Put(m OptionMap) error
	Remove(uid int) error
}

// FileStore keeps all maps in a single JSON file.
type FileStore struct {
	dataDir string
	mu      sync.Mutex
}

// NewFileStore creates a store writing maps.json under dataDir.
func NewFileStore(dataDir string) *FileStore {
	return &FileStore{dataDir: dataDir}
}

// configFile returns the path to the maps file.
func (s *FileStore) configFile() string {
	return filepath.Join(s.dataDir, "maps.json")
}

// Load reads all maps. A missing file is an empty store.
func (s *FileStore) Load() (map[int]OptionMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStore) read() (map[int]OptionMap, error) {
	data, err := os.ReadFile(s.configFile())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[int]OptionMap{}, nil
		}
		return nil, err
	}

	// JSON object keys are strings
	var raw map[string]OptionMap
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.configFile(), err)
	}
	maps := make(map[int]OptionMap, len(raw))
	for k, m := range raw {
		uid, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: bad uid %q", s.configFile(), k)
		}
		m.UID = uid
		maps[uid] = m
	}
	return maps, nil
}

func (s *FileStore) write(maps map[int]OptionMap) error {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(maps, "", "  ")
	if err != nil {
		return err
	}
	// write then rename so a crash never leaves half a file
	tmp := s.configFile() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.configFile())
}

// Put inserts or replaces a map.
func (s *FileStore) Put(m OptionMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	maps, err := s.read()
	if err != nil {
		return err
	}
	maps[m.UID] = m
	return s.write(maps)
}

// Remove deletes a map. Removing a missing map is not an error.
func (s *FileStore) Remove(uid int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	maps, err := s.read()
	if err != nil {
		return err
	}
	delete(maps, uid)
	return s.write(maps)
}
