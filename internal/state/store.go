package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Store reads and writes the state file. The enforcement engine owns the
// in-memory map and serializes mutations; the store only handles the
// durable copy.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the state file into memory. A missing file yields an empty
// mapping, not an error.
func (s *Store) Load() (*File, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &File{Users: make(map[string]*UserState), Version: 1}, nil
		}
		return nil, err
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if f.Users == nil {
		f.Users = make(map[string]*UserState)
	}
	for _, u := range f.Users {
		if u.WarningsSent == nil {
			u.WarningsSent = NewIntSet()
		}
	}
	return &f, nil
}

// Save atomically rewrites the state file. The file stays world-readable
// so the login gate and tray tools can read it without privileges.
func (s *Store) Save(f *File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
