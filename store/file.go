package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

const credentialFileMode = 0o600

// FileBackend persists entries as a single JSON object on disk, for CLI and
// daemon consumers. Writes go through a temp file and rename so a crash never
// leaves a half-written credential file.
type FileBackend struct {
	path string
	mu   sync.Mutex
}

// NewFileBackend creates a file backend at path. The file is created lazily
// on first write.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Get returns the stored value or [ErrKeyNotFound]. A missing or unparseable
// file reads as empty; corruption is healed by the next write.
func (f *FileBackend) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries := f.load()
	value, ok := entries[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

// Set persists the value, rewriting the whole file atomically.
func (f *FileBackend) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries := f.load()
	entries[key] = value
	return f.save(entries)
}

// Delete removes the entry if present.
func (f *FileBackend) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries := f.load()
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)
	return f.save(entries)
}

func (f *FileBackend) load() map[string]string {
	entries := make(map[string]string)

	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Print("mcsession: credential file unreadable, treating as empty")
		}
		return entries
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Print("mcsession: credential file corrupt, treating as empty")
		return make(map[string]string)
	}
	return entries
}

func (f *FileBackend) save(entries map[string]string) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".mcsession-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if err := tmp.Chmod(credentialFileMode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}
