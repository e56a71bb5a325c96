package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

var unsafeKeyChars = regexp.MustCompile(`[^\w.-]+`)

// FSStore keeps datasets as NDJSON files and blobs as plain files under one
// output directory. It is the default sink when no database is configured.
type FSStore struct {
	dir string

	mu       sync.Mutex
	datasets map[string]*fsDataset
}

func NewFSStore(dir string) (*FSStore, error) {
	for _, sub := range []string{"datasets", "kv"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	return &FSStore{dir: dir, datasets: make(map[string]*fsDataset)}, nil
}

// Dataset opens (or reuses) the named NDJSON dataset.
func (s *FSStore) Dataset(name string) Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ds, ok := s.datasets[name]; ok {
		return ds
	}
	ds := &fsDataset{
		name: name,
		path: filepath.Join(s.dir, "datasets", sanitizeKey(name)+".ndjson"),
	}
	s.datasets[name] = ds
	return ds
}

// Set writes one blob under a sanitized key file name.
func (s *FSStore) Set(_ context.Context, key string, value []byte, _ string) error {
	path := filepath.Join(s.dir, "kv", sanitizeKey(key))
	if err := os.WriteFile(path, value, 0644); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", key, err)
	}
	return nil
}

type fsDataset struct {
	name string
	path string
	mu   sync.Mutex
}

func (d *fsDataset) Name() string { return d.name }

// Push appends one row as a JSON line. The file is opened per push so a
// crashed run leaves complete lines behind.
func (d *fsDataset) Push(_ context.Context, item map[string]any) error {
	line, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal dataset row: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	f, err := os.OpenFile(d.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open dataset %s: %w", d.name, err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append to dataset %s: %w", d.name, err)
	}
	return nil
}

func (d *fsDataset) Count(_ context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, err := os.ReadFile(d.path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read dataset %s: %w", d.name, err)
	}
	count := 0
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count, nil
}

func sanitizeKey(key string) string {
	return unsafeKeyChars.ReplaceAllString(key, "_")
}
