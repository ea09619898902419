// Package repository provides the JSON-file backed fact and flag stores
// and the PostgreSQL audit trail.
package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrNotLoaded is returned for an animal kind or feature that has no list in memory.
	ErrNotLoaded = errors.New("resource not loaded")
	// ErrNotFound is returned when the requested id is not in the list.
	ErrNotFound = errors.New("id not found")
	// ErrPersist wraps failures to write a list back to disk.
	// The in-memory mutation has already happened when it is returned.
	ErrPersist = errors.New("persist list")
)

// writeJSONFile replaces path with the pretty-printed JSON encoding of v.
// Callers hold the write lock of the list being written.
func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrPersist, path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %w", ErrPersist, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: close %s: %w", ErrPersist, tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: rename to %s: %w", ErrPersist, path, err)
	}
	return nil
}

// readJSONFile decodes the JSON array stored at path into out.
// A missing file is reported with an error satisfying errors.Is(err, fs.ErrNotExist).
func readJSONFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("malformed %s: %w", path, err)
	}
	return nil
}
