// Package statefile persists JSON-serializable state with an atomic
// write-replace discipline: every save writes to a temporary file in
// the same directory and renames it over the canonical path, so a
// reader never observes a partially written file and a crash mid-write
// leaves the previous valid state intact.
package statefile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Load reads the JSON state at path into a fresh value of T. A missing
// file is not an error: the zero value is returned. A corrupt file is
// recovered locally by logging and returning the zero value, so a
// damaged state file never prevents startup.
func Load[T any](path string, log *slog.Logger) T {
	var zero T

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn("Failed to read state file, starting empty", "path", path, "error", err)
		}
		return zero
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		log.Warn("State file is corrupt, starting empty", "path", path, "error", err)
		return zero
	}
	return v
}

// Save writes v as indented JSON to path via a temporary file and an
// atomic rename.
func Save(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state for %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp state file %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync temp state file %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp state file %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace state file %s: %w", path, err)
	}
	return nil
}
