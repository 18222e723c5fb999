// Package kernel implements the Storage Kernel: atomic JSON file
// persistence with fsync-before-rename durability. It is the one place in
// this module that writes application state to disk; every other
// component (Pipeline Store, Learned-answer DB, rejection memory) is
// built on top of it rather than touching os.WriteFile directly.
package kernel

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
)

// Kernel is the concrete StorageKernel implementation. Keys are relative
// paths under root ("pipeline/jobs.json", "learned/answers.json"); the
// directory for a key is created on first write.
type Kernel struct {
	root   string
	logger arbor.ILogger
}

// New returns a Kernel rooted at dataDir, creating it if necessary.
func New(logger arbor.ILogger, dataDir string) (*Kernel, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}
	return &Kernel{root: dataDir, logger: logger}, nil
}

func (k *Kernel) path(key string) string {
	return filepath.Join(k.root, filepath.FromSlash(key))
}

// Load reads the JSON file at key into target. A missing file is not an
// error: target is left at its zero value and Load returns nil, so the
// caller can treat "never written" the same as a freshly initialized
// value. A malformed file is logged and also returns nil with target
// unchanged, per the never-panic-on-corrupt-state design.
func (k *Kernel) Load(key string, target interface{}) error {
	path := k.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		if k.logger != nil {
			k.logger.Warn().Err(err).Str("path", path).Msg("storage kernel: ignoring malformed JSON file")
		}
		return nil
	}
	return nil
}

// Save atomically writes data as indented JSON to key: a temp file is
// created in the same directory as the target, written, fsync'd, closed,
// then renamed over the target; the directory is then fsync'd so the
// rename itself is durable across a crash.
func (k *Kernel) Save(key string, data interface{}) error {
	path := k.path(key)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	jsonData = append(jsonData, '\n')

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(jsonData); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file onto %s: %w", path, err)
	}

	if dirHandle, err := os.Open(dir); err == nil {
		dirHandle.Sync()
		dirHandle.Close()
	}

	return nil
}

// Exists reports whether key has ever been written.
func (k *Kernel) Exists(key string) bool {
	_, err := os.Stat(k.path(key))
	return err == nil
}

// Delete removes the file at key. Deleting a missing key is not an error.
func (k *Kernel) Delete(key string) error {
	if err := os.Remove(k.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
