package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/klabast/wb-services/residency-counter/internal/log"
)

// File layout constants
const (
	BackupSuffix    = ".backup"
	TmpSuffix       = ".tmp"
	FilePermissions = 0644
)

// FileBackend stores the trips as a JSON file named after StorageKey
type FileBackend struct {
	path string
}

// NewFileBackend returns a backend writing <dir>/fra_trips.json
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileBackend{path: filepath.Join(dir, StorageKey+".json")}, nil
}

// Path returns the data file path
func (b *FileBackend) Path() string { return b.path }

// Read loads the data file
func (b *FileBackend) Read() ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotExist
		}
		return nil, err
	}
	return data, nil
}

// Write saves the data file with backup
func (b *FileBackend) Write(data []byte) error {
	// Write to temp file first
	tmpFile := b.path + TmpSuffix
	if err := os.WriteFile(tmpFile, data, FilePermissions); err != nil {
		return err
	}

	// Create backup
	if _, err := os.Stat(b.path); err == nil {
		backupFile := b.path + BackupSuffix
		if err := copyFile(b.path, backupFile); err != nil {
			log.Warnw("failed to create backup", "file", backupFile, "error", err)
		}
	}

	// Rename temp file to actual file
	return os.Rename(tmpFile, b.path)
}

func (b *FileBackend) Close() error     { return nil }
func (b *FileBackend) Describe() string { return "file:" + b.path }

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, FilePermissions)
}
