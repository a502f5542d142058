// Package store keeps the trip collection and persists it through a Backend.
package store

import (
	"errors"
)

// StorageKey is the fixed key the trip collection is persisted under
const StorageKey = "fra_trips"

// ErrNotExist is returned by a Backend that has nothing persisted yet
var ErrNotExist = errors.New("no persisted trips")

// Backend stores the serialized trip collection as a single value.
// Read returns ErrNotExist when nothing was written yet.
type Backend interface {
	Read() ([]byte, error)
	Write(data []byte) error
	Close() error
	// Describe names the backend for log lines
	Describe() string
}

// MemoryBackend keeps the value in memory
type MemoryBackend struct {
	data []byte
	// Fail makes Write return an error, used to exercise best-effort saves
	Fail bool
}

// NewMemoryBackend returns an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (m *MemoryBackend) Read() ([]byte, error) {
	if m.data == nil {
		return nil, ErrNotExist
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryBackend) Write(data []byte) error {
	if m.Fail {
		return errors.New("memory backend: write refused")
	}
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *MemoryBackend) Close() error     { return nil }
func (m *MemoryBackend) Describe() string { return "memory" }
