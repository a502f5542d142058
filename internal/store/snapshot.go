package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/klabast/wb-services/residency-counter/internal/log"
	"github.com/klabast/wb-services/residency-counter/internal/residency"
)

// SnapshotVersion is written into every export document
const SnapshotVersion = "1.0"

// ErrInvalidSnapshot is returned for documents that are not JSON or lack a trips array
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// ErrInvalidImportMode is returned for import modes other than replace and merge
var ErrInvalidImportMode = errors.New("invalid import mode")

// Snapshot is the export document
type Snapshot struct {
	Version    string           `json:"version"`
	ExportDate time.Time        `json:"exportDate"`
	Trips      []residency.Trip `json:"trips"`
}

// ImportMode selects what happens to the existing collection on import
type ImportMode string

const (
	// ImportReplace discards the existing collection (default)
	ImportReplace ImportMode = "replace"
	// ImportMerge appends the imported trips to the existing ones
	ImportMerge ImportMode = "merge"
)

// ParseImportMode maps "" to ImportReplace
func ParseImportMode(s string) (ImportMode, error) {
	switch ImportMode(s) {
	case "", ImportReplace:
		return ImportReplace, nil
	case ImportMerge:
		return ImportMerge, nil
	default:
		return "", fmt.Errorf("%w: %q (expected replace or merge)", ErrInvalidImportMode, s)
	}
}

// ImportResult reports what an import did
type ImportResult struct {
	Mode     ImportMode `json:"mode"`
	Imported int        `json:"imported"`
	Skipped  int        `json:"skipped"`
	// Reassigned counts imported trips that got a new id (missing or colliding)
	Reassigned int `json:"reassigned"`
}

// Export returns the current collection as a snapshot document
func (s *TripStore) Export() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Version:    SnapshotVersion,
		ExportDate: s.now().UTC().Truncate(time.Second),
		Trips:      s.copyLocked(),
	}
}

// ParseSnapshot decodes a snapshot document. Unknown fields are ignored and
// individual trips that are malformed or fail validation are skipped and counted.
func ParseSnapshot(data []byte) (trips []residency.Trip, skipped int, err error) {
	var doc struct {
		Trips json.RawMessage `json:"trips"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	raw := bytes.TrimSpace(doc.Trips)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, 0, fmt.Errorf("%w: missing trips array", ErrInvalidSnapshot)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	trips = make([]residency.Trip, 0, len(items))
	for i, item := range items {
		var t residency.Trip
		if err := json.Unmarshal(item, &t); err != nil {
			log.Debugw("skipping undecodable trip", "index", i, "error", err)
			skipped++
			continue
		}
		if loc, err := residency.ParseLocation(string(t.Location)); err == nil {
			t.Location = loc
		}
		if err := t.Validate(); err != nil {
			log.Debugw("skipping invalid trip", "index", i, "error", err)
			skipped++
			continue
		}
		trips = append(trips, t)
	}
	return trips, skipped, nil
}

// Import applies a snapshot document. An empty mode means ImportReplace.
// On ErrInvalidImportMode or ErrInvalidSnapshot the store is left unchanged.
func (s *TripStore) Import(data []byte, mode ImportMode) (ImportResult, error) {
	mode, err := ParseImportMode(string(mode))
	if err != nil {
		return ImportResult{}, err
	}
	incoming, skipped, err := ParseSnapshot(data)
	if err != nil {
		return ImportResult{}, err
	}

	result := ImportResult{Mode: mode, Imported: len(incoming), Skipped: skipped}

	s.mu.Lock()
	var base []residency.Trip
	if mode == ImportMerge {
		base = s.trips
	}

	seen := make(map[int64]bool, len(base)+len(incoming))
	for _, t := range base {
		seen[t.ID] = true
	}
	if id := maxID(incoming); id > s.lastID {
		s.lastID = id
	}

	merged := make([]residency.Trip, 0, len(base)+len(incoming))
	merged = append(merged, base...)
	for _, t := range incoming {
		if t.ID <= 0 || seen[t.ID] {
			t.ID = s.nextIDLocked()
			result.Reassigned++
		}
		seen[t.ID] = true
		merged = append(merged, t)
	}
	residency.SortTrips(merged)

	s.trips = merged
	s.saveLocked()
	snapshot := s.copyLocked()
	s.mu.Unlock()

	log.Infow("trips imported", "mode", mode, "imported", result.Imported, "skipped", result.Skipped, "reassigned", result.Reassigned)
	s.listeners.publish(ChangeEvent{Kind: ChangeImported, Trips: snapshot})
	return result, nil
}
