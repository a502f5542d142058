package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/klabast/wb-services/residency-counter/internal/log"
	"github.com/klabast/wb-services/residency-counter/internal/residency"
)

// ErrInvalidTrip is returned by Add for trips failing validation
var ErrInvalidTrip = residency.ErrInvalidTrip

// TripStore owns the trip collection, sorted by start date after every change.
// Persistence is best effort: a failed write is logged and the in-memory
// collection stays authoritative.
type TripStore struct {
	mu        sync.RWMutex
	backend   Backend
	trips     []residency.Trip
	lastID    int64
	persisted []byte
	now       func() time.Time
	listeners listeners
}

// Option configures a TripStore
type Option func(*TripStore)

// WithClock overrides time.Now for id assignment and export dates
func WithClock(now func() time.Time) Option {
	return func(s *TripStore) { s.now = now }
}

// New returns an empty store on top of backend. Call Load to read persisted trips.
func New(backend Backend, opts ...Option) *TripStore {
	s := &TripStore{
		backend: backend,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn for change events and returns a func removing it
func (s *TripStore) Subscribe(fn Listener) func() {
	return s.listeners.subscribe(fn)
}

// Load reads the persisted collection. A missing, unreadable or unparsable value yields an empty collection.
func (s *TripStore) Load() {
	s.load(ChangeLoaded, false)
}

// Reload re-reads the backend after an external change. Nothing is published
// when the persisted value is what this store last wrote or read. A value that
// cannot be read or parsed leaves the current trips in place.
func (s *TripStore) Reload() {
	s.load(ChangeReloaded, true)
}

func (s *TripStore) load(kind ChangeKind, reload bool) {
	data, err := s.backend.Read()
	if err != nil && !errors.Is(err, ErrNotExist) {
		if reload {
			log.Warnw("failed to re-read trips, keeping current ones", "backend", s.backend.Describe(), "error", err)
			return
		}
		log.Warnw("failed to read trips, starting empty", "backend", s.backend.Describe(), "error", err)
	}
	if reload && err != nil {
		log.Warnw("trip data disappeared, keeping current ones", "backend", s.backend.Describe())
		return
	}

	var trips []residency.Trip
	if err == nil {
		var ok bool
		trips, ok = decodeTrips(data, s.backend.Describe())
		if !ok && reload {
			log.Warnw("ignoring unparsable trip data, keeping current ones", "backend", s.backend.Describe())
			return
		}
	}

	s.mu.Lock()
	if reload && bytes.Equal(data, s.persisted) {
		s.mu.Unlock()
		return
	}
	if err == nil {
		s.persisted = data
	}
	s.trips = trips
	// ids handed out before a reload stay reserved
	if id := maxID(trips); !reload || id > s.lastID {
		s.lastID = id
	}
	snapshot := s.copyLocked()
	s.mu.Unlock()

	log.Infow("trips loaded", "backend", s.backend.Describe(), "count", len(snapshot))
	s.listeners.publish(ChangeEvent{Kind: kind, Trips: snapshot})
}

// decodeTrips parses a stored array, dropping entries that fail validation.
// ok is false when data is not a trip array at all.
func decodeTrips(data []byte, source string) (trips []residency.Trip, ok bool) {
	var raw []residency.Trip
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Warnw("failed to parse stored trips", "backend", source, "error", err)
		return nil, false
	}

	trips = make([]residency.Trip, 0, len(raw))
	for _, t := range raw {
		if err := t.Validate(); err != nil {
			log.Warnw("dropping invalid stored trip", "id", t.ID, "error", err)
			continue
		}
		trips = append(trips, t)
	}
	residency.SortTrips(trips)
	return trips, true
}

// Trips returns a copy of the sorted collection
func (s *TripStore) Trips() []residency.Trip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// Len returns the number of trips
func (s *TripStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trips)
}

// Get returns the trip with the given id
func (s *TripStore) Get(id int64) (residency.Trip, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.trips {
		if t.ID == id {
			return t, true
		}
	}
	return residency.Trip{}, false
}

// Add validates t, assigns it a fresh id and inserts it.
// On validation failure the store is left unchanged and the error wraps ErrInvalidTrip.
func (s *TripStore) Add(t residency.Trip) (residency.Trip, error) {
	if err := t.Validate(); err != nil {
		return residency.Trip{}, err
	}

	s.mu.Lock()
	t.ID = s.nextIDLocked()
	s.trips = append(s.trips, t)
	residency.SortTrips(s.trips)
	s.saveLocked()
	snapshot := s.copyLocked()
	s.mu.Unlock()

	s.listeners.publish(ChangeEvent{Kind: ChangeAdded, TripID: t.ID, Trips: snapshot})
	return t, nil
}

// Remove deletes the trip with the given id. It reports false when no such trip exists.
func (s *TripStore) Remove(id int64) bool {
	s.mu.Lock()
	idx := -1
	for i, t := range s.trips {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}

	s.trips = append(s.trips[:idx], s.trips[idx+1:]...)
	s.saveLocked()
	snapshot := s.copyLocked()
	s.mu.Unlock()

	s.listeners.publish(ChangeEvent{Kind: ChangeRemoved, TripID: id, Trips: snapshot})
	return true
}

// Clear removes every trip
func (s *TripStore) Clear() {
	s.mu.Lock()
	s.trips = nil
	s.saveLocked()
	s.mu.Unlock()

	s.listeners.publish(ChangeEvent{Kind: ChangeCleared, Trips: []residency.Trip{}})
}

// nextIDLocked derives an id from the clock, bumped to stay unique (caller must hold lock)
func (s *TripStore) nextIDLocked() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// saveLocked writes the full collection (caller must hold lock)
func (s *TripStore) saveLocked() {
	trips := s.trips
	if trips == nil {
		trips = []residency.Trip{}
	}
	data, err := json.Marshal(trips)
	if err != nil {
		log.Warnw("failed to encode trips", "error", err)
		return
	}
	if err := s.backend.Write(data); err != nil {
		log.Warnw("failed to persist trips, keeping them in memory", "backend", s.backend.Describe(), "error", err)
		return
	}
	s.persisted = data
}

// copyLocked returns a copy of the collection (caller must hold lock)
func (s *TripStore) copyLocked() []residency.Trip {
	out := make([]residency.Trip, len(s.trips))
	copy(out, s.trips)
	return out
}

func maxID(trips []residency.Trip) int64 {
	var max int64
	for _, t := range trips {
		if t.ID > max {
			max = t.ID
		}
	}
	return max
}
