package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/klabast/wb-services/residency-counter/internal/log"
	"github.com/klabast/wb-services/residency-counter/internal/residency"
)

// fixedClock returns the same instant on every call
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var clockTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTrip(start, end string, loc residency.Location) residency.Trip {
	return residency.Trip{
		StartDate: residency.MustParseDate(start),
		EndDate:   residency.MustParseDate(end),
		Location:  loc,
	}
}

func TestAdd_SortsAndAssignsUniqueIDs(t *testing.T) {
	s := New(NewMemoryBackend(), WithClock(fixedClock(clockTime)))
	s.Load()

	second, err := s.Add(newTrip("2025-03-01", "2025-03-10", residency.US))
	require.NoError(t, err)
	first, err := s.Add(newTrip("2025-01-01", "2025-01-10", residency.France))
	require.NoError(t, err)

	assert.Equal(t, clockTime.UnixMilli(), second.ID)
	assert.Equal(t, clockTime.UnixMilli()+1, first.ID)

	trips := s.Trips()
	require.Len(t, trips, 2)
	assert.Equal(t, first.ID, trips[0].ID)
	assert.Equal(t, second.ID, trips[1].ID)
}

func TestAdd_RejectsInvalidTrip(t *testing.T) {
	backend := NewMemoryBackend()
	s := New(backend)
	s.Load()

	tests := []struct {
		name string
		trip residency.Trip
	}{
		{"inverted", newTrip("2025-02-01", "2025-01-01", residency.France)},
		{"missing end", residency.Trip{StartDate: residency.MustParseDate("2025-01-01"), Location: residency.France}},
		{"unknown location", newTrip("2025-01-01", "2025-01-02", residency.Location("mars"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Add(tt.trip)
			assert.ErrorIs(t, err, ErrInvalidTrip)
			assert.Equal(t, 0, s.Len())
		})
	}

	_, err := backend.Read()
	assert.ErrorIs(t, err, ErrNotExist, "nothing should have been persisted")
}

func TestRemoveAndClear(t *testing.T) {
	s := New(NewMemoryBackend(), WithClock(fixedClock(clockTime)))
	s.Load()

	a, err := s.Add(newTrip("2025-01-01", "2025-01-10", residency.France))
	require.NoError(t, err)
	_, err = s.Add(newTrip("2025-02-01", "2025-02-10", residency.Other))
	require.NoError(t, err)

	assert.False(t, s.Remove(12345), "unknown id is a no-op")
	assert.Equal(t, 2, s.Len())

	assert.True(t, s.Remove(a.ID))
	_, ok := s.Get(a.ID)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.NotNil(t, s.Trips())
}

func TestTripsReturnsCopy(t *testing.T) {
	s := New(NewMemoryBackend())
	s.Load()
	_, err := s.Add(newTrip("2025-01-01", "2025-01-10", residency.France))
	require.NoError(t, err)

	trips := s.Trips()
	trips[0].Location = residency.US

	assert.Equal(t, residency.France, s.Trips()[0].Location)
}

func TestLoad_PersistedAcrossStores(t *testing.T) {
	backend := NewMemoryBackend()
	s := New(backend, WithClock(fixedClock(clockTime)))
	s.Load()
	added, err := s.Add(newTrip("2025-01-01", "2025-01-10", residency.France))
	require.NoError(t, err)

	raw, err := backend.Read()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":`+jsonInt(added.ID)+`,"startDate":"2025-01-01","endDate":"2025-01-10","location":"france","notes":""}]`, string(raw))

	reopened := New(backend, WithClock(fixedClock(clockTime)))
	reopened.Load()
	assert.Equal(t, s.Trips(), reopened.Trips())

	// ids keep increasing past loaded ones even with a clock behind them
	next, err := reopened.Add(newTrip("2025-02-01", "2025-02-02", residency.US))
	require.NoError(t, err)
	assert.Greater(t, next.ID, added.ID)
}

func TestLoad_CorruptOrMissingYieldsEmpty(t *testing.T) {
	s := New(NewMemoryBackend())
	s.Load()
	assert.Equal(t, 0, s.Len())

	corrupt := NewMemoryBackend()
	require.NoError(t, corrupt.Write([]byte("{not json")))
	s = New(corrupt)
	s.Load()
	assert.Equal(t, 0, s.Len())
}

func TestLoad_DropsInvalidAndSorts(t *testing.T) {
	backend := NewMemoryBackend()
	require.NoError(t, backend.Write([]byte(`[
		{"id":2,"startDate":"2025-03-01","endDate":"2025-03-02","location":"us"},
		{"id":3,"startDate":"2025-04-02","endDate":"2025-04-01","location":"us"},
		{"id":1,"startDate":"2025-01-01","endDate":"2025-01-02","location":"france"}
	]`)))

	s := New(backend)
	s.Load()

	trips := s.Trips()
	require.Len(t, trips, 2)
	assert.Equal(t, int64(1), trips[0].ID)
	assert.Equal(t, int64(2), trips[1].ID)
}

func TestSave_FailureKeepsMemoryState(t *testing.T) {
	backend := NewMemoryBackend()
	backend.Fail = true
	s := New(backend)
	s.Load()

	_, err := s.Add(newTrip("2025-01-01", "2025-01-10", residency.France))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestSubscribe(t *testing.T) {
	s := New(NewMemoryBackend(), WithClock(fixedClock(clockTime)))

	var events []ChangeEvent
	unsubscribe := s.Subscribe(func(ev ChangeEvent) { events = append(events, ev) })

	s.Load()
	added, err := s.Add(newTrip("2025-01-01", "2025-01-10", residency.France))
	require.NoError(t, err)
	s.Remove(added.ID)
	s.Clear()

	require.Len(t, events, 4)
	assert.Equal(t, ChangeLoaded, events[0].Kind)
	assert.Equal(t, ChangeAdded, events[1].Kind)
	assert.Equal(t, added.ID, events[1].TripID)
	assert.Len(t, events[1].Trips, 1)
	assert.Equal(t, ChangeRemoved, events[2].Kind)
	assert.Empty(t, events[2].Trips)
	assert.Equal(t, ChangeCleared, events[3].Kind)

	unsubscribe()
	_, err = s.Add(newTrip("2025-01-01", "2025-01-10", residency.France))
	require.NoError(t, err)
	assert.Len(t, events, 4)
}

func TestReload_SkipsOwnWrites(t *testing.T) {
	backend := NewMemoryBackend()
	s := New(backend, WithClock(fixedClock(clockTime)))
	s.Load()
	_, err := s.Add(newTrip("2025-01-01", "2025-01-10", residency.France))
	require.NoError(t, err)

	var kinds []ChangeKind
	s.Subscribe(func(ev ChangeEvent) { kinds = append(kinds, ev.Kind) })

	s.Reload()
	assert.Empty(t, kinds)

	require.NoError(t, backend.Write([]byte(`[]`)))
	s.Reload()
	assert.Equal(t, []ChangeKind{ChangeReloaded}, kinds)
	assert.Equal(t, 0, s.Len())
}

// observeWarnings routes the package logger into an in-memory observer
func observeWarnings(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.WarnLevel)
	prev := log.GetZapLogger()
	log.SetLogger(zap.New(core))
	t.Cleanup(func() { log.SetLogger(prev) })
	return logs
}

func TestReload_KeepsTripsOnUnparsableData(t *testing.T) {
	logs := observeWarnings(t)

	backend := NewMemoryBackend()
	s := New(backend, WithClock(fixedClock(clockTime)))
	s.Load()
	first, err := s.Add(newTrip("2025-01-01", "2025-01-10", residency.France))
	require.NoError(t, err)

	var kinds []ChangeKind
	s.Subscribe(func(ev ChangeEvent) { kinds = append(kinds, ev.Kind) })

	// A half-written hand edit
	require.NoError(t, backend.Write([]byte(`[{"id":1,"startDate":"2025-`)))
	s.Reload()

	assert.Empty(t, kinds)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, logs.FilterMessage("ignoring unparsable trip data, keeping current ones").Len())

	second, err := s.Add(newTrip("2025-03-01", "2025-03-10", residency.US))
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	raw, err := backend.Read()
	require.NoError(t, err)
	var persisted []residency.Trip
	require.NoError(t, json.Unmarshal(raw, &persisted))
	require.Len(t, persisted, 2)
	assert.Equal(t, first.ID, persisted[0].ID)
	assert.Equal(t, second.ID, persisted[1].ID)
}

func TestReload_KeepsTripsWhenFileRemoved(t *testing.T) {
	observeWarnings(t)

	backend, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)
	s := New(backend, WithClock(fixedClock(clockTime)))
	s.Load()
	_, err = s.Add(newTrip("2025-01-01", "2025-01-10", residency.France))
	require.NoError(t, err)

	require.NoError(t, os.Remove(backend.Path()))
	s.Reload()
	assert.Equal(t, 1, s.Len())

	// the next save puts the file back
	_, err = s.Add(newTrip("2025-02-01", "2025-02-02", residency.US))
	require.NoError(t, err)
	_, err = os.Stat(backend.Path())
	assert.NoError(t, err)
}

func TestFileBackend(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	backend, err := NewFileBackend(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "fra_trips.json"), backend.Path())

	_, err = backend.Read()
	assert.ErrorIs(t, err, ErrNotExist)

	require.NoError(t, backend.Write([]byte(`[1]`)))
	require.NoError(t, backend.Write([]byte(`[2]`)))

	data, err := backend.Read()
	require.NoError(t, err)
	assert.Equal(t, `[2]`, string(data))

	backup, err := os.ReadFile(backend.Path() + BackupSuffix)
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(backup))

	_, err = os.Stat(backend.Path() + TmpSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.db")
	backend, err := OpenSQLite(path)
	require.NoError(t, err)

	_, err = backend.Read()
	assert.ErrorIs(t, err, ErrNotExist)

	s := New(backend, WithClock(fixedClock(clockTime)))
	s.Load()
	_, err = s.Add(newTrip("2025-01-01", "2025-01-10", residency.France))
	require.NoError(t, err)
	_, err = s.Add(newTrip("2025-02-01", "2025-02-10", residency.US))
	require.NoError(t, err)
	want := s.Trips()
	require.NoError(t, backend.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	s2 := New(reopened)
	s2.Load()
	assert.Equal(t, want, s2.Trips())
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
