package store

import (
	"sync"

	"github.com/klabast/wb-services/residency-counter/internal/residency"
)

// ChangeKind names what happened to the collection
type ChangeKind string

const (
	ChangeLoaded   ChangeKind = "loaded"
	ChangeReloaded ChangeKind = "reloaded"
	ChangeAdded    ChangeKind = "added"
	ChangeRemoved  ChangeKind = "removed"
	ChangeCleared  ChangeKind = "cleared"
	ChangeImported ChangeKind = "imported"
)

// ChangeEvent is delivered to listeners after every change.
// Trips is a private copy of the collection after the change.
type ChangeEvent struct {
	Kind   ChangeKind
	TripID int64
	Trips  []residency.Trip
}

// Listener receives change events
type Listener func(ChangeEvent)

// listeners is an in-process subscriber list
type listeners struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]Listener
	order  []int
}

func (l *listeners) subscribe(fn Listener) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.subs == nil {
		l.subs = make(map[int]Listener)
	}
	id := l.nextID
	l.nextID++
	l.subs[id] = fn
	l.order = append(l.order, id)

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs, id)
		for i, o := range l.order {
			if o == id {
				l.order = append(l.order[:i], l.order[i+1:]...)
				break
			}
		}
	}
}

// publish calls listeners in registration order
func (l *listeners) publish(ev ChangeEvent) {
	l.mu.RLock()
	fns := make([]Listener, 0, len(l.order))
	for _, id := range l.order {
		fns = append(fns, l.subs[id])
	}
	l.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
