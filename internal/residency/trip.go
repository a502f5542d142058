package residency

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Location is the closed set of places a trip can be tagged with
type Location string

const (
	France Location = "france"
	US     Location = "us"
	Other  Location = "other"
)

// Locations lists every valid location in display order
var Locations = []Location{France, US, Other}

// locationLabels maps location keys to their display names
var locationLabels = map[Location]string{
	France: "France",
	US:     "United States",
	Other:  "Other",
}

// ErrInvalidTrip is returned for trips with missing or inverted dates or an unknown location
var ErrInvalidTrip = errors.New("invalid trip")

// ParseLocation accepts a location key in any case
func ParseLocation(s string) (Location, error) {
	l := Location(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("%w: unknown location %q (expected france, us or other)", ErrInvalidTrip, s)
	}
	return l, nil
}

// Valid reports whether l is one of the known locations
func (l Location) Valid() bool {
	_, ok := locationLabels[l]
	return ok
}

// Label returns the display name
func (l Location) Label() string {
	if label, ok := locationLabels[l]; ok {
		return label
	}
	return string(l)
}

// Trip is a user-declared stay in one location over an inclusive date interval
type Trip struct {
	ID        int64    `json:"id"`
	StartDate Date     `json:"startDate"`
	EndDate   Date     `json:"endDate"`
	Location  Location `json:"location"`
	Notes     string   `json:"notes"`
}

// Validate checks both dates are present, ordered, and the location is known
func (t Trip) Validate() error {
	if t.StartDate.IsZero() || t.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidTrip)
	}
	if t.EndDate.Before(t.StartDate) {
		return fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidTrip, t.EndDate, t.StartDate)
	}
	if !t.Location.Valid() {
		return fmt.Errorf("%w: unknown location %q", ErrInvalidTrip, t.Location)
	}
	return nil
}

// Contains reports whether d falls inside [StartDate, EndDate]
func (t Trip) Contains(d Date) bool {
	return !d.Before(t.StartDate) && !d.After(t.EndDate)
}

// Days returns the length of the trip in calendar dates
func (t Trip) Days() int {
	return DaysInclusive(t.StartDate, t.EndDate)
}

// SortTrips sorts trips by start date in ascending order.
// The sort is stable so trips with the same start keep their relative order.
func SortTrips(trips []Trip) {
	sort.SliceStable(trips, func(i, j int) bool {
		return trips[i].StartDate.Before(trips[j].StartDate)
	})
}
