// Package residency computes France presence metrics over a list of trips.
//
// Every function here is pure: it reads the trips it is given and never keeps
// them. Trips are expected in stored order (ascending start date), which is
// what decides overlaps: the first trip covering a date wins.
package residency

// Business rules
const (
	// WindowDays is the length of the trailing window, reference date included
	WindowDays = 183
	// ResidencyThreshold is the in-window France day count that triggers residency
	ResidencyThreshold = 183
	// RemainingThreshold is what remaining days are counted against, one below ResidencyThreshold
	RemainingThreshold = 182
	// WarningMargin is the remaining-days level below which the status turns to warning
	WarningMargin = 30
	// EntryHorizonDays bounds the forward scan for the next eligible entry date
	EntryHorizonDays = 365
)

// YearStats holds per-location day counts for one calendar year, up to today
type YearStats struct {
	Year      int `json:"year"`
	France    int `json:"france"`
	US        int `json:"us"`
	Other     int `json:"other"`
	Untracked int `json:"untracked"`
	// Days is the number of dates iterated (Jan 1 up to min(Dec 31, today))
	Days int `json:"days"`
}

// RollingWindowStats describes the trailing window ending at a reference date
type RollingWindowStats struct {
	WindowStart        Date   `json:"windowStart"`
	WindowEnd          Date   `json:"windowEnd"`
	FranceDaysInWindow int    `json:"franceDaysInWindow"`
	RemainingDays      int    `json:"remainingDays"`
	Status             Status `json:"status"`
}

// LocationForDate returns the location of the first trip containing date.
// ok is false when no trip covers the date.
func LocationForDate(trips []Trip, date Date) (loc Location, ok bool) {
	for _, t := range trips {
		if t.Contains(date) {
			return t.Location, true
		}
	}
	return "", false
}

// YearStatsFor classifies every date from Jan 1 of year through min(Dec 31, today).
// A year that has not started yet yields all zero counts.
func YearStatsFor(trips []Trip, year int, today Date) YearStats {
	stats := YearStats{Year: year}

	start := NewDate(year, 1, 1)
	end := MinDate(NewDate(year, 12, 31), today)

	for d := start; !d.After(end); d = d.AddDays(1) {
		stats.Days++
		loc, ok := LocationForDate(trips, d)
		if !ok {
			stats.Untracked++
			continue
		}
		switch loc {
		case France:
			stats.France++
		case US:
			stats.US++
		default:
			stats.Other++
		}
	}

	return stats
}

// WindowStart returns the first date of the window ending at ref
func WindowStart(ref Date) Date {
	return ref.AddDays(-(WindowDays - 1))
}

// RollingFranceDays counts France dates in [ref-182, ref]
func RollingFranceDays(trips []Trip, ref Date) int {
	count := 0
	for d := WindowStart(ref); !d.After(ref); d = d.AddDays(1) {
		if loc, ok := LocationForDate(trips, d); ok && loc == France {
			count++
		}
	}
	return count
}

// RemainingDays returns how many more France days fit before the threshold
func RemainingDays(trips []Trip, ref Date) int {
	return remainingFrom(RollingFranceDays(trips, ref))
}

func remainingFrom(rolling int) int {
	remaining := RemainingThreshold - rolling
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RollingStats bundles the rolling window metrics for ref
func RollingStats(trips []Trip, ref Date) RollingWindowStats {
	rolling := RollingFranceDays(trips, ref)
	remaining := remainingFrom(rolling)
	return RollingWindowStats{
		WindowStart:        WindowStart(ref),
		WindowEnd:          ref,
		FranceDaysInWindow: rolling,
		RemainingDays:      remaining,
		Status:             StatusFor(rolling, remaining),
	}
}

// NextEligibleEntryDate returns the first date after today whose window holds
// fewer than ResidencyThreshold France days.
// ok is false when the user can already enter (remaining days left) or when no
// such date exists within EntryHorizonDays; callers show the latter as "unknown".
func NextEligibleEntryDate(trips []Trip, today Date) (date Date, ok bool) {
	if RemainingDays(trips, today) > 0 {
		return Date{}, false
	}

	for i := 1; i <= EntryHorizonDays; i++ {
		candidate := today.AddDays(i)
		if RollingFranceDays(trips, candidate) < ResidencyThreshold {
			return candidate, true
		}
	}

	return Date{}, false
}
