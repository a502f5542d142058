package residency

import (
	"fmt"
	"time"
)

// CalendarCell is one square of a month grid
type CalendarCell struct {
	// Blank marks padding before the first day of the month
	Blank    bool     `json:"blank,omitempty"`
	Date     Date     `json:"date,omitzero"`
	Day      int      `json:"day,omitempty"`
	Location Location `json:"location,omitempty"`
	Holiday  string   `json:"holiday,omitempty"`
	Today    bool     `json:"today,omitempty"`
	Future   bool     `json:"future,omitempty"`
}

// CalendarMonth is a month grid with weeks starting on Monday
type CalendarMonth struct {
	Year  int            `json:"year"`
	Month time.Month     `json:"month"`
	Name  string         `json:"name"`
	Cells []CalendarCell `json:"cells"`
}

// StatusBanner is the display state of the rolling window
type StatusBanner struct {
	Date            Date   `json:"date"`
	Status          Status `json:"status"`
	RollingDays     int    `json:"rollingDays"`
	RemainingDays   int    `json:"remainingDays"`
	ProgressPercent int    `json:"progressPercent"`
	// NextEligibleDate is only set when remaining days are exhausted and a date was found
	NextEligibleDate *Date `json:"nextEligibleDate"`
	// NextEligibleUnknown is set when remaining days are exhausted but the scan found nothing
	NextEligibleUnknown bool   `json:"nextEligibleUnknown,omitempty"`
	Message             string `json:"message"`
}

// BuildCalendarMonth classifies every day of a month for display
func BuildCalendarMonth(trips []Trip, year int, month time.Month, today Date) CalendarMonth {
	first := NewDate(year, month, 1)
	cal := CalendarMonth{
		Year:  first.Year(),
		Month: first.Month(),
		Name:  first.Time().Format("January 2006"),
	}

	holidays := FrenchHolidays(cal.Year)

	// Monday-first offset: Sunday (0) becomes 6
	offset := (int(first.Weekday()) + 6) % 7
	for i := 0; i < offset; i++ {
		cal.Cells = append(cal.Cells, CalendarCell{Blank: true})
	}

	for d := first; d.Month() == cal.Month; d = d.AddDays(1) {
		cell := CalendarCell{
			Date:    d,
			Day:     d.Day(),
			Holiday: holidays[d.String()],
			Today:   d.Equal(today),
			Future:  d.After(today),
		}
		if loc, ok := LocationForDate(trips, d); ok {
			cell.Location = loc
		}
		cal.Cells = append(cal.Cells, cell)
	}

	return cal
}

// BuildStatusBanner derives the status banner for the window ending at today
func BuildStatusBanner(trips []Trip, today Date) StatusBanner {
	stats := RollingStats(trips, today)

	banner := StatusBanner{
		Date:            today,
		Status:          stats.Status,
		RollingDays:     stats.FranceDaysInWindow,
		RemainingDays:   stats.RemainingDays,
		ProgressPercent: progressPercent(stats.FranceDaysInWindow),
	}

	if stats.RemainingDays == 0 {
		if next, ok := NextEligibleEntryDate(trips, today); ok {
			banner.NextEligibleDate = &next
		} else {
			banner.NextEligibleUnknown = true
		}
	}

	banner.Message = bannerMessage(banner)
	return banner
}

func progressPercent(rolling int) int {
	pct := rolling * 100 / ResidencyThreshold
	if pct > 100 {
		return 100
	}
	return pct
}

func bannerMessage(b StatusBanner) string {
	var msg string
	switch b.Status {
	case StatusDanger:
		msg = fmt.Sprintf("Residency threshold reached: %d days in France over the last %d days.", b.RollingDays, WindowDays)
	case StatusWarning:
		msg = fmt.Sprintf("Approaching the residency threshold: %d days remaining.", b.RemainingDays)
	default:
		msg = fmt.Sprintf("%d days in France over the last %d days, %d days remaining.", b.RollingDays, WindowDays, b.RemainingDays)
	}

	switch {
	case b.NextEligibleDate != nil:
		msg += fmt.Sprintf(" Next eligible entry: %s.", b.NextEligibleDate)
	case b.NextEligibleUnknown:
		msg += " Next eligible entry: unknown."
	}
	return msg
}
