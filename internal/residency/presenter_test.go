package residency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrenchHolidays(t *testing.T) {
	holidays := FrenchHolidays(2025)

	tests := map[string]string{
		"2025-01-01": "Jour de l'an",
		"2025-04-21": "Lundi de Pâques",
		"2025-05-08": "Victoire 1945",
		"2025-05-29": "Ascension",
		"2025-06-09": "Lundi de Pentecôte",
		"2025-07-14": "Fête nationale",
		"2025-11-11": "Armistice 1918",
		"2025-12-25": "Noël",
	}
	for date, name := range tests {
		assert.Equal(t, name, holidays[date], date)
	}
	assert.Len(t, holidays, 11)
}

func TestCalculateEaster(t *testing.T) {
	tests := []struct {
		year int
		want string
	}{
		{2024, "2024-03-31"},
		{2025, "2025-04-20"},
		{2026, "2026-04-05"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, calculateEaster(tt.year).String())
	}
}

func TestBuildCalendarMonth(t *testing.T) {
	trips := []Trip{
		trip(1, "2025-02-20", "2025-03-05", France),
		trip(2, "2025-03-01", "2025-03-10", US),
	}
	today := MustParseDate("2025-03-08")

	cal := BuildCalendarMonth(trips, 2025, time.March, today)

	assert.Equal(t, "March 2025", cal.Name)
	// March 1st 2025 is a Saturday: five blanks for Monday to Friday
	require.Len(t, cal.Cells, 5+31)
	for i := 0; i < 5; i++ {
		assert.True(t, cal.Cells[i].Blank)
	}

	first := cal.Cells[5]
	assert.Equal(t, 1, first.Day)
	assert.Equal(t, France, first.Location)

	seventh := cal.Cells[5+6]
	assert.Equal(t, US, seventh.Location)
	assert.False(t, seventh.Future)

	eighth := cal.Cells[5+7]
	assert.True(t, eighth.Today)

	last := cal.Cells[len(cal.Cells)-1]
	assert.Equal(t, 31, last.Day)
	assert.Empty(t, last.Location)
	assert.True(t, last.Future)
}

func TestBuildCalendarMonth_Holiday(t *testing.T) {
	cal := BuildCalendarMonth(nil, 2025, time.July, MustParseDate("2025-01-01"))
	// July 1st 2025 is a Tuesday: one blank
	assert.Equal(t, "Fête nationale", cal.Cells[1+13].Holiday)
}

func TestBuildStatusBanner(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		trips := []Trip{trip(1, "2025-01-01", "2025-01-10", France)}
		banner := BuildStatusBanner(trips, MustParseDate("2025-01-10"))

		assert.Equal(t, StatusOK, banner.Status)
		assert.Equal(t, 10, banner.RollingDays)
		assert.Equal(t, 172, banner.RemainingDays)
		assert.Equal(t, 5, banner.ProgressPercent)
		assert.Nil(t, banner.NextEligibleDate)
		assert.False(t, banner.NextEligibleUnknown)
	})

	t.Run("danger with next entry date", func(t *testing.T) {
		trips := []Trip{trip(1, "2025-01-01", "2025-07-03", France)}
		banner := BuildStatusBanner(trips, MustParseDate("2025-07-03"))

		assert.Equal(t, StatusDanger, banner.Status)
		assert.Equal(t, 100, banner.ProgressPercent)
		require.NotNil(t, banner.NextEligibleDate)
		assert.Equal(t, "2025-07-04", banner.NextEligibleDate.String())
		assert.Contains(t, banner.Message, "2025-07-04")
	})

	t.Run("danger with unknown entry date", func(t *testing.T) {
		trips := []Trip{trip(1, "2025-01-01", "2026-12-31", France)}
		banner := BuildStatusBanner(trips, MustParseDate("2025-07-03"))

		assert.Nil(t, banner.NextEligibleDate)
		assert.True(t, banner.NextEligibleUnknown)
		assert.Contains(t, banner.Message, "unknown")
	})
}
