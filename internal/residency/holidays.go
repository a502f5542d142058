package residency

import (
	"time"
)

// FrenchHolidays returns all public holidays in metropolitan France for the given year,
// keyed by YYYY-MM-DD
func FrenchHolidays(year int) map[string]string {
	holidays := make(map[string]string)

	// Fixed holidays
	holidays[formatDate(year, 1, 1)] = "Jour de l'an"
	holidays[formatDate(year, 5, 1)] = "Fête du Travail"
	holidays[formatDate(year, 5, 8)] = "Victoire 1945"
	holidays[formatDate(year, 7, 14)] = "Fête nationale"
	holidays[formatDate(year, 8, 15)] = "Assomption"
	holidays[formatDate(year, 11, 1)] = "Toussaint"
	holidays[formatDate(year, 11, 11)] = "Armistice 1918"
	holidays[formatDate(year, 12, 25)] = "Noël"

	// Easter-based holidays (movable)
	easter := calculateEaster(year)

	// Lundi de Pâques (Easter Monday): Easter + 1 day
	holidays[easter.AddDays(1).String()] = "Lundi de Pâques"

	// Ascension: Easter + 39 days
	holidays[easter.AddDays(39).String()] = "Ascension"

	// Lundi de Pentecôte (Whit Monday): Easter + 50 days
	holidays[easter.AddDays(50).String()] = "Lundi de Pentecôte"

	return holidays
}

// calculateEaster calculates Easter Sunday using the Meeus/Jones/Butcher algorithm
func calculateEaster(year int) Date {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1

	return NewDate(year, time.Month(month), day)
}

// formatDate formats a date as YYYY-MM-DD
func formatDate(year, month, day int) string {
	return NewDate(year, time.Month(month), day).String()
}
