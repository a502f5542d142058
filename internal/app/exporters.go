package app

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/klabast/wb-services/residency-counter/internal/log"
	"github.com/klabast/wb-services/residency-counter/internal/residency"
	"github.com/klabast/wb-services/residency-counter/internal/store"
)

// Export formats
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatICS  = "ics"
)

// exportFilename builds the download name, e.g. residency_trips_2025-06-01.csv
func exportFilename(format string, now time.Time) string {
	return fmt.Sprintf("residency_trips_%s.%s", now.Format(residency.DateLayout), format)
}

// WriteExport writes snap in the given format to w
func WriteExport(w io.Writer, format string, snap store.Snapshot) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case FormatCSV:
		return writeCSV(w, snap.Trips)
	case FormatICS:
		return writeICS(w, snap.Trips, snap.ExportDate)
	default:
		return fmt.Errorf("%s: %q", ErrInvalidFormat, format)
	}
}

// GenerateExport sends snap as a download in the given format
func GenerateExport(w http.ResponseWriter, format string, snap store.Snapshot) {
	var contentType string
	switch format {
	case FormatJSON:
		contentType = "application/json; charset=utf-8"
	case FormatCSV:
		contentType = "text/csv; charset=utf-8"
	case FormatICS:
		contentType = "text/calendar; charset=utf-8"
	default:
		http.Error(w, ErrInvalidFormat, http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+exportFilename(format, snap.ExportDate))

	if err := WriteExport(w, format, snap); err != nil {
		log.Errorw("error writing export", "format", format, "error", err)
		http.Error(w, ErrFailedToGenerate, http.StatusInternalServerError)
	}
}

// writeCSV writes one row per trip
func writeCSV(w io.Writer, trips []residency.Trip) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"startDate", "endDate", "location", "days", "notes"}); err != nil {
		return err
	}
	for _, t := range trips {
		row := []string{
			t.StartDate.String(),
			t.EndDate.String(),
			string(t.Location),
			strconv.Itoa(t.Days()),
			t.Notes,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeICS writes an iCalendar file with one all-day event per trip
func writeICS(w io.Writer, trips []residency.Trip, stamp time.Time) error {
	var b strings.Builder

	// ICS header
	b.WriteString("BEGIN:VCALENDAR\r\n")
	b.WriteString("VERSION:2.0\r\n")
	fmt.Fprintf(&b, "PRODID:%s\r\n", ICSProductID)
	b.WriteString("X-WR-CALNAME:Trips\r\n")
	fmt.Fprintf(&b, "X-WR-TIMEZONE:%s\r\n", ICSTimezone)
	b.WriteString("CALSCALE:GREGORIAN\r\n")

	for _, t := range trips {
		// UID must be stable for proper calendar updates
		uid := fmt.Sprintf("trip-%d@residency-counter", t.ID)

		summary := t.Location.Label()
		if t.Notes != "" {
			summary += " - " + t.Notes
		}

		b.WriteString("BEGIN:VEVENT\r\n")
		fmt.Fprintf(&b, "UID:%s\r\n", uid)
		fmt.Fprintf(&b, "DTSTAMP:%s\r\n", stamp.UTC().Format("20060102T150405Z"))
		fmt.Fprintf(&b, "DTSTART;VALUE=DATE:%s\r\n", t.StartDate.Time().Format("20060102"))
		// DTEND is exclusive for all-day events
		fmt.Fprintf(&b, "DTEND;VALUE=DATE:%s\r\n", t.EndDate.AddDays(1).Time().Format("20060102"))
		fmt.Fprintf(&b, "SUMMARY:%s\r\n", escapeICS(summary))
		fmt.Fprintf(&b, "DESCRIPTION:%d days in %s\r\n", t.Days(), escapeICS(t.Location.Label()))
		fmt.Fprintf(&b, "CATEGORIES:%s\r\n", strings.ToUpper(string(t.Location)))
		b.WriteString("END:VEVENT\r\n")
	}

	b.WriteString("END:VCALENDAR\r\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// escapeICS escapes text values per RFC 5545
func escapeICS(s string) string {
	r := strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`)
	return r.Replace(s)
}
