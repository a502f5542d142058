package app

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/klabast/wb-services/residency-counter/internal/log"
	"github.com/klabast/wb-services/residency-counter/internal/residency"
)

// writeJSON encodes v with the given status and logs any error
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorw("error encoding response", "error", err)
	}
}

// writeOK writes the {"status":"ok"} acknowledgement
func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// queryYear parses the year query parameter, defaulting to def
func queryYear(r *http.Request, def int) (int, bool) {
	yearStr := r.URL.Query().Get("year")
	if yearStr == "" {
		return def, true
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 1900 || year > 9999 {
		return 0, false
	}
	return year, true
}

// queryMonth parses the month query parameter, defaulting to def
func queryMonth(r *http.Request, def time.Month) (time.Month, bool) {
	monthStr := r.URL.Query().Get("month")
	if monthStr == "" {
		return def, true
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return 0, false
	}
	return time.Month(month), true
}

// queryDate parses the date query parameter, defaulting to def
func queryDate(r *http.Request, def residency.Date) (residency.Date, bool) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		return def, true
	}
	d, err := residency.ParseDate(dateStr)
	if err != nil {
		return residency.Date{}, false
	}
	return d, true
}
