package app

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/klabast/wb-services/residency-counter/internal/log"
	"github.com/klabast/wb-services/residency-counter/internal/residency"
	"github.com/klabast/wb-services/residency-counter/internal/store"
)

// maxImportSize bounds the body of an import request
const maxImportSize = 5 << 20

// Server serves the trip API. Every response is recomputed from the current store snapshot.
type Server struct {
	store *store.TripStore
	auth  *Authenticator
	today func() residency.Date
}

// NewServer returns a server for s. A nil auth leaves mutating routes open.
func NewServer(s *store.TripStore, auth *Authenticator) *Server {
	if auth == nil {
		auth = &Authenticator{}
	}
	return &Server{store: s, auth: auth, today: residency.Today}
}

// SetClock overrides the source of "today"
func (s *Server) SetClock(today func() residency.Date) {
	s.today = today
}

// Router returns the HTTP routes
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/config", s.GetConfig).Methods(http.MethodGet)
	api.HandleFunc("/trips", s.ListTrips).Methods(http.MethodGet)
	api.HandleFunc("/trips", s.auth.RequireAuth(s.AddTrip)).Methods(http.MethodPost)
	api.HandleFunc("/trips", s.auth.RequireAuth(s.ClearTrips)).Methods(http.MethodDelete)
	api.HandleFunc("/trips/{id}", s.auth.RequireAuth(s.DeleteTrip)).Methods(http.MethodDelete)
	api.HandleFunc("/stats", s.GetStats).Methods(http.MethodGet)
	api.HandleFunc("/status", s.GetStatus).Methods(http.MethodGet)
	api.HandleFunc("/calendar", s.GetCalendar).Methods(http.MethodGet)
	api.HandleFunc("/export", s.HandleExport).Methods(http.MethodGet)
	api.HandleFunc("/import", s.auth.RequireAuth(s.HandleImport)).Methods(http.MethodPost)

	return requestLogger(r)
}

// Health reports the server is up
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeOK(w)
}

// GetConfig returns the locations, thresholds and this year's holidays
func (s *Server) GetConfig(w http.ResponseWriter, r *http.Request) {
	today := s.today()

	locations := make([]LocationOption, 0, len(residency.Locations))
	for _, l := range residency.Locations {
		locations = append(locations, LocationOption{Key: l, Label: l.Label()})
	}

	writeJSON(w, http.StatusOK, ConfigResponse{
		Locations:          locations,
		WindowDays:         residency.WindowDays,
		ResidencyThreshold: residency.ResidencyThreshold,
		RemainingThreshold: residency.RemainingThreshold,
		WarningMargin:      residency.WarningMargin,
		Today:              today,
		Holidays:           residency.FrenchHolidays(today.Year()),
		AuthRequired:       s.auth.Enabled(),
	})
}

// ListTrips returns all trips sorted by start date
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Trips())
}

// AddTrip validates and stores a new trip
func (s *Server) AddTrip(w http.ResponseWriter, r *http.Request) {
	var req AddTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidRequest, http.StatusBadRequest)
		return
	}

	trip, err := tripFromRequest(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	added, err := s.store.Add(trip)
	if err != nil {
		if errors.Is(err, store.ErrInvalidTrip) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Errorw("error adding trip", "error", err)
		http.Error(w, ErrInternalServer, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, added)
}

// tripFromRequest parses the request fields into a trip (without id)
func tripFromRequest(req AddTripRequest) (residency.Trip, error) {
	if req.StartDate == "" || req.EndDate == "" {
		return residency.Trip{}, errors.New("start and end dates are required")
	}
	start, err := residency.ParseDate(req.StartDate)
	if err != nil {
		return residency.Trip{}, errors.New(ErrInvalidDateFormat)
	}
	end, err := residency.ParseDate(req.EndDate)
	if err != nil {
		return residency.Trip{}, errors.New(ErrInvalidDateFormat)
	}
	loc, err := residency.ParseLocation(req.Location)
	if err != nil {
		return residency.Trip{}, err
	}
	return residency.Trip{StartDate: start, EndDate: end, Location: loc, Notes: req.Notes}, nil
}

// DeleteTrip removes a trip by id
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, ErrInvalidTripID, http.StatusBadRequest)
		return
	}

	if !s.store.Remove(id) {
		http.Error(w, ErrTripNotFound, http.StatusNotFound)
		return
	}
	writeOK(w)
}

// ClearTrips removes every trip
func (s *Server) ClearTrips(w http.ResponseWriter, r *http.Request) {
	s.store.Clear()
	writeOK(w)
}

// GetStats returns per-location totals for a year plus the rolling window at today
// Query param: year (optional, defaults to current year)
func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	today := s.today()
	year, ok := queryYear(r, today.Year())
	if !ok {
		http.Error(w, ErrInvalidYear, http.StatusBadRequest)
		return
	}

	trips := s.store.Trips()
	writeJSON(w, http.StatusOK, StatsResponse{
		YearStats: residency.YearStatsFor(trips, year, today),
		Rolling:   residency.RollingStats(trips, today),
	})
}

// GetStatus returns the status banner
// Query param: date (optional, defaults to today)
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	date, ok := queryDate(r, s.today())
	if !ok {
		http.Error(w, ErrInvalidDateFormat, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, residency.BuildStatusBanner(s.store.Trips(), date))
}

// GetCalendar returns a month grid
// Query params: year, month (optional, default to the current month)
func (s *Server) GetCalendar(w http.ResponseWriter, r *http.Request) {
	today := s.today()
	year, ok := queryYear(r, today.Year())
	if !ok {
		http.Error(w, ErrInvalidYear, http.StatusBadRequest)
		return
	}
	month, ok := queryMonth(r, today.Month())
	if !ok {
		http.Error(w, ErrInvalidMonth, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, residency.BuildCalendarMonth(s.store.Trips(), year, month, today))
}

// HandleExport handles export downloads in JSON, CSV or ICS format
func (s *Server) HandleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = FormatJSON
	}
	GenerateExport(w, format, s.store.Export())
}

// HandleImport applies a snapshot document
// Query param: mode (replace or merge, defaults to replace)
func (s *Server) HandleImport(w http.ResponseWriter, r *http.Request) {
	mode, err := store.ParseImportMode(r.URL.Query().Get("mode"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportSize))
	if err != nil {
		http.Error(w, ErrInvalidRequest, http.StatusBadRequest)
		return
	}

	result, err := s.store.Import(data, mode)
	if err != nil {
		if errors.Is(err, store.ErrInvalidSnapshot) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Errorw("error importing trips", "error", err)
		http.Error(w, ErrInternalServer, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
