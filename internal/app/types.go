package app

import (
	"github.com/klabast/wb-services/residency-counter/internal/residency"
)

// AddTripRequest is the body of POST /api/trips
type AddTripRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Location  string `json:"location"`
	Notes     string `json:"notes"`
}

// LocationOption describes a selectable location
type LocationOption struct {
	Key   residency.Location `json:"key"`
	Label string             `json:"label"`
}

// ConfigResponse is returned by GET /api/config
type ConfigResponse struct {
	Locations          []LocationOption  `json:"locations"`
	WindowDays         int               `json:"windowDays"`
	ResidencyThreshold int               `json:"residencyThreshold"`
	RemainingThreshold int               `json:"remainingThreshold"`
	WarningMargin      int               `json:"warningMargin"`
	Today              residency.Date    `json:"today"`
	Holidays           map[string]string `json:"holidays"`
	AuthRequired       bool              `json:"authRequired"`
}

// StatsResponse is returned by GET /api/stats
type StatsResponse struct {
	residency.YearStats
	Rolling residency.RollingWindowStats `json:"rolling"`
}
