package domain

import (
	"context"
	"errors"
)

var (
	// ErrEmptyResponse is returned when a provider answers with no station document.
	ErrEmptyResponse = errors.New("empty provider response")

	// ErrNoActuals is returned when a provider document has no observed readings.
	ErrNoActuals = errors.New("no actual readings")
)

// CanonicalReading is the provider-independent shape every adapter normalizes into.
// Unresolved components are zero.
type CanonicalReading struct {
	Current     float64 `json:"current"`
	Forecast24h float64 `json:"forecast_24h"`
	Forecast48h float64 `json:"forecast_48h"`
	Forecast72h float64 `json:"forecast_72h"`
}

// Forecast returns the forecast component for a lead time in hours, or 0 for
// a lead time outside [LeadTimes].
func (r CanonicalReading) Forecast(leadHours int) float64 {
	switch leadHours {
	case 24:
		return r.Forecast24h
	case 48:
		return r.Forecast48h
	case 72:
		return r.Forecast72h
	default:
		return 0
	}
}

// SetForecast assigns the component for a lead time. Unknown lead times are ignored.
func (r *CanonicalReading) SetForecast(leadHours int, v float64) {
	switch leadHours {
	case 24:
		r.Forecast24h = v
	case 48:
		r.Forecast48h = v
	case 72:
		r.Forecast72h = v
	}
}

// Provider fetches one station's reading from an external hydrological source.
type Provider interface {
	// Name identifies the provider in logs, metrics and report columns.
	Name() string

	// Fetch returns the station's normalized reading. Any transport or parse
	// failure is returned as an error; missing forecast samples are not errors.
	Fetch(ctx context.Context, station string) (CanonicalReading, error)
}
