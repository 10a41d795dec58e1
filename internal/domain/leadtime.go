package domain

import (
	"fmt"
	"time"
)

// TimestampLayout is the canonical local timestamp format used for forecast matching.
const TimestampLayout = "2006-01-02 15:04:05"

// LeadTimes are the forecast horizons, in hours, reported for every station.
var LeadTimes = [...]int{24, 48, 72}

// ForecastResolver computes lead-time target timestamps in one civil time zone.
type ForecastResolver struct {
	loc *time.Location
}

// NewForecastResolver creates a resolver for the given zone.
func NewForecastResolver(loc *time.Location) *ForecastResolver {
	if loc == nil {
		loc = time.UTC
	}
	return &ForecastResolver{loc: loc}
}

// Location returns the resolver's time zone.
func (r *ForecastResolver) Location() *time.Location {
	return r.loc
}

// Target returns the local calendar date of now+deltaHours paired with the
// anchor hour, e.g. "2024-03-11 09:00:00". Minutes and seconds of "now" are dropped.
func (r *ForecastResolver) Target(deltaHours, anchorHour int) string {
	local := clock.Now().UTC().Add(time.Duration(deltaHours) * time.Hour).In(r.loc)
	return fmt.Sprintf("%s %02d:00:00", local.Format(time.DateOnly), anchorHour)
}

// Today returns the local calendar date of now, formatted as 2006-01-02.
func (r *ForecastResolver) Today() string {
	return clock.Now().In(r.loc).Format(time.DateOnly)
}

// LocalTimestamp converts a naive UTC timestamp in layout to the resolver's zone
// and renders it in [TimestampLayout].
func (r *ForecastResolver) LocalTimestamp(naiveUTC, layout string) (string, error) {
	t, err := time.ParseInLocation(layout, naiveUTC, time.UTC)
	if err != nil {
		return "", fmt.Errorf("parse timestamp %q: %w", naiveUTC, err)
	}
	return t.In(r.loc).Format(TimestampLayout), nil
}
