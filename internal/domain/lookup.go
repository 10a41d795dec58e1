package domain

// ForecastSample is one provider forecast point with its local timestamp.
type ForecastSample struct {
	Timestamp string
	Value     float64
}

// ForecastLookup selects the forecast value for a target timestamp.
type ForecastLookup interface {
	Lookup(samples []ForecastSample, target string) (float64, bool)
}

// ExactLookup matches the first sample whose timestamp equals the target string.
// Providers publish one sample per day at a fixed hour, so the target must carry
// that provider's anchor hour or nothing matches.
type ExactLookup struct{}

// Lookup implements ForecastLookup.
func (ExactLookup) Lookup(samples []ForecastSample, target string) (float64, bool) {
	for _, s := range samples {
		if s.Timestamp == target {
			return s.Value, true
		}
	}
	return 0, false
}

// ResolveForecasts fills the forecast components of reading for every lead time,
// leaving 0 where the lookup finds nothing. It returns the lead times that missed.
func ResolveForecasts(reading *CanonicalReading, samples []ForecastSample, lookup ForecastLookup, resolver *ForecastResolver, anchorHour int) []int {
	if lookup == nil {
		lookup = ExactLookup{}
	}
	var missed []int
	for _, lead := range LeadTimes {
		v, ok := lookup.Lookup(samples, resolver.Target(lead, anchorHour))
		if !ok {
			missed = append(missed, lead)
			v = 0
		}
		reading.SetForecast(lead, v)
	}
	return missed
}
