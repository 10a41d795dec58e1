package hydro

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/couchcryptid/river-flow-report/internal/domain"
)

// VigilanceName identifies the Vigilance provider in logs and metrics.
const VigilanceName = "vigilance"

// vigilanceTimestampLayout is the naive UTC layout of date_prise_valeur.
const vigilanceTimestampLayout = "2006-01-02T15:04:05"

// VigilanceClient implements domain.Provider using the Vigilance station readings API.
type VigilanceClient struct {
	client
}

// NewVigilanceClient creates a Vigilance client. BaseURL is concatenated with
// the station id, e.g. ".../station_details_readings_api?id=eq.".
func NewVigilanceClient(opts Options) *VigilanceClient {
	return &VigilanceClient{client: newClient(VigilanceName, opts)}
}

// Name implements domain.Provider.
func (c *VigilanceClient) Name() string { return VigilanceName }

// Fetch retrieves the latest observed flow and the 24/48/72h forecasts for a station.
func (c *VigilanceClient) Fetch(ctx context.Context, station string) (domain.CanonicalReading, error) {
	station = strings.TrimSpace(station)
	if station == "" {
		return domain.CanonicalReading{}, fmt.Errorf("empty Vigilance station")
	}

	var docs []vigilanceDocument
	if err := c.getJSON(ctx, c.baseURL+url.QueryEscape(station), &docs); err != nil {
		return domain.CanonicalReading{}, err
	}
	if len(docs) == 0 {
		return domain.CanonicalReading{}, fmt.Errorf("vigilance station %s: %w", station, domain.ErrEmptyResponse)
	}

	return c.normalize(docs[0], station)
}

func (c *VigilanceClient) normalize(doc vigilanceDocument, station string) (domain.CanonicalReading, error) {
	if len(doc.Actuals) == 0 {
		return domain.CanonicalReading{}, fmt.Errorf("vigilance station %s: %w", station, domain.ErrNoActuals)
	}

	actuals := append([]vigilanceValue(nil), doc.Actuals...)
	sort.SliceStable(actuals, func(i, j int) bool {
		return actuals[i].Timestamp > actuals[j].Timestamp
	})

	// Every forecast timestamp is converted to local time before any lookup.
	samples := make([]domain.ForecastSample, 0, len(doc.Forecasts))
	for _, f := range doc.Forecasts {
		local, err := c.resolver.LocalTimestamp(string(f.Timestamp), vigilanceTimestampLayout)
		if err != nil {
			return domain.CanonicalReading{}, fmt.Errorf("vigilance station %s: %w", station, err)
		}
		samples = append(samples, domain.ForecastSample{Timestamp: local, Value: float64(f.Value)})
	}
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp < samples[j].Timestamp
	})

	reading := domain.CanonicalReading{Current: float64(actuals[0].Value)}
	c.resolveForecasts(&reading, samples, station)
	return reading, nil
}

// Vigilance API response types.

type vigilanceDocument struct {
	Actuals   []vigilanceValue `json:"valeurs_deb"`
	Forecasts []vigilanceValue `json:"valeurs_deb_prev"`
}

type vigilanceValue struct {
	Timestamp text   `json:"date_prise_valeur"` // naive UTC "2024-03-11T11:00:00"
	Value     number `json:"valeur"`            // m³/s
}
