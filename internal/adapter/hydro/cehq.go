package hydro

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/couchcryptid/river-flow-report/internal/domain"
)

// CEHQName identifies the CEHQ provider in logs and metrics.
const CEHQName = "cehq"

// CEHQClient implements domain.Provider using the CEHQ per-station JSON files.
type CEHQClient struct {
	client
}

// NewCEHQClient creates a CEHQ client. BaseURL is the JSON directory, with or
// without a trailing slash.
func NewCEHQClient(opts Options) *CEHQClient {
	return &CEHQClient{client: newClient(CEHQName, opts)}
}

// Name implements domain.Provider.
func (c *CEHQClient) Name() string { return CEHQName }

// Fetch retrieves the latest observed flow and the 24/48/72h forecasts for a station.
func (c *CEHQClient) Fetch(ctx context.Context, station string) (domain.CanonicalReading, error) {
	id, err := strconv.Atoi(strings.TrimSpace(station))
	if err != nil || id < 0 {
		return domain.CanonicalReading{}, fmt.Errorf("invalid CEHQ station %q", station)
	}

	u := fmt.Sprintf("%s/%06d.json", strings.TrimRight(c.baseURL, "/"), id)

	var doc cehqDocument
	if err := c.getJSON(ctx, u, &doc); err != nil {
		return domain.CanonicalReading{}, err
	}

	return c.normalize(doc, station)
}

func (c *CEHQClient) normalize(doc cehqDocument, station string) (domain.CanonicalReading, error) {
	if len(doc.Diffusion) == 0 {
		return domain.CanonicalReading{}, fmt.Errorf("cehq station %s: %w", station, domain.ErrNoActuals)
	}

	actuals := append([]cehqActual(nil), doc.Diffusion...)
	sort.SliceStable(actuals, func(i, j int) bool {
		if actuals[i].Date != actuals[j].Date {
			return actuals[i].Date > actuals[j].Date
		}
		return actuals[i].Hour > actuals[j].Hour
	})

	forecasts := append([]cehqForecast(nil), doc.Prevision...)
	sort.SliceStable(forecasts, func(i, j int) bool {
		return forecasts[i].Date > forecasts[j].Date
	})

	samples := make([]domain.ForecastSample, len(forecasts))
	for i, f := range forecasts {
		samples[i] = domain.ForecastSample{Timestamp: string(f.Date), Value: float64(f.Flow)}
	}

	reading := domain.CanonicalReading{Current: float64(actuals[0].Value)}
	c.resolveForecasts(&reading, samples, station)
	return reading, nil
}

// CEHQ API response types.

type cehqDocument struct {
	Diffusion []cehqActual   `json:"diffusion"`
	Prevision []cehqForecast `json:"prevision"`
}

type cehqActual struct {
	Date  text   `json:"dateDonnee"`  // "2024-03-10"
	Hour  text   `json:"heureDonnee"` // "14:15"
	Value number `json:"donnee"`      // m³/s
}

type cehqForecast struct {
	Date text   `json:"datePrevision"` // local "2024-03-11 09:00:00"
	Flow number `json:"qMCS"`          // m³/s
}
