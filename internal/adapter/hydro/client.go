// Package hydro implements domain.Provider for the CEHQ and Vigilance
// streamflow APIs.
package hydro

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/river-flow-report/internal/domain"
	"github.com/couchcryptid/river-flow-report/internal/observability"
)

// Options configures a provider client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	AnchorHour int // local hour of the provider's daily forecast sample
	Resolver   *domain.ForecastResolver
	Lookup     domain.ForecastLookup // defaults to domain.ExactLookup
	Logger     *slog.Logger
	Metrics    *observability.Metrics
}

// client carries the HTTP plumbing shared by both providers.
type client struct {
	name       string
	baseURL    string
	httpClient *http.Client
	anchorHour int
	resolver   *domain.ForecastResolver
	lookup     domain.ForecastLookup
	logger     *slog.Logger
	metrics    *observability.Metrics
}

func newClient(name string, opts Options) client {
	lookup := opts.Lookup
	if lookup == nil {
		lookup = domain.ExactLookup{}
	}
	return client{
		name:    name,
		baseURL: opts.BaseURL,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		anchorHour: opts.AnchorHour,
		resolver:   opts.Resolver,
		lookup:     lookup,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
}

// getJSON fetches fullURL and decodes the body into v, recording request metrics.
func (c *client) getJSON(ctx context.Context, fullURL string, v any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		c.metrics.ProviderRequests.WithLabelValues(c.name, outcome).Inc()
		c.metrics.ProviderDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s API error: status %d: %s", c.name, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// resolveForecasts fills the reading's lead times and counts the misses.
func (c *client) resolveForecasts(reading *domain.CanonicalReading, samples []domain.ForecastSample, station string) {
	missed := domain.ResolveForecasts(reading, samples, c.lookup, c.resolver, c.anchorHour)
	for _, lead := range missed {
		c.metrics.ForecastMisses.WithLabelValues(c.name, strconv.Itoa(lead)+"h").Inc()
		c.logger.Debug("no forecast sample for lead time",
			"provider", c.name,
			"station", station,
			"lead_hours", lead,
		)
	}
}

// number decodes a streamflow value sent as a JSON number, a numeric string
// (decimal comma accepted) or null. Null and empty strings decode to 0.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(strings.Replace(str, ",", ".", 1))
		if s == "" {
			*n = 0
			return nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid numeric value %s: %w", b, err)
	}
	*n = number(v)
	return nil
}

// text decodes a JSON string or number into its textual form.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*t = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*t = text(str)
		return nil
	}
	*t = text(s)
	return nil
}
