//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/couchcryptid/river-flow-report/internal/adapter/catalog"
	"github.com/couchcryptid/river-flow-report/internal/adapter/hydro"
	"github.com/couchcryptid/river-flow-report/internal/adapter/kafka"
	"github.com/couchcryptid/river-flow-report/internal/config"
	"github.com/couchcryptid/river-flow-report/internal/domain"
	"github.com/couchcryptid/river-flow-report/internal/observability"
	"github.com/couchcryptid/river-flow-report/internal/pipeline"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testReportTopic = "test-river-flow-reports"

const cehqBody = `{
  "diffusion": [{"dateDonnee": "2024-03-10", "heureDonnee": "10:15", "donnee": 42.7}],
  "prevision": [
    {"datePrevision": "2024-03-11 09:00:00", "qMCS": 45.2},
    {"datePrevision": "2024-03-12 09:00:00", "qMCS": 47.8},
    {"datePrevision": "2024-03-13 09:00:00", "qMCS": 50.0}
  ]
}`

const vigilanceBody = `[{
  "valeurs_deb": [{"date_prise_valeur": "2024-03-10T14:00:00", "valeur": 18.9}],
  "valeurs_deb_prev": [
    {"date_prise_valeur": "2024-03-11T11:00:00", "valeur": 19.4},
    {"date_prise_valeur": "2024-03-13T11:00:00", "valeur": 22.0}
  ]
}]`

type publishedReport struct {
	Title  string     `json:"title"`
	Grid   [][]string `json:"grid"`
	Alerts []struct {
		Cell   string `json:"cell"`
		Reason string `json:"reason"`
	} `json:"alerts"`
}

func serve(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestReportPublishedToKafka runs the whole pipeline against fake providers and
// a real broker, then reads the report back from the topic.
func TestReportPublishedToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, time.March, 10, 15, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	broker := startKafka(ctx, t)
	createTopic(t, broker, testReportTopic)

	catalogPath := filepath.Join(t.TempDir(), "rivers.csv")
	require.NoError(t, os.WriteFile(catalogPath, []byte("Nom,CEHQ,Vigilance,Min,Max\nRouge,040204,5123,20,150\n"), 0o600))

	loc, err := time.LoadLocation("America/Montreal")
	require.NoError(t, err)

	cfg := &config.Config{
		CatalogPath:         catalogPath,
		CatalogEncoding:     "utf-8",
		CatalogColumns:      config.CatalogColumns{CEHQStation: 1, VigilanceStation: 2, ThresholdMin: 3, ThresholdMax: 4},
		Timezone:            loc,
		CEHQBaseURL:         serve(t, cehqBody).URL,
		VigilanceBaseURL:    serve(t, vigilanceBody).URL + "/?id=eq.",
		CEHQAnchorHour:      9,
		VigilanceAnchorHour: 7,
		HTTPTimeout:         5 * time.Second,
		KafkaBrokers:        []string{broker},
		KafkaReportTopic:    testReportTopic,
	}

	metrics := observability.NewMetricsForTesting()
	resolver := domain.NewForecastResolver(cfg.Timezone)
	opts := func(base string, anchor int) hydro.Options {
		return hydro.Options{BaseURL: base, Timeout: cfg.HTTPTimeout, AnchorHour: anchor,
			Resolver: resolver, Logger: discardLogger(), Metrics: metrics}
	}

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	rows := pipeline.NewRowBuilder(
		hydro.NewCEHQClient(opts(cfg.CEHQBaseURL, cfg.CEHQAnchorHour)),
		hydro.NewVigilanceClient(opts(cfg.VigilanceBaseURL, cfg.VigilanceAnchorHour)),
		0, discardLogger(), metrics,
	)
	p := pipeline.New(
		catalog.NewLoader(cfg.CatalogPath, cfg.CatalogEncoding, cfg.CatalogColumns),
		rows, resolver, writer, discardLogger(), metrics,
	)
	require.NoError(t, p.Run(ctx))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testReportTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from report topic")

	assert.Equal(t, "2024-03-10", string(msg.Key))
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "3", headers["alerts"])
	assert.Equal(t, "2024-03-10T15:00:00Z", headers["generated_at"])

	var report publishedReport
	require.NoError(t, json.Unmarshal(msg.Value, &report))
	assert.Equal(t, "2024-03-10", report.Title)
	require.Len(t, report.Grid, 2)
	assert.Equal(t,
		"Rouge,040204,5123,20,150,42.7,18.9,45.2,19.4,47.8,0,50,22",
		strings.Join(report.Grid[1], ","),
	)
	require.Len(t, report.Alerts, 3)
	assert.Equal(t, "G2", report.Alerts[0].Cell)
	assert.Equal(t, "below_min", report.Alerts[0].Reason)
	assert.Equal(t, "K2", report.Alerts[2].Cell)
	assert.Equal(t, "missing", report.Alerts[2].Reason)
}
