package hydro

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/couchcryptid/river-flow-report/internal/domain"
	"github.com/couchcryptid/river-flow-report/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

// frozenNow is 11:00 in Montreal on the first day of daylight saving time.
var frozenNow = time.Date(2024, time.March, 10, 15, 0, 0, 0, time.UTC)

func freezeClock(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(frozenNow))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func testOptions(t *testing.T, baseURL string, anchor int) Options {
	t.Helper()
	loc, err := time.LoadLocation("America/Montreal")
	require.NoError(t, err)
	return Options{
		BaseURL:    baseURL,
		Timeout:    5 * time.Second,
		AnchorHour: anchor,
		Resolver:   domain.NewForecastResolver(loc),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:    observability.NewMetricsForTesting(),
	}
}

func serveJSON(t *testing.T, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNumber_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{`12.5`, 12.5},
		{`"12.5"`, 12.5},
		{`"12,5"`, 12.5},
		{`null`, 0},
		{`""`, 0},
		{`0`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var n number
			require.NoError(t, n.UnmarshalJSON([]byte(tt.in)))
			assert.Equal(t, tt.want, float64(n))
		})
	}

	var n number
	assert.Error(t, n.UnmarshalJSON([]byte(`"abc"`)))
}

func TestText_UnmarshalJSON(t *testing.T) {
	var s text
	require.NoError(t, s.UnmarshalJSON([]byte(`"14:15"`)))
	assert.Equal(t, text("14:15"), s)

	require.NoError(t, s.UnmarshalJSON([]byte(`20240310`)))
	assert.Equal(t, text("20240310"), s)

	require.NoError(t, s.UnmarshalJSON([]byte(`null`)))
	assert.Equal(t, text(""), s)
}

func TestClient_NonOKStatus(t *testing.T) {
	freezeClock(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	opts := testOptions(t, srv.URL, 9)
	c := NewCEHQClient(opts)

	_, err := c.Fetch(context.Background(), "023402")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.Equal(t, 1.0, testutil.ToFloat64(opts.Metrics.ProviderRequests.WithLabelValues(CEHQName, "error")))
}

func TestClient_ContextCancelled(t *testing.T) {
	freezeClock(t)
	srv := serveJSON(t, `{}`, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewVigilanceClient(testOptions(t, srv.URL+"/?id=eq.", 7)).Fetch(ctx, "1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestClient_MalformedJSON(t *testing.T) {
	freezeClock(t)
	srv := serveJSON(t, `{"diffusion": [`, nil)

	_, err := NewCEHQClient(testOptions(t, srv.URL, 9)).Fetch(context.Background(), "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}
