package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/river-flow-report/internal/domain"
	"github.com/couchcryptid/river-flow-report/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

// RowBuilder queries both providers for every river, in catalog order.
type RowBuilder struct {
	cehq      domain.Provider
	vigilance domain.Provider
	delay     time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewRowBuilder creates a RowBuilder that pauses for delay between rivers.
func NewRowBuilder(cehq, vigilance domain.Provider, delay time.Duration, logger *slog.Logger, metrics *observability.Metrics) *RowBuilder {
	return &RowBuilder{
		cehq:      cehq,
		vigilance: vigilance,
		delay:     delay,
		logger:    logger,
		metrics:   metrics,
	}
}

// Build returns one row per river in input order. A provider failure yields a
// four-zero reading for that provider; only context cancellation aborts.
func (b *RowBuilder) Build(ctx context.Context, rivers []domain.RiverRecord) ([]domain.ReportRow, error) {
	rows := make([]domain.ReportRow, 0, len(rivers))
	for i, river := range rivers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cehq := b.fetch(ctx, b.cehq, river.CEHQStation)
		vigilance := b.fetch(ctx, b.vigilance, river.VigilanceStation)
		rows = append(rows, domain.ReportRow{
			River:  river,
			Values: domain.NewRowValues(cehq, vigilance),
		})
		b.metrics.RowsBuilt.Inc()

		if i < len(rivers)-1 && !retry.SleepWithContext(ctx, b.delay) {
			return nil, ctx.Err()
		}
	}
	return rows, nil
}

func (b *RowBuilder) fetch(ctx context.Context, p domain.Provider, station string) domain.CanonicalReading {
	reading, err := p.Fetch(ctx, station)
	if err != nil {
		if ctx.Err() == nil {
			b.logger.Warn("provider fetch failed, using zeros",
				"provider", p.Name(),
				"station", station,
				"error", err,
			)
		}
		return domain.CanonicalReading{}
	}
	return reading
}
