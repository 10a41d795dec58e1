// Package logsink publishes reports to the structured log. It is the default
// sink and serves as a dry run.
package logsink

import (
	"context"
	"log/slog"
	"strings"

	"github.com/couchcryptid/river-flow-report/internal/domain"
)

// Sink logs every report row and alert.
type Sink struct {
	logger *slog.Logger
}

// New creates a Sink writing to logger.
func New(logger *slog.Logger) *Sink {
	return &Sink{logger: logger}
}

// Publish implements pipeline.Publisher.
func (s *Sink) Publish(ctx context.Context, report domain.Report) error {
	grid := report.Grid()
	for i, row := range grid {
		s.logger.InfoContext(ctx, "report row",
			"title", report.Title,
			"row", i,
			"cells", strings.Join(row, " | "),
		)
	}
	for _, a := range report.Alerts {
		attrs := []any{"title", report.Title, "cell", a.Cell()}
		// Catalog rows may be wider than the header; those cells have no name.
		if a.Column < len(report.Header) {
			attrs = append(attrs, "column", report.Header[a.Column])
		}
		attrs = append(attrs, "reason", string(a.Reason))
		s.logger.InfoContext(ctx, "report alert", attrs...)
	}
	return nil
}
