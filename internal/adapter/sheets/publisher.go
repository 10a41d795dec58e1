// Package sheets publishes reports as Google Sheets spreadsheets.
package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/river-flow-report/internal/domain"
)

// spreadsheetAPI is the subset of Drive and Sheets operations a publish needs.
type spreadsheetAPI interface {
	Create(ctx context.Context, name, folderID string) (string, error)
	FirstSheetID(ctx context.Context, spreadsheetID string) (int64, error)
	WriteGrid(ctx context.Context, spreadsheetID string, grid [][]string) error
	Highlight(ctx context.Context, spreadsheetID string, sheetID int64, flags []domain.AlertFlag) error
}

// Publisher creates one spreadsheet per report in a Drive folder.
// It implements pipeline.Publisher.
type Publisher struct {
	api      spreadsheetAPI
	folderID string
	logger   *slog.Logger
}

// Publish creates a spreadsheet named after the report title, writes the grid
// from A1 and highlights every flagged cell.
func (p *Publisher) Publish(ctx context.Context, report domain.Report) error {
	id, err := p.api.Create(ctx, report.Title, p.folderID)
	if err != nil {
		return fmt.Errorf("create spreadsheet: %w", err)
	}

	if err := p.api.WriteGrid(ctx, id, report.Grid()); err != nil {
		return fmt.Errorf("write spreadsheet %s: %w", id, err)
	}

	if len(report.Alerts) > 0 {
		sheetID, err := p.api.FirstSheetID(ctx, id)
		if err != nil {
			return fmt.Errorf("read spreadsheet %s: %w", id, err)
		}
		if err := p.api.Highlight(ctx, id, sheetID, report.Alerts); err != nil {
			return fmt.Errorf("highlight spreadsheet %s: %w", id, err)
		}
	}

	p.logger.Info("report written to google sheets",
		"spreadsheet_id", id,
		"title", report.Title,
		"rows", len(report.Rows),
		"alerts", len(report.Alerts),
	)
	return nil
}
