package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/river-flow-report/internal/config"
	"github.com/couchcryptid/river-flow-report/internal/domain"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// alertColor is the background applied to flagged cells.
var alertColor = &sheetsapi.Color{Red: 1, Green: 0.6, Blue: 0.6}

// NewPublisher authenticates with the configured service account and returns a
// Publisher targeting cfg.SheetsFolderID.
func NewPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Publisher, error) {
	var opts []option.ClientOption
	switch {
	case cfg.GoogleCredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.GoogleCredentialsJSON)))
	case cfg.GoogleCredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.GoogleCredentialsFile))
	default:
		return nil, errors.New("no google credentials configured")
	}
	opts = append(opts, option.WithScopes(drive.DriveScope, sheetsapi.SpreadsheetsScope))

	api, err := newGoogleAPI(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Publisher{api: api, folderID: cfg.SheetsFolderID, logger: logger}, nil
}

// googleAPI implements spreadsheetAPI with the Drive v3 and Sheets v4 clients.
type googleAPI struct {
	drive  *drive.Service
	sheets *sheetsapi.Service
}

func newGoogleAPI(ctx context.Context, opts ...option.ClientOption) (*googleAPI, error) {
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive client: %w", err)
	}
	sheetsSvc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	return &googleAPI{drive: driveSvc, sheets: sheetsSvc}, nil
}

func (g *googleAPI) Create(ctx context.Context, name, folderID string) (string, error) {
	f, err := g.drive.Files.Create(&drive.File{
		Name:     name,
		MimeType: spreadsheetMimeType,
		Parents:  []string{folderID},
	}).SupportsAllDrives(true).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return f.Id, nil
}

func (g *googleAPI) FirstSheetID(ctx context.Context, spreadsheetID string) (int64, error) {
	ss, err := g.sheets.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties.sheetId").Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
		return 0, errors.New("spreadsheet has no sheets")
	}
	return ss.Sheets[0].Properties.SheetId, nil
}

func (g *googleAPI) WriteGrid(ctx context.Context, spreadsheetID string, grid [][]string) error {
	values := make([][]interface{}, len(grid))
	for i, row := range grid {
		cells := make([]interface{}, len(row))
		for j, c := range row {
			cells[j] = c
		}
		values[i] = cells
	}
	_, err := g.sheets.Spreadsheets.Values.Update(spreadsheetID, "A1", &sheetsapi.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (g *googleAPI) Highlight(ctx context.Context, spreadsheetID string, sheetID int64, flags []domain.AlertFlag) error {
	reqs := make([]*sheetsapi.Request, len(flags))
	for i, f := range flags {
		reqs[i] = &sheetsapi.Request{RepeatCell: &sheetsapi.RepeatCellRequest{
			Range: cellRange(sheetID, f),
			Cell: &sheetsapi.CellData{
				UserEnteredFormat: &sheetsapi.CellFormat{BackgroundColor: alertColor},
			},
			Fields: "userEnteredFormat.backgroundColor",
		}}
	}
	_, err := g.sheets.Spreadsheets.BatchUpdate(spreadsheetID, &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: reqs,
	}).Context(ctx).Do()
	return err
}

// cellRange is the half-open grid range covering one flagged cell.
func cellRange(sheetID int64, f domain.AlertFlag) *sheetsapi.GridRange {
	return &sheetsapi.GridRange{
		SheetId:          sheetID,
		StartRowIndex:    int64(f.Row),
		EndRowIndex:      int64(f.Row) + 1,
		StartColumnIndex: int64(f.Column),
		EndColumnIndex:   int64(f.Column) + 1,
		// Zero indexes are meaningful and must not be dropped as empty.
		ForceSendFields: []string{"SheetId", "StartRowIndex", "StartColumnIndex"},
	}
}
