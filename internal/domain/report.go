package domain

import "strconv"

// ValueColumns names the computed report columns appended after the catalog
// columns, in their fixed order: provider A (CEHQ) then provider B (Vigilance)
// for the current value and each lead time.
var ValueColumns = [...]string{
	"CEHQ Debit Actuel",
	"Vigilance Debit Actuel",
	"CEHQ Debit 24h",
	"Vigilance Debit 24h",
	"CEHQ Debit 48h",
	"Vigilance Debit 48h",
	"CEHQ Debit 72h",
	"Vigilance Debit 72h",
}

// RowValues holds the eight computed values of one report row.
type RowValues struct {
	CurrentCEHQ          float64 `json:"current_cehq"`
	CurrentVigilance     float64 `json:"current_vigilance"`
	Forecast24hCEHQ      float64 `json:"forecast_24h_cehq"`
	Forecast24hVigilance float64 `json:"forecast_24h_vigilance"`
	Forecast48hCEHQ      float64 `json:"forecast_48h_cehq"`
	Forecast48hVigilance float64 `json:"forecast_48h_vigilance"`
	Forecast72hCEHQ      float64 `json:"forecast_72h_cehq"`
	Forecast72hVigilance float64 `json:"forecast_72h_vigilance"`
}

// NewRowValues interleaves a CEHQ and a Vigilance reading into row order.
func NewRowValues(cehq, vigilance CanonicalReading) RowValues {
	return RowValues{
		CurrentCEHQ:          cehq.Current,
		CurrentVigilance:     vigilance.Current,
		Forecast24hCEHQ:      cehq.Forecast24h,
		Forecast24hVigilance: vigilance.Forecast24h,
		Forecast48hCEHQ:      cehq.Forecast48h,
		Forecast48hVigilance: vigilance.Forecast48h,
		Forecast72hCEHQ:      cehq.Forecast72h,
		Forecast72hVigilance: vigilance.Forecast72h,
	}
}

// Ordered returns the values in [ValueColumns] order.
func (v RowValues) Ordered() [len(ValueColumns)]float64 {
	return [len(ValueColumns)]float64{
		v.CurrentCEHQ, v.CurrentVigilance,
		v.Forecast24hCEHQ, v.Forecast24hVigilance,
		v.Forecast48hCEHQ, v.Forecast48hVigilance,
		v.Forecast72hCEHQ, v.Forecast72hVigilance,
	}
}

// ReportRow is one river with its computed values.
type ReportRow struct {
	River  RiverRecord
	Values RowValues
}

// Cells renders the row as the catalog columns followed by the computed values.
func (r ReportRow) Cells() []string {
	out := make([]string, 0, len(r.River.Columns)+len(ValueColumns))
	out = append(out, r.River.Columns...)
	for _, v := range r.Values.Ordered() {
		out = append(out, FormatValue(v))
	}
	return out
}

// Report is the complete output of one run.
type Report struct {
	Title  string
	Header []string
	Rows   []ReportRow
	Alerts []AlertFlag
}

// NewReport builds the header from the catalog header and [ValueColumns] and
// evaluates thresholds over rows.
func NewReport(title string, catalogHeader []string, rows []ReportRow) Report {
	header := make([]string, 0, len(catalogHeader)+len(ValueColumns))
	header = append(header, catalogHeader...)
	header = append(header, ValueColumns[:]...)
	return Report{
		Title:  title,
		Header: header,
		Rows:   rows,
		Alerts: Evaluate(rows),
	}
}

// Grid returns the header row followed by one row per river.
func (r Report) Grid() [][]string {
	grid := make([][]string, 0, len(r.Rows)+1)
	grid = append(grid, r.Header)
	for _, row := range r.Rows {
		grid = append(grid, row.Cells())
	}
	return grid
}

// FormatValue renders a streamflow value with the shortest exact decimal form.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
