package domain

import "strconv"

// AlertReason says which rule flagged a cell.
type AlertReason string

const (
	ReasonMissing  AlertReason = "missing"
	ReasonBelowMin AlertReason = "below_min"
	ReasonAboveMax AlertReason = "above_max"
)

// AlertFlag identifies one report cell to highlight. Row 0 is the header row;
// Column is the 0-based grid column.
type AlertFlag struct {
	Row    int         `json:"row"`
	Column int         `json:"column"`
	Reason AlertReason `json:"reason"`
}

// Cell returns the flag's position in A1 notation.
func (f AlertFlag) Cell() string {
	return ColumnLetter(f.Column+1) + strconv.Itoa(f.Row+1)
}

// Evaluate returns the flagged value cells of rows, ordered by row then column.
func Evaluate(rows []ReportRow) []AlertFlag {
	var flags []AlertFlag
	for i, row := range rows {
		offset := len(row.River.Columns)
		for j, v := range row.Values.Ordered() {
			reason, ok := Breach(v, row.River.ThresholdMin, row.River.ThresholdMax)
			if !ok {
				continue
			}
			flags = append(flags, AlertFlag{Row: i + 1, Column: offset + j, Reason: reason})
		}
	}
	return flags
}

// Breach applies the alert rules to one value. A zero threshold disables its side.
// Zero values are always flagged as missing.
func Breach(v, minThreshold, maxThreshold float64) (AlertReason, bool) {
	switch {
	case v == 0:
		return ReasonMissing, true
	case minThreshold != 0 && v <= minThreshold:
		return ReasonBelowMin, true
	case maxThreshold != 0 && v >= maxThreshold:
		return ReasonAboveMax, true
	default:
		return "", false
	}
}

// ColumnLetter converts a 1-based column index to spreadsheet letters:
// 1 -> A, 26 -> Z, 27 -> AA. Returns "" for n < 1.
func ColumnLetter(n int) string {
	var buf []byte
	for n > 0 {
		n--
		buf = append([]byte{byte('A' + n%26)}, buf...)
		n /= 26
	}
	return string(buf)
}
