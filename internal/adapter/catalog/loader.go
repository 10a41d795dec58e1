// Package catalog loads the river catalog CSV into a domain.Catalog.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/river-flow-report/internal/config"
	"github.com/couchcryptid/river-flow-report/internal/domain"
	"golang.org/x/text/encoding/charmap"
)

// ErrEmptyCatalog is returned when the file has no header row.
var ErrEmptyCatalog = errors.New("catalog has no header row")

// Loader reads the catalog from a file path.
type Loader struct {
	path     string
	encoding string
	columns  config.CatalogColumns
}

// NewLoader creates a loader for the given file, text encoding and column positions.
func NewLoader(path, encoding string, columns config.CatalogColumns) *Loader {
	return &Loader{path: path, encoding: encoding, columns: columns}
}

// Load opens and parses the catalog file.
func (l *Loader) Load() (domain.Catalog, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	cat, err := Parse(decoder(f, l.encoding), l.columns)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("catalog %s: %w", l.path, err)
	}
	return cat, nil
}

func decoder(r io.Reader, encoding string) io.Reader {
	switch strings.ToLower(encoding) {
	case "utf-8", "utf8":
		return r
	default:
		return charmap.ISO8859_1.NewDecoder().Reader(r)
	}
}

// Parse reads UTF-8 CSV. The first row is the header; every following row is a
// river. Rows shorter than the highest configured column are rejected.
func Parse(r io.Reader, columns config.CatalogColumns) (domain.Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return domain.Catalog{}, ErrEmptyCatalog
	}
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("read header: %w", err)
	}

	need := maxColumn(columns) + 1
	cat := domain.Catalog{Header: header}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("read row: %w", err)
		}
		if blank(row) {
			continue
		}
		line, _ := cr.FieldPos(0)
		if len(row) < need {
			return domain.Catalog{}, fmt.Errorf("line %d: %d columns, need at least %d", line, len(row), need)
		}
		cat.Rivers = append(cat.Rivers, domain.RiverRecord{
			Columns:          row,
			CEHQStation:      strings.TrimSpace(row[columns.CEHQStation]),
			VigilanceStation: strings.TrimSpace(row[columns.VigilanceStation]),
			ThresholdMin:     parseThreshold(row[columns.ThresholdMin]),
			ThresholdMax:     parseThreshold(row[columns.ThresholdMax]),
			Line:             line,
		})
	}
	return cat, nil
}

// parseThreshold reads a bound, treating empty or unparsable values as 0 (disabled).
func parseThreshold(s string) float64 {
	s = strings.TrimSpace(strings.Replace(s, ",", ".", 1))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func maxColumn(c config.CatalogColumns) int {
	return max(c.CEHQStation, c.VigilanceStation, c.ThresholdMin, c.ThresholdMax)
}

func blank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
