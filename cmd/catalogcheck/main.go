// Command catalogcheck validates a river catalog before it is deployed: station
// ids, threshold bounds and duplicate stations. It reads the same CATALOG_*
// environment variables as riverflow; flags override the path and encoding.
//
// Usage:
//
//	go run ./cmd/catalogcheck -catalog rivers.csv
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/couchcryptid/river-flow-report/internal/adapter/catalog"
	"github.com/couchcryptid/river-flow-report/internal/config"
	"github.com/couchcryptid/river-flow-report/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	cfg, err := config.LoadCatalog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}

	path := flag.String("catalog", cfg.Path, "path to the river catalog CSV")
	encoding := flag.String("encoding", cfg.Encoding, "catalog text encoding (iso-8859-1 or utf-8)")
	flag.Parse()

	cat, err := catalog.NewLoader(*path, *encoding, cfg.Columns).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	if code := run(os.Stdout, cat); code != 0 {
		os.Exit(code)
	}
}

func run(w io.Writer, cat domain.Catalog) int {
	fmt.Fprintln(w, "=== River Catalog Validation ===")
	fmt.Fprintln(w)

	phases := []*phase{
		validateStations(cat),
		validateThresholds(cat),
		validateDuplicates(cat),
	}

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-32s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Rivers: %d, report columns: %d\n", len(cat.Rivers), len(cat.Header)+len(domain.ValueColumns))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

// validateStations checks that CEHQ ids fit the six-digit file name and that
// every river names a Vigilance station.
func validateStations(cat domain.Catalog) *phase {
	p := &phase{name: "Station identifiers"}
	for _, r := range cat.Rivers {
		line := r.Line
		n, err := strconv.Atoi(r.CEHQStation)
		switch {
		case err != nil:
			p.errorf("line %d: CEHQ station %q is not numeric", line, r.CEHQStation)
		case n < 0 || n > 999999:
			p.errorf("line %d: CEHQ station %q does not fit six digits", line, r.CEHQStation)
		}
		if r.VigilanceStation == "" {
			p.errorf("line %d: Vigilance station is empty", line)
		}
	}
	return p
}

// validateThresholds checks that configured bounds are positive and ordered.
func validateThresholds(cat domain.Catalog) *phase {
	p := &phase{name: "Alert thresholds"}
	for _, r := range cat.Rivers {
		line := r.Line
		if r.ThresholdMin < 0 || r.ThresholdMax < 0 {
			p.errorf("line %d: negative threshold (min %g, max %g)", line, r.ThresholdMin, r.ThresholdMax)
		}
		if r.ThresholdMin != 0 && r.ThresholdMax != 0 && r.ThresholdMin >= r.ThresholdMax {
			p.errorf("line %d: min %g is not below max %g", line, r.ThresholdMin, r.ThresholdMax)
		}
	}
	return p
}

// validateDuplicates reports station pairs listed more than once.
func validateDuplicates(cat domain.Catalog) *phase {
	p := &phase{name: "Duplicate rivers"}
	seen := make(map[[2]string]int, len(cat.Rivers))
	for _, r := range cat.Rivers {
		line := r.Line
		key := [2]string{r.CEHQStation, r.VigilanceStation}
		if first, ok := seen[key]; ok {
			p.errorf("line %d: stations %s/%s already listed on line %d", line, r.CEHQStation, r.VigilanceStation, first)
			continue
		}
		seen[key] = line
	}
	return p
}
