package domain

// RiverRecord is one catalog entry. Columns holds the catalog row verbatim so the
// report can reproduce it; the named fields are the ones the pipeline reads.
type RiverRecord struct {
	Columns          []string
	CEHQStation      string
	VigilanceStation string
	ThresholdMin     float64 // 0 disables the lower bound
	ThresholdMax     float64 // 0 disables the upper bound
	Line             int     // 1-based line in the catalog file
}

// Catalog is the loaded river list with its header row.
type Catalog struct {
	Header []string
	Rivers []RiverRecord
}
