// Package reference defines the core domain types for bibliographic records.
package reference

import "strconv"

// SourceDB tags the export a record originated from.
type SourceDB string

const (
	SourceWOS      SourceDB = "WOS"
	SourcePsycInfo SourceDB = "PsycInfo"
)

// Sources lists every known source tag in merge order.
var Sources = []SourceDB{SourceWOS, SourcePsycInfo}

// Year is a nullable publication year.
type Year struct {
	Value int
	Valid bool
}

// NewYear returns a valid Year.
func NewYear(v int) Year {
	return Year{Value: v, Valid: true}
}

// String renders the year, or "" when it is null.
func (y Year) String() string {
	if !y.Valid {
		return ""
	}
	return strconv.Itoa(y.Value)
}

// Record is a bibliographic entry in the common schema both exports are mapped into.
// Field values keep their display form; normalization happens only when keys are built.
type Record struct {
	Authors      string // Semicolon-joined author list
	ArticleTitle string
	SourceTitle  string // Journal name
	Year         Year
	DOI          string // Empty when absent
	SourceDB     SourceDB
}

// CanonicalRecord is a record that survived deduplication.
type CanonicalRecord struct {
	PaperID int // 1-based, unique, gap-free
	Record
}
