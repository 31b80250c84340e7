package source

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/matsen/litmerge/internal/normalize"
	"github.com/matsen/litmerge/internal/reference"
	"github.com/matsen/litmerge/internal/sheet"
)

// Load-time errors. Both abort a run before any processing.
var (
	ErrMissingSourceFile = errors.New("source file not found")
	ErrSchemaMismatch    = errors.New("source schema mismatch")
)

// Table is one loaded export together with its schema.
type Table struct {
	Schema Schema
	Path   string
	*sheet.Table
}

// RawRecord is one row of an export, addressed by export column names.
type RawRecord struct {
	Schema Schema
	table  *sheet.Table
	row    int
}

// Get returns a cell by export column name; "" if the column is absent.
func (r RawRecord) Get(column string) string {
	if column == "" {
		return ""
	}
	return strings.TrimSpace(r.table.Cell(r.row, r.table.Column(column)))
}

// Row returns the 0-based data row index within its export.
func (r RawRecord) Row() int {
	return r.row
}

// Load reads an export and checks that the schema's required columns exist.
func Load(path string, schema Schema) (*Table, error) {
	t, err := sheet.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (%s)", ErrMissingSourceFile, path, schema.DB)
		}
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return FromSheet(path, t, schema)
}

// FromSheet wraps an already-read sheet, validating its columns.
func FromSheet(path string, t *sheet.Table, schema Schema) (*Table, error) {
	var missing []string
	for _, col := range schema.required() {
		if t.Column(col) < 0 {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s (%s) lacks columns %s",
			ErrSchemaMismatch, path, schema.DB, strings.Join(missing, ", "))
	}
	return &Table{Schema: schema, Path: path, Table: t}, nil
}

// Record returns raw row i.
func (t *Table) Record(i int) RawRecord {
	return RawRecord{Schema: t.Schema, table: t.Table, row: i}
}

// Records returns every raw row in file order.
func (t *Table) Records() []RawRecord {
	out := make([]RawRecord, t.Len())
	for i := range out {
		out[i] = t.Record(i)
	}
	return out
}

// Conform maps every row into the common schema, tagging it with the source.
// Unmapped columns are dropped.
func (t *Table) Conform() []reference.Record {
	out := make([]reference.Record, t.Len())
	for i := range out {
		out[i] = t.Record(i).Conform()
	}
	return out
}

// Conform maps one raw row into the common schema.
func (r RawRecord) Conform() reference.Record {
	rec := reference.Record{
		Authors:      r.Get(r.Schema.Authors),
		ArticleTitle: r.Get(r.Schema.Title),
		SourceTitle:  r.Get(r.Schema.Journal),
		DOI:          r.Get(r.Schema.DOI),
		SourceDB:     r.Schema.DB,
	}
	if y, ok := normalize.YearNumeric(r.Get(r.Schema.Year), r.Schema.YearPrefix); ok {
		rec.Year = reference.NewYear(y)
	}
	return rec
}
