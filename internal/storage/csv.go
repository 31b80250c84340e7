// Package storage persists the merge outputs and caches remote metadata.
package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/matsen/litmerge/internal/normalize"
	"github.com/matsen/litmerge/internal/reference"
)

// ErrMalformedTable is returned when a stored table cannot be parsed back.
var ErrMalformedTable = errors.New("malformed table")

// Column headers of the canonical and duplicates tables.
const (
	ColPaperID  = "paper_id"
	ColAuthors  = "Authors"
	ColTitle    = "Article Title"
	ColSource   = "Source Title"
	ColYear     = "Publication Year"
	ColDOI      = "DOI"
	ColSourceDB = "Source DB"
)

// RecordColumns is the common field set in output order.
var RecordColumns = []string{ColAuthors, ColTitle, ColSource, ColYear, ColDOI, ColSourceDB}

// CanonicalColumns is the canonical table header.
var CanonicalColumns = append([]string{ColPaperID}, RecordColumns...)

func recordRow(r reference.Record) []string {
	return []string{r.Authors, r.ArticleTitle, r.SourceTitle, r.Year.String(), r.DOI, string(r.SourceDB)}
}

// WriteCanonical writes the canonical table as CSV.
func WriteCanonical(w io.Writer, recs []reference.CanonicalRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CanonicalColumns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range recs {
		row := append([]string{strconv.Itoa(r.PaperID)}, recordRow(r.Record)...)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing paper %d: %w", r.PaperID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDuplicates writes the duplicates table as CSV.
func WriteDuplicates(w io.Writer, recs []reference.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RecordColumns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, r := range recs {
		if err := cw.Write(recordRow(r)); err != nil {
			return fmt.Errorf("writing duplicate %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCanonical writes the canonical table to path, replacing existing content.
func SaveCanonical(path string, recs []reference.CanonicalRecord) error {
	return writeFile(path, func(w io.Writer) error { return WriteCanonical(w, recs) })
}

// SaveDuplicates writes the duplicates table to path, replacing existing content.
func SaveDuplicates(path string, recs []reference.Record) error {
	return writeFile(path, func(w io.Writer) error { return WriteDuplicates(w, recs) })
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// header maps column names to indexes and checks that all of want are present.
func header(row []string, want []string) (map[string]int, error) {
	idx := make(map[string]int, len(row))
	for i, h := range row {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	var missing []string
	for _, col := range want {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrMalformedTable, strings.Join(missing, ", "))
	}
	return idx, nil
}

func cell(row []string, idx map[string]int, col string) string {
	i := idx[col]
	if i >= len(row) {
		return ""
	}
	return row[i]
}

func parseRecord(row []string, idx map[string]int) reference.Record {
	rec := reference.Record{
		Authors:      cell(row, idx, ColAuthors),
		ArticleTitle: cell(row, idx, ColTitle),
		SourceTitle:  cell(row, idx, ColSource),
		DOI:          cell(row, idx, ColDOI),
		SourceDB:     reference.SourceDB(cell(row, idx, ColSourceDB)),
	}
	// Spreadsheet round trips may render the year as "2021.0".
	if y, ok := normalize.YearNumeric(cell(row, idx, ColYear), 0); ok {
		rec.Year = reference.NewYear(y)
	}
	return rec
}

func readRows(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no header", ErrMalformedTable)
	}
	return rows, nil
}

// ReadCanonical parses a canonical table. paper_id values are kept as read so
// the verifier can judge them.
func ReadCanonical(r io.Reader) ([]reference.CanonicalRecord, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}
	idx, err := header(rows[0], CanonicalColumns)
	if err != nil {
		return nil, err
	}

	recs := make([]reference.CanonicalRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		raw := strings.TrimSpace(cell(row, idx, ColPaperID))
		id, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: paper_id %q", ErrMalformedTable, i+2, raw)
		}
		recs = append(recs, reference.CanonicalRecord{PaperID: id, Record: parseRecord(row, idx)})
	}
	return recs, nil
}

// ReadDuplicates parses a duplicates table.
func ReadDuplicates(r io.Reader) ([]reference.Record, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}
	idx, err := header(rows[0], RecordColumns)
	if err != nil {
		return nil, err
	}

	recs := make([]reference.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		recs = append(recs, parseRecord(row, idx))
	}
	return recs, nil
}

// LoadCanonical reads the canonical table at path.
func LoadCanonical(path string) ([]reference.CanonicalRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening canonical table: %w", err)
	}
	defer f.Close()
	recs, err := ReadCanonical(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return recs, nil
}

// LoadDuplicates reads the duplicates table at path.
func LoadDuplicates(path string) ([]reference.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening duplicates table: %w", err)
	}
	defer f.Close()
	recs, err := ReadDuplicates(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return recs, nil
}
