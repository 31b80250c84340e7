// Package dedupe merges the two source exports into one canonical record set.
//
// The partition is exact: every input row ends up either in Canonical or in
// Duplicates, never both and never neither. Two rows are the same work when
// their normalized DOIs are equal, or, when neither has a DOI, when their
// normalized title, authors and year are equal.
package dedupe

import (
	"sort"

	"github.com/matsen/litmerge/internal/normalize"
	"github.com/matsen/litmerge/internal/reference"
)

// Key is the normalized identity of a record. It exists only while merging.
type Key struct {
	DOINorm      string // normalized DOI or normalize.MissingDOI
	SecondaryKey string // title|authors|year
}

// HasDOI reports whether the key carries a real DOI.
func (k Key) HasDOI() bool {
	return k.DOINorm != normalize.MissingDOI
}

// KeyOf derives the join key of a record. Display values are not modified.
func KeyOf(r reference.Record) Key {
	return Key{
		DOINorm:      normalize.DOIKey(r.DOI),
		SecondaryKey: normalize.SecondaryKey(r.ArticleTitle, r.Authors, r.Year.String()),
	}
}

// Reason says why a row was set aside.
type Reason string

const (
	ByDOI          Reason = "doi"
	BySecondaryKey Reason = "secondary_key"
)

// Duplicate is a row that matched an earlier canonical row.
type Duplicate struct {
	reference.Record
	Reason Reason
}

// Stats summarizes one partition.
type Stats struct {
	Input               map[reference.SourceDB]int `json:"input"`
	Canonical           int                        `json:"canonical"`
	DuplicatesByDOI     int                        `json:"duplicates_by_doi"`
	DuplicatesByKey     int                        `json:"duplicates_by_secondary_key"`
	CanonicalBySourceDB map[reference.SourceDB]int `json:"canonical_by_source"`
}

// Duplicates returns the total number of rows set aside.
func (s Stats) Duplicates() int {
	return s.DuplicatesByDOI + s.DuplicatesByKey
}

// Result is the outcome of Partition.
type Result struct {
	Canonical  []reference.CanonicalRecord
	Duplicates []Duplicate
	Stats      Stats
}

// DuplicateRecords returns the duplicate rows without their reasons.
func (r Result) DuplicateRecords() []reference.Record {
	out := make([]reference.Record, len(r.Duplicates))
	for i, d := range r.Duplicates {
		out[i] = d.Record
	}
	return out
}

type keyed struct {
	rec reference.Record
	key Key
}

// Partition merges WOS rows then PsycInfo rows and splits them into canonical
// records and duplicates.
//
// Rows are stably sorted by DOI (rows without one last) and then by secondary
// key, so the first row of each group in that order is the one kept. A row
// with a DOI is only ever compared with other DOI rows, and a row without one
// only with other DOI-less rows. Canonical records are numbered 1..N in
// sorted order. Partition is deterministic: identical inputs give identical
// results.
func Partition(wos, psyc []reference.Record) Result {
	rows := make([]keyed, 0, len(wos)+len(psyc))
	for _, r := range wos {
		rows = append(rows, keyed{rec: r, key: KeyOf(r)})
	}
	for _, r := range psyc {
		rows = append(rows, keyed{rec: r, key: KeyOf(r)})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].key, rows[j].key
		if a.HasDOI() != b.HasDOI() {
			return a.HasDOI()
		}
		if a.DOINorm != b.DOINorm {
			return a.DOINorm < b.DOINorm
		}
		return a.SecondaryKey < b.SecondaryKey
	})

	res := Result{
		Canonical:  make([]reference.CanonicalRecord, 0, len(rows)),
		Duplicates: []Duplicate{},
		Stats: Stats{
			Input:               map[reference.SourceDB]int{},
			CanonicalBySourceDB: map[reference.SourceDB]int{},
		},
	}
	for _, r := range wos {
		res.Stats.Input[r.SourceDB]++
	}
	for _, r := range psyc {
		res.Stats.Input[r.SourceDB]++
	}

	seenDOI := make(map[string]bool)
	seenKey := make(map[string]bool)
	for _, row := range rows {
		if row.key.HasDOI() {
			if seenDOI[row.key.DOINorm] {
				res.Duplicates = append(res.Duplicates, Duplicate{Record: row.rec, Reason: ByDOI})
				res.Stats.DuplicatesByDOI++
				continue
			}
			seenDOI[row.key.DOINorm] = true
		} else {
			// All-empty rows share the key "||" and collapse into one record.
			if seenKey[row.key.SecondaryKey] {
				res.Duplicates = append(res.Duplicates, Duplicate{Record: row.rec, Reason: BySecondaryKey})
				res.Stats.DuplicatesByKey++
				continue
			}
			seenKey[row.key.SecondaryKey] = true
		}

		res.Canonical = append(res.Canonical, reference.CanonicalRecord{
			PaperID: len(res.Canonical) + 1,
			Record:  row.rec,
		})
		res.Stats.CanonicalBySourceDB[row.rec.SourceDB]++
	}
	res.Stats.Canonical = len(res.Canonical)

	return res
}
