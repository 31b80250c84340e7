package source

import (
	"github.com/matsen/litmerge/internal/normalize"
	"github.com/matsen/litmerge/internal/reference"
)

// LookupTable indexes the rows of one export by normalized DOI and by
// secondary key. When several rows share a key the first row in file order
// wins.
type LookupTable struct {
	table *Table
	byDOI map[string]int
	byKey map[string]int
}

// NewLookupTable builds both indexes in a single pass over t.
//
// Rows without a DOI are left out of the DOI index. A row joins the secondary
// index only when its title, authors and year are all present, so partially
// empty keys such as "||2020" never match unrelated records.
func NewLookupTable(t *Table) *LookupTable {
	lt := &LookupTable{
		table: t,
		byDOI: make(map[string]int),
		byKey: make(map[string]int),
	}
	for i := 0; i < t.Len(); i++ {
		r := t.Record(i)
		if doi := normalize.KeyText(r.Get(t.Schema.DOI)); doi != "" {
			if _, ok := lt.byDOI[doi]; !ok {
				lt.byDOI[doi] = i
			}
		}
		if key, ok := r.secondaryKey(); ok {
			if _, seen := lt.byKey[key]; !seen {
				lt.byKey[key] = i
			}
		}
	}
	return lt
}

// secondaryKey returns the row's key and whether all of its parts are present.
func (r RawRecord) secondaryKey() (string, bool) {
	title := normalize.KeyText(r.Get(r.Schema.Title))
	authors := normalize.KeyText(r.Get(r.Schema.Authors))
	y, ok := normalize.YearNumeric(r.Get(r.Schema.Year), r.Schema.YearPrefix)
	if title == "" || authors == "" || !ok {
		return "", false
	}
	return normalize.SecondaryKey(title, authors, reference.NewYear(y).String()), true
}

// Source returns the export tag of the indexed table.
func (lt *LookupTable) Source() reference.SourceDB {
	return lt.table.Schema.DB
}

// FindByDOI returns the first row whose normalized DOI equals doi.
func (lt *LookupTable) FindByDOI(doi string) (RawRecord, bool) {
	if lt == nil || doi == "" || doi == normalize.MissingDOI {
		return RawRecord{}, false
	}
	i, ok := lt.byDOI[doi]
	if !ok {
		return RawRecord{}, false
	}
	return lt.table.Record(i), true
}

// FindByKey returns the first row whose secondary key equals key.
func (lt *LookupTable) FindByKey(key string) (RawRecord, bool) {
	if lt == nil || key == "" {
		return RawRecord{}, false
	}
	i, ok := lt.byKey[key]
	if !ok {
		return RawRecord{}, false
	}
	return lt.table.Record(i), true
}

// Lookups holds the indexes of both exports.
type Lookups struct {
	WOS      *LookupTable
	PsycInfo *LookupTable
}

// NewLookups indexes both exports. Either table may be nil.
func NewLookups(wos, psyc *Table) Lookups {
	var l Lookups
	if wos != nil {
		l.WOS = NewLookupTable(wos)
	}
	if psyc != nil {
		l.PsycInfo = NewLookupTable(psyc)
	}
	return l
}

// Find locates the raw row behind a canonical record. The search order is
// DOI in WOS, DOI in PsycInfo, then secondary key in WOS and PsycInfo.
// A record missing any of title, authors or year is never matched by key.
func (l Lookups) Find(rec reference.Record) (RawRecord, bool) {
	doi := normalize.DOIKey(rec.DOI)
	if r, ok := l.WOS.FindByDOI(doi); ok {
		return r, true
	}
	if r, ok := l.PsycInfo.FindByDOI(doi); ok {
		return r, true
	}

	title := normalize.KeyText(rec.ArticleTitle)
	authors := normalize.KeyText(rec.Authors)
	if title == "" || authors == "" || !rec.Year.Valid {
		return RawRecord{}, false
	}
	key := normalize.SecondaryKey(title, authors, rec.Year.String())
	if r, ok := l.WOS.FindByKey(key); ok {
		return r, true
	}
	return l.PsycInfo.FindByKey(key)
}
