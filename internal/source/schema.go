// Package source maps the two literature exports into the common record schema.
package source

import (
	"github.com/matsen/litmerge/internal/reference"
)

// AuthorStyle selects how an export writes its author list.
type AuthorStyle int

const (
	// AuthorsLastFirst is "Last, First; Last, First".
	AuthorsLastFirst AuthorStyle = iota
	// AuthorsMixed entries are either "Last, First" or "First Last".
	AuthorsMixed
)

// Schema is the static column layout of one export.
type Schema struct {
	DB reference.SourceDB

	// Required columns, by their name in the export.
	Authors string
	Title   string
	Journal string
	Year    string
	DOI     string

	// YearPrefix is how many leading characters of the year cell hold the
	// year; zero parses the whole cell.
	YearPrefix int

	// Optional columns used only when building an import template.
	Volume    string
	Issue     string
	Pages     string
	StartPage string
	EndPage   string
	Abstract  string

	AuthorStyle AuthorStyle
}

// WOS is the citation index export layout.
var WOS = Schema{
	DB:          reference.SourceWOS,
	Authors:     "Authors",
	Title:       "Article Title",
	Journal:     "Source Title",
	Year:        "Publication Year",
	DOI:         "DOI",
	YearPrefix:  0,
	Volume:      "Volume",
	Issue:       "Issue",
	StartPage:   "Start Page",
	EndPage:     "End Page",
	Abstract:    "Abstract",
	AuthorStyle: AuthorsLastFirst,
}

// PsycInfo is the psychology-literature export layout. Its publication
// column holds full dates.
var PsycInfo = Schema{
	DB:          reference.SourcePsycInfo,
	Authors:     "Authors",
	Title:       "title",
	Journal:     "source",
	Year:        "publicationDate",
	DOI:         "doi",
	YearPrefix:  4,
	Volume:      "volume",
	Issue:       "issue",
	Pages:       "pages",
	Abstract:    "abstract",
	AuthorStyle: AuthorsMixed,
}

// ForSource returns the schema for a source tag.
func ForSource(db reference.SourceDB) (Schema, bool) {
	switch db {
	case reference.SourceWOS:
		return WOS, true
	case reference.SourcePsycInfo:
		return PsycInfo, true
	}
	return Schema{}, false
}

// required lists the columns that must be present for normalization.
func (s Schema) required() []string {
	return []string{s.Authors, s.Title, s.Journal, s.Year, s.DOI}
}

// ParseAuthors splits an author cell according to the export's style.
func (s Schema) ParseAuthors(cell string) []reference.Author {
	if s.AuthorStyle == AuthorsMixed {
		return reference.ParseMixed(cell)
	}
	return reference.ParseLastFirst(cell)
}
