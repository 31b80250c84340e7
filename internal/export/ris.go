// Package export renders canonical records as citation-exchange text.
package export

import (
	"strconv"
	"strings"

	"github.com/matsen/litmerge/internal/reference"
)

// RISEnd terminates every RIS entry.
const RISEnd = "ER  - "

// ToRIS converts a record to a RIS journal-article entry.
func ToRIS(rec reference.Record) string {
	lines := []string{"TY  - JOUR"}

	for _, a := range strings.Split(rec.Authors, ";") {
		if a = strings.TrimSpace(a); a != "" {
			lines = append(lines, "AU  - "+a)
		}
	}
	if rec.ArticleTitle != "" {
		lines = append(lines, "TI  - "+rec.ArticleTitle)
	}
	if rec.SourceTitle != "" {
		lines = append(lines, "T2  - "+rec.SourceTitle)
	}
	// PY only for a known year
	if rec.Year.Valid {
		lines = append(lines, "PY  - "+strconv.Itoa(rec.Year.Value))
	}
	if rec.DOI != "" {
		lines = append(lines, "DO  - "+rec.DOI)
	}
	lines = append(lines, RISEnd)
	return strings.Join(lines, "\n")
}

// ToRISList converts records to RIS, separating entries with a blank line.
func ToRISList(recs []reference.CanonicalRecord) string {
	entries := make([]string, len(recs))
	for i, rec := range recs {
		entries[i] = ToRIS(rec.Record)
	}
	return strings.Join(entries, "\n\n")
}
