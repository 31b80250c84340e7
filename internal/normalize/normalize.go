// Package normalize canonicalizes free-text and date cells into comparable keys.
//
// Every join and deduplication key in litmerge is built from these forms, so two
// cells compare equal exactly when their normalized forms are equal. Missing
// cells are represented by the empty string throughout.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// NullMarker is the string form a missing spreadsheet cell takes after naive
// stringification. Batch normalization maps it back to a missing value.
const NullMarker = "nan"

var fourDigits = regexp.MustCompile(`[0-9]{4}`)

// Text returns the lower-cased, whitespace-trimmed form of a cell.
// A missing cell yields "".
func Text(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// TextColumn applies Text to every value of a column. Values that normalize to
// the literal NullMarker are reported as missing so that stringified nulls
// never join with each other.
func TextColumn(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = KeyText(v)
	}
	return out
}

// KeyText is the column form of Text for a single cell, used wherever a
// value becomes part of a join key.
func KeyText(v string) string {
	n := Text(v)
	if n == NullMarker {
		return ""
	}
	return n
}

// MissingDOI sorts after every real DOI and never equals one.
const MissingDOI = "__missing_doi__"

// DOIKey returns the normalized DOI, or MissingDOI when there is none.
func DOIKey(doi string) string {
	if n := KeyText(doi); n != "" {
		return n
	}
	return MissingDOI
}

// SecondaryKey joins normalized title, authors and year with "|". It is the
// identity of a record that has no DOI. year is already in string form and
// empty when unknown.
func SecondaryKey(title, authors, year string) string {
	return KeyText(title) + "|" + KeyText(authors) + "|" + year
}

// IsMissing reports whether a normalized cell is missing.
func IsMissing(v string) bool {
	return v == ""
}

// Year extracts a four-digit year from a free-form cell.
//
// It returns the first run of four consecutive digits anywhere in the value
// ("Published 2019-03-01" gives "2019"). Values without such a run are
// returned trimmed but otherwise unchanged, and a missing cell gives "".
func Year(v string) string {
	if strings.TrimSpace(v) == "" {
		return ""
	}
	if m := fourDigits.FindString(v); m != "" {
		return m
	}
	return strings.TrimSpace(v)
}

// YearNumeric coerces a year or date cell to an integer year.
//
// The first prefixLen characters of the value are parsed; use 4 for columns that
// hold bare years or ISO dates. A prefixLen of zero or less parses the whole
// value, which also accepts float renderings such as "2021.0". Malformed input
// never fails: the boolean result is false and the year is zero.
func YearNumeric(v string, prefixLen int) (int, bool) {
	s := v
	if prefixLen > 0 {
		r := []rune(s)
		if len(r) > prefixLen {
			s = string(r[:prefixLen])
		}
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, NullMarker) {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

// NullableYear is the result of coercing one cell of a year column.
type NullableYear struct {
	Value int
	Valid bool
}

// YearNumericColumn applies YearNumeric to every value of a column.
func YearNumericColumn(values []string, prefixLen int) []NullableYear {
	out := make([]NullableYear, len(values))
	for i, v := range values {
		n, ok := YearNumeric(v, prefixLen)
		out[i] = NullableYear{Value: n, Valid: ok}
	}
	return out
}
