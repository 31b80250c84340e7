package reference

import "strings"

// Author is one parsed author name.
type Author struct {
	First string // First/given name(s)
	Last  string // Last/family name
}

// Common name suffixes to keep with the last name.
var nameSuffixes = map[string]bool{
	"jr":   true,
	"jr.":  true,
	"sr":   true,
	"sr.":  true,
	"ii":   true,
	"iii":  true,
	"iv":   true,
	"phd":  true,
	"ph.d": true,
	"md":   true,
	"m.d":  true,
}

// SplitAuthorList splits a semicolon-joined author string into trimmed,
// non-empty entries.
func SplitAuthorList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseLastFirst parses "Last, First" names. Entries without a comma are kept
// whole as the last name.
func ParseLastFirst(s string) []Author {
	var authors []Author
	for _, entry := range SplitAuthorList(s) {
		if last, first, ok := strings.Cut(entry, ","); ok {
			authors = append(authors, Author{First: strings.TrimSpace(first), Last: strings.TrimSpace(last)})
			continue
		}
		authors = append(authors, Author{Last: entry})
	}
	return authors
}

// ParseMixed parses entries that are either "Last, First" or "First Last".
// A single word is kept as the last name.
func ParseMixed(s string) []Author {
	var authors []Author
	for _, entry := range SplitAuthorList(s) {
		if last, first, ok := strings.Cut(entry, ","); ok {
			authors = append(authors, Author{First: strings.TrimSpace(first), Last: strings.TrimSpace(last)})
			continue
		}
		if i := strings.LastIndex(entry, " "); i >= 0 {
			authors = append(authors, Author{
				First: strings.TrimSpace(entry[:i]),
				Last:  strings.TrimSpace(entry[i+1:]),
			})
			continue
		}
		authors = append(authors, Author{Last: entry})
	}
	return authors
}

// SplitName splits a full "First Middle Last" name into first and last name.
// Handles common suffixes (Jr, Sr, II, III, IV, PhD, MD).
//
// Known limitations:
// - Multi-part surnames (von Neumann, van der Waals) split incorrectly
// - Non-Western name formats may not be handled correctly
func SplitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	}

	if nameSuffixes[strings.ToLower(parts[len(parts)-1])] && len(parts) > 2 {
		last = parts[len(parts)-2] + " " + parts[len(parts)-1]
		first = strings.Join(parts[:len(parts)-2], " ")
		return first, last
	}
	return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
}
