package crossref

import (
	"regexp"
	"strings"
)

// Work is the subset of a Crossref work record litmerge uses.
type Work struct {
	DOI            string    `json:"DOI"`
	Title          []string  `json:"title"`
	Author         []Person  `json:"author"`
	ContainerTitle []string  `json:"container-title"`
	Issued         DateParts `json:"issued"`
	Volume         string    `json:"volume"`
	Issue          string    `json:"issue"`
	Page           string    `json:"page"`
	Abstract       string    `json:"abstract"`
}

// Person is one contributor. Some records carry only a combined Name.
type Person struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}

// DateParts is Crossref's partial date, e.g. [[2021, 3, 1]] or [[2021]].
// Parts may be null.
type DateParts struct {
	DateParts [][]*int `json:"date-parts"`
}

// Year returns the first date part when present.
func (d DateParts) Year() (int, bool) {
	if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 || d.DateParts[0][0] == nil {
		return 0, false
	}
	return *d.DateParts[0][0], true
}

// FirstTitle returns the primary title, or "".
func (w *Work) FirstTitle() string {
	if len(w.Title) == 0 {
		return ""
	}
	return w.Title[0]
}

// Journal returns the primary container title, or "".
func (w *Work) Journal() string {
	if len(w.ContainerTitle) == 0 {
		return ""
	}
	return w.ContainerTitle[0]
}

// Year returns the issued year when present.
func (w *Work) Year() (int, bool) {
	return w.Issued.Year()
}

var markupTag = regexp.MustCompile(`<[^<]+?>`)

// PlainAbstract returns the abstract with JATS markup removed.
func (w *Work) PlainAbstract() string {
	return strings.TrimSpace(markupTag.ReplaceAllString(w.Abstract, ""))
}

type workResponse struct {
	Status  string `json:"status"`
	Message *Work  `json:"message"`
}
