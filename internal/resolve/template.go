package resolve

import (
	"strconv"
	"strings"

	"github.com/matsen/litmerge/internal/crossref"
	"github.com/matsen/litmerge/internal/normalize"
	"github.com/matsen/litmerge/internal/reference"
	"github.com/matsen/litmerge/internal/source"
	"github.com/matsen/litmerge/internal/zotero"
)

// FromWork builds an item template from registry metadata. collection may be
// empty, in which case the item lands in the library root.
func FromWork(w *crossref.Work, collection string) zotero.Item {
	item := zotero.NewJournalArticle()
	item.Title = w.FirstTitle()

	for _, p := range w.Author {
		c := zotero.Creator{CreatorType: "author"}
		switch {
		case p.Given != "" && p.Family != "":
			c.FirstName, c.LastName = p.Given, p.Family
		case p.Family != "":
			c.LastName = p.Family
		case p.Name != "":
			c.FirstName, c.LastName = reference.SplitName(p.Name)
		default:
			continue
		}
		item.Creators = append(item.Creators, c)
	}

	item.PublicationTitle = w.Journal()
	if y, ok := w.Year(); ok {
		item.Date = strconv.Itoa(y)
	}
	item.Volume = w.Volume
	item.Issue = w.Issue
	item.Pages = w.Page
	item.DOI = w.DOI
	item.AbstractNote = w.PlainAbstract()
	if collection != "" {
		item.Collections = []string{collection}
	}
	return item
}

// FromRaw builds an item template from a row of one of the source exports.
// Authors are parsed according to the export's own name format.
func FromRaw(r source.RawRecord, collection string) zotero.Item {
	s := r.Schema
	item := zotero.NewJournalArticle()
	item.Title = r.Get(s.Title)

	for _, a := range s.ParseAuthors(r.Get(s.Authors)) {
		item.Creators = append(item.Creators, zotero.Creator{
			CreatorType: "author",
			FirstName:   a.First,
			LastName:    a.Last,
		})
	}

	item.PublicationTitle = r.Get(s.Journal)
	item.Date = normalize.Year(r.Get(s.Year))
	item.Volume = cleanNumber(r.Get(s.Volume))
	item.Issue = cleanNumber(r.Get(s.Issue))
	item.Pages = pages(r)
	if !normalize.IsMissing(normalize.KeyText(r.Get(s.DOI))) {
		item.DOI = r.Get(s.DOI)
	}
	item.AbstractNote = r.Get(s.Abstract)
	if collection != "" {
		item.Collections = []string{collection}
	}
	return item
}

// pages returns the page range, joining start and end pages when the export
// splits them.
func pages(r source.RawRecord) string {
	s := r.Schema
	if p := r.Get(s.Pages); p != "" {
		return p
	}
	start, end := cleanNumber(r.Get(s.StartPage)), cleanNumber(r.Get(s.EndPage))
	switch {
	case start != "" && end != "":
		return start + "-" + end
	case start != "":
		return start
	}
	return end
}

// cleanNumber undoes float rendering of integer cells ("12.0" -> "12").
func cleanNumber(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, normalize.NullMarker) {
		return ""
	}
	if n, ok := normalize.YearNumeric(v, 0); ok && strings.Contains(v, ".") {
		return strconv.Itoa(n)
	}
	return v
}
