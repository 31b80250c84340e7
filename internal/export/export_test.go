package export

import (
	"strings"
	"testing"

	"github.com/matsen/litmerge/internal/reference"
	"github.com/matsen/litmerge/internal/storage"
)

func TestToRIS(t *testing.T) {
	rec := reference.Record{
		Authors:      "Smith, J; Doe, A; ",
		ArticleTitle: "Leadership Identity",
		SourceTitle:  "J Appl Psych",
		Year:         reference.NewYear(2020),
		DOI:          "10.1037/apl0001",
		SourceDB:     reference.SourceWOS,
	}

	want := strings.Join([]string{
		"TY  - JOUR",
		"AU  - Smith, J",
		"AU  - Doe, A",
		"TI  - Leadership Identity",
		"T2  - J Appl Psych",
		"PY  - 2020",
		"DO  - 10.1037/apl0001",
		"ER  - ",
	}, "\n")
	if got := ToRIS(rec); got != want {
		t.Errorf("ToRIS() =\n%s\nwant\n%s", got, want)
	}
}

func TestToRIS_OptionalFields(t *testing.T) {
	got := ToRIS(reference.Record{})
	if got != "TY  - JOUR\nER  - " {
		t.Errorf("ToRIS(empty) = %q", got)
	}
}

func TestToRIS_YearFromCanonicalFile(t *testing.T) {
	const canonical = "paper_id,Authors,Article Title,Source Title,Publication Year,DOI,Source DB\n" +
		"1,\"Smith, J\",A,J,2021.0,10.1/a,WOS\n" +
		"2,\"Lee, K\",B,J,,,PsycInfo\n"

	recs, err := storage.ReadCanonical(strings.NewReader(canonical))
	if err != nil {
		t.Fatalf("ReadCanonical() error = %v", err)
	}

	tests := []struct {
		name   string
		idx    int
		wantPY string
	}{
		{"float year", 0, "PY  - 2021"},
		{"null year", 1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToRIS(recs[tt.idx].Record)
			if tt.wantPY == "" {
				if strings.Contains(got, "PY  -") {
					t.Errorf("ToRIS() has a PY line for a null year:\n%s", got)
				}
				return
			}
			if !strings.Contains(got, tt.wantPY+"\n") {
				t.Errorf("ToRIS() missing %q:\n%s", tt.wantPY, got)
			}
		})
	}
}

func TestToRISList(t *testing.T) {
	recs := []reference.CanonicalRecord{
		{PaperID: 1, Record: reference.Record{ArticleTitle: "A"}},
		{PaperID: 2, Record: reference.Record{ArticleTitle: "B"}},
	}
	got := ToRISList(recs)
	if strings.Count(got, "TY  - JOUR") != 2 {
		t.Errorf("ToRISList() entries = %d, want 2", strings.Count(got, "TY  - JOUR"))
	}
	if !strings.Contains(got, RISEnd+"\n\nTY  - JOUR") {
		t.Errorf("entries not separated by a blank line:\n%s", got)
	}
	if strings.HasSuffix(got, "\n") {
		t.Errorf("ToRISList() has a trailing newline")
	}
	if ToRISList(nil) != "" {
		t.Errorf("ToRISList(nil) = %q, want empty", ToRISList(nil))
	}
}

func TestToBibTeX_BasicArticle(t *testing.T) {
	rec := reference.CanonicalRecord{
		PaperID: 7,
		Record: reference.Record{
			Authors:      "Smith, John; Jane Doe",
			ArticleTitle: "Test Paper Title",
			SourceTitle:  "Nature",
			Year:         reference.NewYear(2026),
			DOI:          "10.1234/test",
		},
	}

	got := ToBibTeX(rec)

	if !strings.HasPrefix(got, "@article{paper7,") {
		t.Errorf("ToBibTeX() should start with @article{paper7, got:\n%s", got)
	}
	if !strings.Contains(got, `author = {Smith, John and Doe, Jane}`) {
		t.Errorf("ToBibTeX() should contain properly formatted authors, got:\n%s", got)
	}
	if !strings.Contains(got, `title = {Test Paper Title}`) {
		t.Errorf("ToBibTeX() should contain title, got:\n%s", got)
	}
	if !strings.Contains(got, `journal = {Nature}`) {
		t.Errorf("ToBibTeX() should contain journal, got:\n%s", got)
	}
	if !strings.Contains(got, `year = {2026}`) {
		t.Errorf("ToBibTeX() should contain year, got:\n%s", got)
	}
	if !strings.Contains(got, `doi = {10.1234/test}`) {
		t.Errorf("ToBibTeX() should contain DOI, got:\n%s", got)
	}
	if !strings.HasSuffix(got, "}\n") {
		t.Errorf("ToBibTeX() should end with }\\n, got:\n%s", got)
	}
}

func TestToBibTeX_NoYearNoDOI(t *testing.T) {
	got := ToBibTeX(reference.CanonicalRecord{PaperID: 1, Record: reference.Record{ArticleTitle: "T"}})
	if strings.Contains(got, "year =") || strings.Contains(got, "doi =") || strings.Contains(got, "author =") {
		t.Errorf("ToBibTeX() should omit missing fields, got:\n%s", got)
	}
}

func TestToBibTeX_Proceedings(t *testing.T) {
	rec := reference.CanonicalRecord{PaperID: 2, Record: reference.Record{
		ArticleTitle: "Conf Paper",
		SourceTitle:  "Proceedings of the Annual Meeting",
	}}
	got := ToBibTeX(rec)
	if !strings.HasPrefix(got, "@inproceedings{paper2,") {
		t.Errorf("ToBibTeX() should be inproceedings, got:\n%s", got)
	}
	if !strings.Contains(got, "booktitle = {Proceedings of the Annual Meeting}") {
		t.Errorf("ToBibTeX() should use booktitle, got:\n%s", got)
	}
}

func TestEscapeLatex(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Hello World", "Hello World"},
		{"A & B", `A \& B`},
		{"100%", `100\%`},
		{"$x$", `\$x\$`},
		{"#1", `\#1`},
		{"a_b", `a\_b`},
		{"{x}", `\{x\}`},
		{"~", `\textasciitilde{}`},
		{"^", `\textasciicircum{}`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := escapeLatex(tt.input); got != tt.want {
				t.Errorf("escapeLatex(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestToBibTeXList(t *testing.T) {
	recs := []reference.CanonicalRecord{
		{PaperID: 1, Record: reference.Record{ArticleTitle: "First"}},
		{PaperID: 2, Record: reference.Record{ArticleTitle: "Second"}},
	}
	got := ToBibTeXList(recs)
	if !strings.Contains(got, "@article{paper1,") || !strings.Contains(got, "@article{paper2,") {
		t.Errorf("ToBibTeXList() should contain both entries, got:\n%s", got)
	}
}
