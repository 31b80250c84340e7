package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matsen/litmerge/internal/reference"
	"github.com/matsen/litmerge/internal/sheet"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func mustSheet(t *testing.T, content string) *sheet.Table {
	t.Helper()
	tbl, err := sheet.ReadCSV(strings.NewReader(content))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	return tbl
}

const wosCSV = `Authors,Article Title,Source Title,Publication Year,DOI,Volume,Start Page,End Page
"Smith, J; Doe, A",Leadership Identity,J Appl Psych,2020,10.1037/APL0001,12,1,20
"Lee, K",Team Climate,Group Org Mgmt,2019.0,,4,,
"Lee, K",Team Climate Again,Group Org Mgmt,2019,10.1037/apl0001,4,,
`

const psycCSV = `Authors,title,source,publicationDate,doi,pages
"Kim, H; Maria Garcia",Team Climate,Group Org Mgmt,2019-05-01,10.2/PSY,33-40
Park S,No Year Paper,Some Journal,,,
`

func TestLoad(t *testing.T) {
	tbl, err := Load(writeCSV(t, "wos.csv", wosCSV), WOS)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if tbl.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", tbl.Len())
	}

	recs := tbl.Conform()
	want := reference.Record{
		Authors:      "Smith, J; Doe, A",
		ArticleTitle: "Leadership Identity",
		SourceTitle:  "J Appl Psych",
		Year:         reference.NewYear(2020),
		DOI:          "10.1037/APL0001",
		SourceDB:     reference.SourceWOS,
	}
	if recs[0] != want {
		t.Errorf("Conform()[0] = %+v, want %+v", recs[0], want)
	}
	if recs[1].Year != reference.NewYear(2019) {
		t.Errorf("Conform()[1].Year = %+v, want 2019 from \"2019.0\"", recs[1].Year)
	}
	if recs[1].DOI != "" {
		t.Errorf("Conform()[1].DOI = %q, want empty", recs[1].DOI)
	}
}

func TestLoad_PsycInfoDates(t *testing.T) {
	tbl, err := Load(writeCSV(t, "psyc.csv", psycCSV), PsycInfo)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	recs := tbl.Conform()
	if recs[0].Year != reference.NewYear(2019) {
		t.Errorf("Year = %+v, want 2019", recs[0].Year)
	}
	if recs[1].Year.Valid {
		t.Errorf("Year = %+v, want null", recs[1].Year)
	}
	if recs[0].SourceDB != reference.SourcePsycInfo {
		t.Errorf("SourceDB = %q", recs[0].SourceDB)
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.xls"), WOS)
	if !errors.Is(err, ErrMissingSourceFile) {
		t.Errorf("Load(absent) error = %v, want ErrMissingSourceFile", err)
	}

	_, err = Load(writeCSV(t, "bad.csv", "Authors,Title\nA,B\n"), WOS)
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("Load(bad schema) error = %v, want ErrSchemaMismatch", err)
	}
	if !strings.Contains(err.Error(), "Article Title") {
		t.Errorf("error %q should name the missing column", err)
	}
}

func TestRawRecord_Get(t *testing.T) {
	tbl, err := FromSheet("wos.csv", mustSheet(t, wosCSV), WOS)
	if err != nil {
		t.Fatal(err)
	}
	r := tbl.Record(0)
	if got := r.Get("Start Page"); got != "1" {
		t.Errorf("Get(Start Page) = %q", got)
	}
	if got := r.Get("Abstract"); got != "" {
		t.Errorf("Get(absent column) = %q, want empty", got)
	}
	if got := r.Get(""); got != "" {
		t.Errorf("Get(\"\") = %q, want empty", got)
	}
}

func TestSchema_ParseAuthors(t *testing.T) {
	got := PsycInfo.ParseAuthors("Kim, H; Maria Garcia")
	if len(got) != 2 || got[1].First != "Maria" || got[1].Last != "Garcia" {
		t.Errorf("PsycInfo.ParseAuthors() = %+v", got)
	}
	got = WOS.ParseAuthors("Smith, J; Doe, A")
	if len(got) != 2 || got[0].Last != "Smith" || got[0].First != "J" {
		t.Errorf("WOS.ParseAuthors() = %+v", got)
	}
}

func TestLookups_Find(t *testing.T) {
	wos, err := FromSheet("wos.csv", mustSheet(t, wosCSV), WOS)
	if err != nil {
		t.Fatal(err)
	}
	psyc, err := FromSheet("psyc.csv", mustSheet(t, psycCSV), PsycInfo)
	if err != nil {
		t.Fatal(err)
	}
	l := NewLookups(wos, psyc)

	tests := []struct {
		name    string
		rec     reference.Record
		wantOK  bool
		wantDB  reference.SourceDB
		wantRow int
	}{
		{
			name:    "doi first match wins",
			rec:     reference.Record{DOI: " 10.1037/apl0001 "},
			wantOK:  true,
			wantDB:  reference.SourceWOS,
			wantRow: 0,
		},
		{
			name:    "doi only in psycinfo",
			rec:     reference.Record{DOI: "10.2/psy"},
			wantOK:  true,
			wantDB:  reference.SourcePsycInfo,
			wantRow: 0,
		},
		{
			name: "secondary key in wos",
			rec: reference.Record{
				Authors: "lee, k", ArticleTitle: "TEAM CLIMATE", Year: reference.NewYear(2019),
			},
			wantOK:  true,
			wantDB:  reference.SourceWOS,
			wantRow: 1,
		},
		{
			name:   "missing year never matches by key",
			rec:    reference.Record{Authors: "Park S", ArticleTitle: "No Year Paper"},
			wantOK: false,
		},
		{
			name:   "unknown",
			rec:    reference.Record{DOI: "10.9/none", Authors: "X", ArticleTitle: "Y", Year: reference.NewYear(2000)},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := l.Find(tt.rec)
			if ok != tt.wantOK {
				t.Fatalf("Find() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if r.Schema.DB != tt.wantDB || r.Row() != tt.wantRow {
				t.Errorf("Find() = (%s, row %d), want (%s, row %d)",
					r.Schema.DB, r.Row(), tt.wantDB, tt.wantRow)
			}
		})
	}
}

func TestLookups_NilTables(t *testing.T) {
	var l Lookups
	if _, ok := l.Find(reference.Record{DOI: "10.1/x"}); ok {
		t.Error("Find() on empty lookups should not match")
	}
}
