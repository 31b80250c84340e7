package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matsen/litmerge/internal/reference"
)

func sampleCanonical() []reference.CanonicalRecord {
	return []reference.CanonicalRecord{
		{PaperID: 1, Record: reference.Record{
			Authors:      "Smith, J; Doe, A",
			ArticleTitle: "Leadership, Identity and \"Voice\"",
			SourceTitle:  "J Appl Psych",
			Year:         reference.NewYear(2020),
			DOI:          "10.1037/APL0001",
			SourceDB:     reference.SourceWOS,
		}},
		{PaperID: 2, Record: reference.Record{
			Authors:      "Kim, H",
			ArticleTitle: "No Year",
			SourceDB:     reference.SourcePsycInfo,
		}},
	}
}

func TestCanonical_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merged_papers.csv")
	want := sampleCanonical()
	if err := SaveCanonical(path, want); err != nil {
		t.Fatalf("SaveCanonical() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	first := strings.SplitN(string(data), "\n", 2)[0]
	if first != "paper_id,Authors,Article Title,Source Title,Publication Year,DOI,Source DB" {
		t.Errorf("header = %q", first)
	}

	got, err := LoadCanonical(path)
	if err != nil {
		t.Fatalf("LoadCanonical() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadCanonical() = %+v, want %+v", got, want)
	}
}

func TestReadCanonical_FloatYear(t *testing.T) {
	data := "paper_id,Authors,Article Title,Source Title,Publication Year,DOI,Source DB\n" +
		"1,\"Lee, K\",T,J,2021.0,,PsycInfo\n"
	recs, err := ReadCanonical(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadCanonical() error = %v", err)
	}
	if recs[0].Year != reference.NewYear(2021) {
		t.Errorf("Year = %+v, want 2021", recs[0].Year)
	}
}

func TestReadCanonical_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"missing column", "paper_id,Authors\n1,A\n"},
		{"bad paper_id", "paper_id,Authors,Article Title,Source Title,Publication Year,DOI,Source DB\nx,A,T,J,2020,,WOS\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCanonical(strings.NewReader(tt.data))
			if !errors.Is(err, ErrMalformedTable) {
				t.Errorf("ReadCanonical() error = %v, want ErrMalformedTable", err)
			}
		})
	}
}

func TestDuplicates_RoundTrip(t *testing.T) {
	var want []reference.Record
	for _, c := range sampleCanonical() {
		want = append(want, c.Record)
	}

	var buf bytes.Buffer
	if err := WriteDuplicates(&buf, want); err != nil {
		t.Fatalf("WriteDuplicates() error = %v", err)
	}
	if strings.HasPrefix(buf.String(), "paper_id") {
		t.Error("duplicates table should not carry paper_id")
	}

	got, err := ReadDuplicates(&buf)
	if err != nil {
		t.Fatalf("ReadDuplicates() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadDuplicates() = %+v, want %+v", got, want)
	}
}

func TestLoadCanonical_Missing(t *testing.T) {
	_, err := LoadCanonical(filepath.Join(t.TempDir(), "absent.csv"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadCanonical(absent) error = %v, want os.ErrNotExist", err)
	}
}
