package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/matsen/litmerge/internal/config"
	"github.com/matsen/litmerge/internal/reference"
	"github.com/matsen/litmerge/internal/sheet"
	"github.com/matsen/litmerge/internal/source"
)

func TestLoadExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing source", fmt.Errorf("%w: wos.xls", source.ErrMissingSourceFile), ExitMissingSource},
		{"missing output", fmt.Errorf("opening merged_papers.csv: %w", os.ErrNotExist), ExitMissingSource},
		{"schema", fmt.Errorf("%w: lacks DOI", source.ErrSchemaMismatch), ExitSchemaMismatch},
		{"other", errors.New("boom"), ExitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := loadExitCode(tt.err); got != tt.want {
				t.Errorf("loadExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRenderExport(t *testing.T) {
	recs := []reference.CanonicalRecord{{PaperID: 1, Record: reference.Record{ArticleTitle: "A"}}}

	ris, err := renderExport("ris", recs)
	if err != nil || !strings.HasPrefix(ris, "TY  - JOUR") {
		t.Errorf("renderExport(ris) = %q, %v", ris, err)
	}
	bib, err := renderExport("bibtex", recs)
	if err != nil || !strings.HasPrefix(bib, "@article{paper1,") {
		t.Errorf("renderExport(bibtex) = %q, %v", bib, err)
	}
	if _, err := renderExport("endnote", recs); err == nil {
		t.Error("renderExport(endnote) should fail")
	}
}

func TestPreviewSheet(t *testing.T) {
	tbl, err := sheet.ReadCSV(strings.NewReader("a,b\n1,2\n3\n5,6\n"))
	if err != nil {
		t.Fatal(err)
	}

	p := previewSheet("WOS", "wos.csv", tbl, 2)
	if p.Rows != 3 || len(p.Head) != 2 {
		t.Fatalf("preview = %+v", p)
	}
	if p.Head[1][0] != "3" || p.Head[1][1] != "" {
		t.Errorf("short row not padded: %v", p.Head[1])
	}

	if p := previewSheet("WOS", "wos.csv", tbl, 10); len(p.Head) != 3 {
		t.Errorf("head longer than table: %d rows", len(p.Head))
	}
}

func newTestPrompter(input string) (*prompter, *strings.Builder) {
	var out strings.Builder
	return &prompter{in: bufio.NewReader(strings.NewReader(input)), out: &out}, &out
}

func TestFillCredentials(t *testing.T) {
	tests := []struct {
		name    string
		creds   config.Credentials
		input   string
		wantErr error
		wantID  string
	}{
		{
			name:   "prompts for both",
			creds:  config.Credentials{LibraryType: "user"},
			input:  "12345\nabcdefghijk\n",
			wantID: "12345",
		},
		{
			name:   "environment wins",
			creds:  config.Credentials{LibraryID: "99", APIKey: "0123456789", LibraryType: "user"},
			input:  "",
			wantID: "99",
		},
		{
			name:    "non-numeric id",
			creds:   config.Credentials{LibraryType: "user"},
			input:   "me\n",
			wantErr: config.ErrInvalidLibraryID,
		},
		{
			name:    "short key",
			creds:   config.Credentials{LibraryType: "user"},
			input:   "12345\nshort\n",
			wantErr: config.ErrInvalidAPIKey,
		},
		{
			name:    "no input",
			creds:   config.Credentials{LibraryType: "user"},
			input:   "",
			wantErr: config.ErrInvalidLibraryID,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestPrompter(tt.input)
			c := tt.creds
			err := p.fillCredentials(&c)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("fillCredentials() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("fillCredentials() error = %v", err)
			}
			if c.LibraryID != tt.wantID {
				t.Errorf("LibraryID = %q, want %q", c.LibraryID, tt.wantID)
			}
		})
	}
}

func TestFillCredentials_HiddenKey(t *testing.T) {
	p, out := newTestPrompter("")
	p.secret = func() (string, error) { return " secretkey123 ", nil }

	c := config.Credentials{LibraryID: "1", LibraryType: "group"}
	if err := p.fillCredentials(&c); err != nil {
		t.Fatalf("fillCredentials() error = %v", err)
	}
	if c.APIKey != "secretkey123" {
		t.Errorf("APIKey = %q", c.APIKey)
	}
	if strings.Contains(out.String(), "secretkey123") {
		t.Error("API key echoed to the prompt output")
	}
}

func TestCollectionName(t *testing.T) {
	p, _ := newTestPrompter("\nMy Review\n")
	got, err := p.collectionName("Meta-Analysis Import")
	if err != nil || got != "Meta-Analysis Import" {
		t.Errorf("blank answer = %q, %v; want default", got, err)
	}
	got, err = p.collectionName("Meta-Analysis Import")
	if err != nil || got != "My Review" {
		t.Errorf("answer = %q, %v", got, err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestPrompterReadError(t *testing.T) {
	p := &prompter{in: bufio.NewReader(failingReader{}), out: io.Discard}
	if _, err := p.line("x: "); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("line() error = %v", err)
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
