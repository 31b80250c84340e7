package verify

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matsen/litmerge/internal/audit"
	"github.com/matsen/litmerge/internal/dedupe"
	"github.com/matsen/litmerge/internal/reference"
	"github.com/matsen/litmerge/internal/sheet"
	"github.com/matsen/litmerge/internal/source"
)

const wosCSV = `Authors,Article Title,Source Title,Publication Year,DOI
"Smith, J",Leadership Identity,J Appl Psych,2020,10.1037/APL0001
"Lee, K",Team Climate,Group Org Mgmt,2019,
"Ng, T",Voice,Acad Mgmt J,2018,10.5465/amj.1
`

const psycCSV = `Authors,title,source,publicationDate,doi
"Smith, J",leadership identity,J Appl Psych,2020-01-01, 10.1037/apl0001
"Lee, K",team climate,Group Org Mgmt,2019-06-01,
"Park, S",Followers,Leadership Q,2021-02-02,10.1016/lq.2
`

func loadTables(t *testing.T) (*source.Table, *source.Table) {
	t.Helper()
	load := func(content string, schema source.Schema) *source.Table {
		st, err := sheet.ReadCSV(strings.NewReader(content))
		if err != nil {
			t.Fatal(err)
		}
		tbl, err := source.FromSheet(string(schema.DB), st, schema)
		if err != nil {
			t.Fatal(err)
		}
		return tbl
	}
	return load(wosCSV, source.WOS), load(psycCSV, source.PsycInfo)
}

func mergedInput(t *testing.T) Input {
	t.Helper()
	wos, psyc := loadTables(t)
	res := dedupe.Partition(wos.Conform(), psyc.Conform())
	return Input{
		WOS:           wos,
		PsycInfo:      psyc,
		Canonical:     res.Canonical,
		Duplicates:    res.DuplicateRecords(),
		ExpectedCount: 4,
	}
}

func TestRun_AllPass(t *testing.T) {
	var buf bytes.Buffer
	log, err := audit.Console(&buf, "info")
	if err != nil {
		t.Fatal(err)
	}

	report := New(log).Run(mergedInput(t))
	if !report.Passed() {
		t.Fatalf("Passed() = false, failed checks: %+v", report.Failed())
	}
	if len(report.Checks) != 5 {
		t.Errorf("ran %d checks, want 5", len(report.Checks))
	}
	if got := strings.Count(buf.String(), "PASS:"); got != 5 {
		t.Errorf("log has %d PASS lines, want 5:\n%s", got, buf.String())
	}
}

func TestRun_FailuresDoNotShortCircuit(t *testing.T) {
	in := mergedInput(t)
	in.ExpectedCount = 262

	// Put a duplicate back into the canonical table under a fresh paper_id.
	dupe := in.Duplicates[0]
	in.Canonical = append(in.Canonical, reference.CanonicalRecord{PaperID: len(in.Canonical) + 1, Record: dupe})
	in.Duplicates = in.Duplicates[1:]

	report := New(nil).Run(in)
	if report.Passed() {
		t.Fatal("Passed() = true, want failure")
	}
	if len(report.Checks) != 5 {
		t.Fatalf("ran %d checks, want all 5", len(report.Checks))
	}

	c, _ := report.Check(CheckFinalCount)
	if c.Passed {
		t.Error("final_count passed with wrong expected count")
	}
	c, _ = report.Check(CheckCountConservation)
	if !c.Passed {
		t.Errorf("count_conservation failed: %s", c.Detail)
	}
	c, _ = report.Check(CheckPaperIDSequence)
	if !c.Passed {
		t.Errorf("paper_id_sequence failed: %s", c.Detail)
	}
}

func TestDOIOverlap(t *testing.T) {
	in := mergedInput(t)

	c, _ := New(nil).Run(in).Check(CheckDOIOverlap)
	if !c.Passed {
		t.Fatalf("doi_overlap failed on clean merge: %s", c.Detail)
	}

	// Duplicate the overlapping DOI in the output with different casing.
	extra := in.Canonical[0]
	extra.DOI = " 10.1037/APL0001"
	extra.PaperID = len(in.Canonical) + 1
	in.Canonical = append(in.Canonical, extra)

	c, _ = New(nil).Run(in).Check(CheckDOIOverlap)
	if c.Passed {
		t.Fatal("doi_overlap passed with a repeated DOI")
	}
	if len(c.Offenders) != 1 || c.Offenders[0] != (DOICount{DOI: "10.1037/apl0001", Count: 2}) {
		t.Errorf("Offenders = %+v", c.Offenders)
	}
}

func TestDOIOverlap_Missing(t *testing.T) {
	in := mergedInput(t)
	var kept []reference.CanonicalRecord
	for _, r := range in.Canonical {
		if !strings.EqualFold(strings.TrimSpace(r.DOI), "10.1037/apl0001") {
			kept = append(kept, r)
		}
	}
	in.Canonical = kept

	c, _ := New(nil).Run(in).Check(CheckDOIOverlap)
	if c.Passed || len(c.Offenders) != 1 || c.Offenders[0].Count != 0 {
		t.Errorf("doi_overlap = %+v, want one offender with count 0", c)
	}
}

func TestPaperIDSequence(t *testing.T) {
	rec := func(id int) reference.CanonicalRecord {
		return reference.CanonicalRecord{PaperID: id}
	}
	tests := []struct {
		name string
		ids  []reference.CanonicalRecord
		want bool
	}{
		{"empty", nil, true},
		{"sequential", []reference.CanonicalRecord{rec(1), rec(2), rec(3)}, true},
		{"gap", []reference.CanonicalRecord{rec(1), rec(3)}, false},
		{"starts at zero", []reference.CanonicalRecord{rec(0), rec(1)}, false},
		{"duplicate", []reference.CanonicalRecord{rec(1), rec(1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := paperIDSequence(tt.ids); got.Passed != tt.want {
				t.Errorf("paperIDSequence() = %+v, want passed=%v", got, tt.want)
			}
		})
	}
}

func TestSourceRepresentation(t *testing.T) {
	only := []reference.CanonicalRecord{
		{PaperID: 1, Record: reference.Record{SourceDB: reference.SourceWOS}},
	}
	c := sourceRepresentation(only)
	if c.Passed {
		t.Fatal("source_representation passed without PsycInfo records")
	}
	if !strings.Contains(c.Detail, "PsycInfo") {
		t.Errorf("Detail = %q, want missing tag named", c.Detail)
	}

	c = sourceRepresentation(nil)
	if !strings.Contains(c.Detail, "WOS and PsycInfo") {
		t.Errorf("Detail = %q, want both tags named", c.Detail)
	}
}
