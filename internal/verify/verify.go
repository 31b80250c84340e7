// Package verify re-checks a finished merge against the original exports.
//
// Every check is derived independently from the raw source tables and the two
// output tables, so a bug in the partitioner cannot hide itself. Failed checks
// are reported, never returned as errors.
package verify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/matsen/litmerge/internal/audit"
	"github.com/matsen/litmerge/internal/normalize"
	"github.com/matsen/litmerge/internal/reference"
	"github.com/matsen/litmerge/internal/source"
)

// Check names.
const (
	CheckFinalCount           = "final_count"
	CheckDOIOverlap           = "doi_overlap"
	CheckPaperIDSequence      = "paper_id_sequence"
	CheckSourceRepresentation = "source_representation"
	CheckCountConservation    = "count_conservation"
)

// Input is everything the verifier reads.
type Input struct {
	WOS           *source.Table
	PsycInfo      *source.Table
	Canonical     []reference.CanonicalRecord
	Duplicates    []reference.Record
	ExpectedCount int
}

// DOICount is an overlapping DOI together with how often it appears in the
// canonical output.
type DOICount struct {
	DOI   string `json:"doi"`
	Count int    `json:"count"`
}

// Check is the result of one verification.
type Check struct {
	Name      string     `json:"name"`
	Passed    bool       `json:"passed"`
	Detail    string     `json:"detail"`
	Offenders []DOICount `json:"offenders,omitempty"`
}

// Report collects every check in the order they ran.
type Report struct {
	Checks []Check `json:"checks"`
}

// Passed reports whether every check passed.
func (r Report) Passed() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

// Failed returns the checks that did not pass.
func (r Report) Failed() []Check {
	var out []Check
	for _, c := range r.Checks {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}

// Check returns the named check.
func (r Report) Check(name string) (Check, bool) {
	for _, c := range r.Checks {
		if c.Name == name {
			return c, true
		}
	}
	return Check{}, false
}

// Verifier runs the checks and records each outcome in its log.
type Verifier struct {
	log *audit.Log
}

// New returns a Verifier writing to log. A nil log discards output.
func New(log *audit.Log) *Verifier {
	if log == nil {
		log = audit.Nop()
	}
	return &Verifier{log: log}
}

// Run executes all checks. None of them stops the others.
func (v *Verifier) Run(in Input) Report {
	report := Report{Checks: []Check{
		finalCount(in.Canonical, in.ExpectedCount),
		doiOverlap(in),
		paperIDSequence(in.Canonical),
		sourceRepresentation(in.Canonical),
		countConservation(in),
	}}

	for _, c := range report.Checks {
		if c.Passed {
			v.log.Info().Str("check", c.Name).Msg("PASS: " + c.Detail)
		} else {
			ev := v.log.Warn().Str("check", c.Name)
			for _, o := range c.Offenders {
				ev = ev.Int(o.DOI, o.Count)
			}
			ev.Msg("FAIL: " + c.Detail)
		}
	}
	return report
}

func finalCount(canonical []reference.CanonicalRecord, expected int) Check {
	c := Check{Name: CheckFinalCount, Passed: len(canonical) == expected}
	if c.Passed {
		c.Detail = fmt.Sprintf("final count matches expected count (%d)", expected)
	} else {
		c.Detail = fmt.Sprintf("final count (%d) does not match expected count (%d)", len(canonical), expected)
	}
	return c
}

// rawDOIs returns the set of normalized non-missing DOIs in an export.
func rawDOIs(t *source.Table) map[string]bool {
	set := make(map[string]bool)
	if t == nil {
		return set
	}
	for _, doi := range normalize.TextColumn(t.Values(t.Schema.DOI)) {
		if doi != "" {
			set[doi] = true
		}
	}
	return set
}

func doiOverlap(in Input) Check {
	wos := rawDOIs(in.WOS)
	psyc := rawDOIs(in.PsycInfo)

	counts := make(map[string]int)
	for doi := range wos {
		if psyc[doi] {
			counts[doi] = 0
		}
	}
	for _, r := range in.Canonical {
		doi := normalize.KeyText(r.DOI)
		if _, ok := counts[doi]; ok {
			counts[doi]++
		}
	}

	var offenders []DOICount
	for doi, n := range counts {
		if n != 1 {
			offenders = append(offenders, DOICount{DOI: doi, Count: n})
		}
	}
	sort.Slice(offenders, func(i, j int) bool { return offenders[i].DOI < offenders[j].DOI })

	c := Check{Name: CheckDOIOverlap, Passed: len(offenders) == 0, Offenders: offenders}
	if c.Passed {
		c.Detail = fmt.Sprintf("all %d DOIs found in both sources appear exactly once", len(counts))
	} else {
		c.Detail = fmt.Sprintf("%d of %d DOIs found in both sources do not appear exactly once", len(offenders), len(counts))
	}
	return c
}

func paperIDSequence(canonical []reference.CanonicalRecord) Check {
	c := Check{Name: CheckPaperIDSequence}
	seen := make(map[int]bool, len(canonical))
	var dupes []string
	sequential := true
	for i, r := range canonical {
		if seen[r.PaperID] {
			dupes = append(dupes, fmt.Sprint(r.PaperID))
		}
		seen[r.PaperID] = true
		if r.PaperID != i+1 {
			sequential = false
		}
	}

	switch {
	case len(dupes) > 0:
		c.Detail = "paper_id contains duplicate values: " + strings.Join(dupes, ", ")
	case !sequential:
		c.Detail = "paper_id is unique but not sequential from 1"
	default:
		c.Passed = true
		c.Detail = fmt.Sprintf("paper_id is unique and sequential from 1 to %d", len(canonical))
	}
	return c
}

func sourceRepresentation(canonical []reference.CanonicalRecord) Check {
	counts := make(map[reference.SourceDB]int)
	for _, r := range canonical {
		counts[r.SourceDB]++
	}

	var missing []string
	for _, db := range reference.Sources {
		if counts[db] == 0 {
			missing = append(missing, string(db))
		}
	}

	c := Check{Name: CheckSourceRepresentation, Passed: len(missing) == 0}
	if c.Passed {
		parts := make([]string, len(reference.Sources))
		for i, db := range reference.Sources {
			parts[i] = fmt.Sprintf("%s=%d", db, counts[db])
		}
		c.Detail = "records from both sources present (" + strings.Join(parts, ", ") + ")"
	} else {
		c.Detail = "final data is missing records from " + strings.Join(missing, " and ")
	}
	return c
}

func countConservation(in Input) Check {
	var wos, psyc int
	if in.WOS != nil {
		wos = in.WOS.Len()
	}
	if in.PsycInfo != nil {
		psyc = in.PsycInfo.Len()
	}
	initial := wos + psyc
	final := len(in.Canonical) + len(in.Duplicates)

	c := Check{Name: CheckCountConservation, Passed: initial == final}
	c.Detail = fmt.Sprintf("initial %d + %d = %d, final %d + %d = %d",
		wos, psyc, initial, len(in.Canonical), len(in.Duplicates), final)
	return c
}
