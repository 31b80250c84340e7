package main

import (
	"os"

	"github.com/matsen/litmerge/internal/storage"
	"github.com/matsen/litmerge/internal/verify"
	"github.com/spf13/cobra"
)

var (
	verifyStrict   bool
	verifyExpected int
)

func init() {
	verifyCmd.Flags().BoolVar(&verifyStrict, "strict", false, "Exit non-zero when a check fails")
	verifyCmd.Flags().IntVar(&verifyExpected, "expected", -1, "Expected canonical count (default from config)")
	rootCmd.AddCommand(verifyCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Re-check the merge outputs against the original exports",
	Long: `Re-check the merge outputs against the original exports.

Checks the canonical count, that every DOI present in both exports
appears exactly once, that paper IDs run 1..N, that both exports are
represented, and that canonical plus duplicate rows account for every
input row.

Examples:
  litmerge verify --human
  litmerge verify --strict --expected 262`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	log := mustOpenLog("")
	defer log.Close()

	wos, psyc := mustLoadSources(cfg)
	canonical, err := storage.LoadCanonical(cfg.Output.Canonical)
	if err != nil {
		exitWithError(loadExitCode(err), "%v", err)
	}
	duplicates, err := storage.LoadDuplicates(cfg.Output.Duplicates)
	if err != nil {
		exitWithError(loadExitCode(err), "%v", err)
	}

	expected := cfg.ExpectedCount
	if verifyExpected >= 0 {
		expected = verifyExpected
	}

	report := verify.New(log).Run(verify.Input{
		WOS:           wos,
		PsycInfo:      psyc,
		Canonical:     canonical,
		Duplicates:    duplicates,
		ExpectedCount: expected,
	})

	if humanOutput {
		for _, c := range report.Checks {
			status := "PASS"
			if !c.Passed {
				status = "FAIL"
			}
			outputHuman("%s  %-22s %s\n", status, c.Name, c.Detail)
			for _, o := range c.Offenders {
				outputHuman("      %s (count %d)\n", o.DOI, o.Count)
			}
		}
	} else {
		outputJSON(struct {
			Passed bool `json:"passed"`
			verify.Report
		}{report.Passed(), report})
	}

	if verifyStrict && !report.Passed() {
		log.Close()
		os.Exit(ExitVerifyFailed)
	}
	return nil
}
