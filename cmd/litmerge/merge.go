package main

import (
	"github.com/matsen/litmerge/internal/dedupe"
	"github.com/matsen/litmerge/internal/reference"
	"github.com/matsen/litmerge/internal/storage"
	"github.com/spf13/cobra"
)

var mergeDryRun bool

func init() {
	mergeCmd.Flags().BoolVar(&mergeDryRun, "dry-run", false, "Report the partition without writing files")
	rootCmd.AddCommand(mergeCmd)
}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Deduplicate both exports into the canonical record set",
	Long: `Deduplicate both exports into the canonical record set.

Rows are matched by normalized DOI, or by title, authors and year when
they have no DOI. The first row of each group is kept and numbered;
the rest are written to the duplicates file.

Examples:
  litmerge merge
  litmerge merge --dry-run --human`,
	Args: cobra.NoArgs,
	RunE: runMerge,
}

// MergeResult is the response for the merge command.
type MergeResult struct {
	Stats          dedupe.Stats `json:"stats"`
	CanonicalPath  string       `json:"canonical_path,omitempty"`
	DuplicatesPath string       `json:"duplicates_path,omitempty"`
	DryRun         bool         `json:"dry_run,omitempty"`
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	log := mustOpenLog("")
	defer log.Close()

	wos, psyc := mustLoadSources(cfg)
	log.Info().Int("rows", wos.Len()).Str("path", wos.Path).Msg("Loaded WOS export")
	log.Info().Int("rows", psyc.Len()).Str("path", psyc.Path).Msg("Loaded PsycInfo export")

	res := dedupe.Partition(wos.Conform(), psyc.Conform())
	log.Info().
		Int("canonical", res.Stats.Canonical).
		Int("duplicates_by_doi", res.Stats.DuplicatesByDOI).
		Int("duplicates_by_key", res.Stats.DuplicatesByKey).
		Msg("Partitioned records")

	out := MergeResult{Stats: res.Stats, DryRun: mergeDryRun}
	if !mergeDryRun {
		if err := storage.SaveCanonical(cfg.Output.Canonical, res.Canonical); err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if err := storage.SaveDuplicates(cfg.Output.Duplicates, res.DuplicateRecords()); err != nil {
			exitWithError(ExitError, "%v", err)
		}
		out.CanonicalPath = cfg.Output.Canonical
		out.DuplicatesPath = cfg.Output.Duplicates
	}

	if humanOutput {
		printMergeHuman(out)
		return nil
	}
	return outputJSON(out)
}

func printMergeHuman(r MergeResult) {
	s := r.Stats
	outputHuman("Input rows: WOS %d, PsycInfo %d\n",
		s.Input[reference.SourceWOS], s.Input[reference.SourcePsycInfo])
	outputHuman("Duplicates removed: %d by DOI, %d by title/authors/year\n",
		s.DuplicatesByDOI, s.DuplicatesByKey)
	outputHuman("Number of unique papers after merging: %d\n", s.Canonical)
	for _, db := range reference.Sources {
		outputHuman("  from %s: %d\n", db, s.CanonicalBySourceDB[db])
	}
	if r.DryRun {
		outputHuman("Dry run: no files written\n")
		return
	}
	outputHuman("Unique papers saved to %s\n", r.CanonicalPath)
	outputHuman("Duplicates saved to %s\n", r.DuplicatesPath)
}
