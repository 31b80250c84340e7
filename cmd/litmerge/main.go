// Package main provides the litmerge CLI entry point.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/matsen/litmerge/internal/audit"
	"github.com/matsen/litmerge/internal/config"
	"github.com/matsen/litmerge/internal/source"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	configPath  string
	logPath     string
	logLevel    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "litmerge",
	Short: "Merge literature-database exports and import them into Zotero",
	Long: `litmerge reconciles a Web of Science export and a PsycInfo export.

Pipeline:
  litmerge inspect   show the columns and first rows of both exports
  litmerge merge     deduplicate into merged_papers.csv and duplicates_removed.csv
  litmerge verify    re-check the merge against the original exports
  litmerge export    write the merged records as RIS or BibTeX
  litmerge import    create the merged records in a Zotero library

Paths and pacing come from litmerge.yml (see 'litmerge config init').
Credentials come from the environment or a .env file.
All commands output JSON by default; use --human for plain text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultFile, "Pipeline config file")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "Also write the log to this file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.Version = Version
}

// mustLoadConfig loads the pipeline file, exits on error.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustOpenLog returns the run logger. Logs go to stderr so stdout stays
// machine-readable, plus the --log file when given.
func mustOpenLog(header string) *audit.Log {
	level := logLevel
	if level == "" {
		level = os.Getenv("LITMERGE_LOG_LEVEL")
	}
	var (
		log *audit.Log
		err error
	)
	if logPath != "" {
		log, err = audit.Open(logPath, header, os.Stderr, level)
	} else {
		log, err = audit.Console(os.Stderr, level)
	}
	if err != nil {
		exitWithError(ExitConfigError, "opening log: %v", err)
	}
	return log
}

// loadExitCode maps source loading errors to exit codes.
func loadExitCode(err error) int {
	switch {
	case errors.Is(err, source.ErrMissingSourceFile), errors.Is(err, os.ErrNotExist):
		return ExitMissingSource
	case errors.Is(err, source.ErrSchemaMismatch):
		return ExitSchemaMismatch
	}
	return ExitError
}

// mustLoadSources loads both exports, exits on error.
func mustLoadSources(cfg *config.Config) (wos, psyc *source.Table) {
	wos, err := source.Load(cfg.Sources.WOS, source.WOS)
	if err != nil {
		exitWithError(loadExitCode(err), "%v", err)
	}
	psyc, err = source.Load(cfg.Sources.PsycInfo, source.PsycInfo)
	if err != nil {
		exitWithError(loadExitCode(err), "%v", err)
	}
	return wos, psyc
}
