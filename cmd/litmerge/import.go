package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/matsen/litmerge/internal/audit"
	"github.com/matsen/litmerge/internal/config"
	"github.com/matsen/litmerge/internal/crossref"
	"github.com/matsen/litmerge/internal/resolve"
	"github.com/matsen/litmerge/internal/source"
	"github.com/matsen/litmerge/internal/storage"
	"github.com/matsen/litmerge/internal/zotero"
	"github.com/spf13/cobra"
)

// ImportLogHeader is the first line of every import log.
const ImportLogHeader = "--- Zotero Import Log V4 (CrossRef) ---"

var (
	importCollection string
	importLimit      int
	importNoCache    bool
)

func init() {
	importCmd.Flags().StringVar(&importCollection, "collection", "", "Target collection name (default from config, prompted when interactive)")
	importCmd.Flags().IntVar(&importLimit, "limit", 0, "Process only the first N records")
	importCmd.Flags().BoolVar(&importNoCache, "no-cache", false, "Do not read or write the Crossref metadata cache")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Create the merged records in a Zotero library",
	Long: `Create the merged records in a Zotero library.

Each record is tried in order:
  1. Crossref metadata by DOI, created as a new item
  2. DOI lookup through the translation server (existing items are reused)
  3. A template built from the original export row

Items are placed in the target collection. Every step is written to the
import log, which is truncated at the start of each run.

Environment (also read from .env):
  ZOTERO_LIBRARY_ID       numeric library ID (prompted if unset)
  ZOTERO_API_KEY          API key with write access (prompted if unset)
  ZOTERO_LIBRARY_TYPE     user or group (default user)
  CROSSREF_MAILTO         contact address for the Crossref polite pool
  TRANSLATION_SERVER_URL  Zotero translation server (default http://127.0.0.1:1969)
  LITMERGE_LOG_LEVEL      log level (default info)

Examples:
  litmerge import
  litmerge import --collection "Meta-Analysis Import" --limit 5`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	// Load .env file if present (for ZOTERO_API_KEY)
	_ = godotenv.Load()

	cfg := mustLoadConfig()
	creds, err := config.LoadCredentials()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	p := newTerminalPrompter()
	if err := p.fillCredentials(creds); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	collection := importCollection
	if collection == "" {
		collection = cfg.Import.Collection
		if interactive() {
			if collection, err = p.collectionName(collection); err != nil {
				exitWithError(ExitError, "reading collection name: %v", err)
			}
		}
	}

	recs, err := storage.LoadCanonical(cfg.Output.Canonical)
	if err != nil {
		exitWithError(loadExitCode(err), "%v", err)
	}
	if importLimit > 0 && importLimit < len(recs) {
		recs = recs[:importLimit]
	}
	wos, psyc := mustLoadSources(cfg)

	path := cfg.Import.Log
	if logPath != "" {
		path = logPath
	}
	level := logLevel
	if level == "" {
		level = creds.LogLevel
	}
	log, err := audit.Open(path, ImportLogHeader, os.Stderr, level)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	defer log.Close()
	log.Info().Int("records", len(recs)).Str("path", cfg.Output.Canonical).Msg("Loaded merged papers")

	metaOpts := []crossref.ClientOption{crossref.WithMailto(creds.Mailto)}
	if cfg.Import.Cache != "" && !importNoCache {
		cache, err := openCache(cfg.Import.Cache)
		if err != nil {
			log.Warn().Err(err).Msg("Metadata cache unavailable, continuing without it")
		} else {
			defer cache.Close()
			metaOpts = append(metaOpts, crossref.WithCache(cache))
		}
	}
	meta := crossref.NewClient(metaOpts...)

	libOpts := []zotero.ClientOption{
		zotero.WithAPIKey(creds.APIKey),
		zotero.WithLibraryType(creds.LibraryType),
	}
	if creds.TranslationServer != "" {
		libOpts = append(libOpts, zotero.WithTranslationServer(creds.TranslationServer))
	}
	lib := zotero.NewClient(creds.LibraryID, libOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Info().Str("library_id", creds.LibraryID).Str("library_type", creds.LibraryType).Msg("Connecting to Zotero")
	if err := lib.CheckConnection(ctx); err != nil {
		log.Error().Err(err).Msg("Error connecting to Zotero. Check library ID, type and API key")
		log.Close()
		exitWithError(ExitRemoteError, "connecting to Zotero: %v", err)
	}
	log.Info().Msg("Successfully connected to Zotero")

	r := resolve.New(lib, meta, source.NewLookups(wos, psyc), log,
		resolve.WithRecordDelay(cfg.Import.RecordDelay),
		resolve.WithRateLimitCooldown(cfg.Import.RateLimitCooldown),
	)
	// Failure here leaves the library root as the target
	_, _ = r.UseCollection(ctx, collection)

	sum, err := r.Run(ctx, recs)
	if err != nil {
		log.Warn().Err(err).Int("processed", sum.Processed).Msg("Import interrupted")
	}

	if humanOutput {
		printSummaryHuman(sum, log.Path())
		return nil
	}
	return outputJSON(struct {
		resolve.Summary
		Collection string `json:"collection,omitempty"`
		Log        string `json:"log"`
	}{sum, r.Collection(), log.Path()})
}

// openCache opens the metadata cache, creating its directory.
func openCache(path string) (*storage.MetadataCache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return storage.OpenMetadataCache(path)
}

func printSummaryHuman(sum resolve.Summary, logPath string) {
	if sum.Canceled {
		outputHuman("Import interrupted after %d records\n", sum.Processed)
	}
	outputHuman("Processed: %d\n", sum.Processed)
	outputHuman("Succeeded: %d\n", sum.Succeeded)
	outputHuman("Failed:    %d\n", sum.Failed)
	for _, k := range resolve.OutcomeKinds {
		if n := sum.ByKind[k]; n > 0 {
			outputHuman("  %-20s %d\n", k, n)
		}
	}
	if len(sum.Unresolved) > 0 {
		outputHuman("Unresolved paper IDs: %v\n", sum.Unresolved)
	}
	outputHuman("Log: %s\n", logPath)
}
