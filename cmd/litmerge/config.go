package main

import (
	"os"

	"github.com/matsen/litmerge/internal/config"
	"github.com/spf13/cobra"
)

var configForce bool

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the pipeline file",
	Long: `Manage the pipeline file (litmerge.yml).

Examples:
  litmerge config init
  litmerge config show --human`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a litmerge.yml with the default settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configPath); err == nil && !configForce {
		exitWithError(ExitConfigError, "%s already exists (use --force to overwrite)", configPath)
	}
	if err := config.Default().Save(configPath); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		outputHuman("Wrote %s\n", configPath)
		return nil
	}
	return outputJSON(StatusResponse{Status: "created", Path: configPath})
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	if humanOutput {
		outputHuman("Sources:\n  wos:       %s\n  psycinfo:  %s\n", cfg.Sources.WOS, cfg.Sources.PsycInfo)
		outputHuman("Output:\n  canonical:  %s\n  duplicates: %s\n  ris:        %s\n  bibtex:     %s\n",
			cfg.Output.Canonical, cfg.Output.Duplicates, cfg.Output.RIS, cfg.Output.BibTeX)
		outputHuman("Expected count: %d\n", cfg.ExpectedCount)
		outputHuman("Import:\n  collection: %s\n  log:        %s\n  cache:      %s\n  delay:      %s\n  cooldown:   %s\n",
			cfg.Import.Collection, cfg.Import.Log, displayPath(cfg.Import.Cache),
			cfg.Import.RecordDelay, cfg.Import.RateLimitCooldown)
		return nil
	}
	return outputJSON(cfg)
}

func displayPath(p string) string {
	if p == "" {
		return "(disabled)"
	}
	return p
}
