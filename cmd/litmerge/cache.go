package main

import (
	"github.com/spf13/cobra"
)

func init() {
	cacheCmd.AddCommand(cacheInfoCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the Crossref metadata cache",
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show how many works are cached",
	Args:  cobra.NoArgs,
	RunE:  runCacheInfo,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached work",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

// CacheInfo is the response for the cache commands.
type CacheInfo struct {
	Path    string `json:"path"`
	Works   int    `json:"works"`
	Cleared bool   `json:"cleared,omitempty"`
}

func runCacheInfo(cmd *cobra.Command, args []string) error {
	return cacheCommand(false)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	return cacheCommand(true)
}

func cacheCommand(clear bool) error {
	cfg := mustLoadConfig()
	if cfg.Import.Cache == "" {
		exitWithError(ExitConfigError, "metadata cache is disabled (import.cache is empty)")
	}

	cache, err := openCache(cfg.Import.Cache)
	if err != nil {
		exitWithError(ExitError, "opening cache: %v", err)
	}
	defer cache.Close()

	info := CacheInfo{Path: cfg.Import.Cache}
	if clear {
		if err := cache.Clear(); err != nil {
			exitWithError(ExitError, "clearing cache: %v", err)
		}
		info.Cleared = true
	}
	if info.Works, err = cache.Count(); err != nil {
		exitWithError(ExitError, "counting cache: %v", err)
	}

	if humanOutput {
		if info.Cleared {
			outputHuman("Cleared %s\n", info.Path)
		}
		outputHuman("%d cached works in %s\n", info.Works, info.Path)
		return nil
	}
	return outputJSON(info)
}
