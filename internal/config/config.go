// Package config handles the pipeline file and import credentials.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the pipeline file looked up in the working directory.
const DefaultFile = "litmerge.yml"

// Defaults for a run against the original exports.
const (
	DefaultWOSPath           = "WebOfScience.xls"
	DefaultPsycInfoPath      = "PsycInfo.xls"
	DefaultCanonicalPath     = "merged_papers.csv"
	DefaultDuplicatesPath    = "duplicates_removed.csv"
	DefaultRISPath           = "zotero_import.ris"
	DefaultBibTeXPath        = "merged_papers.bib"
	DefaultLogPath           = "zotero_import_log_v4.txt"
	DefaultCachePath         = ".litmerge/crossref.db"
	DefaultCollectionName    = "Meta-Analysis Import"
	DefaultExpectedCount     = 262
	DefaultRecordDelay       = 600 * time.Millisecond
	DefaultRateLimitCooldown = 15 * time.Second
)

// ErrInvalidConfig is returned when the pipeline file fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the pipeline file, litmerge.yml.
type Config struct {
	Sources       Sources `yaml:"sources" json:"sources"`
	Output        Output  `yaml:"output" json:"output"`
	ExpectedCount int     `yaml:"expected_count" json:"expected_count"`
	Import        Import  `yaml:"import" json:"import"`
}

// Sources locates the two exports.
type Sources struct {
	WOS      string `yaml:"wos" json:"wos"`
	PsycInfo string `yaml:"psycinfo" json:"psycinfo"`
}

// Output locates the files the pipeline writes.
type Output struct {
	Canonical  string `yaml:"canonical" json:"canonical"`
	Duplicates string `yaml:"duplicates" json:"duplicates"`
	RIS        string `yaml:"ris" json:"ris"`
	BibTeX     string `yaml:"bibtex" json:"bibtex"`
}

// Import tunes the library import.
type Import struct {
	Collection        string        `yaml:"collection" json:"collection"`
	Log               string        `yaml:"log" json:"log"`
	Cache             string        `yaml:"cache" json:"cache"` // empty disables the metadata cache
	RecordDelay       time.Duration `yaml:"record_delay" json:"record_delay"`
	RateLimitCooldown time.Duration `yaml:"rate_limit_cooldown" json:"rate_limit_cooldown"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Sources: Sources{
			WOS:      DefaultWOSPath,
			PsycInfo: DefaultPsycInfoPath,
		},
		Output: Output{
			Canonical:  DefaultCanonicalPath,
			Duplicates: DefaultDuplicatesPath,
			RIS:        DefaultRISPath,
			BibTeX:     DefaultBibTeXPath,
		},
		ExpectedCount: DefaultExpectedCount,
		Import: Import{
			Collection:        DefaultCollectionName,
			Log:               DefaultLogPath,
			Cache:             DefaultCachePath,
			RecordDelay:       DefaultRecordDelay,
			RateLimitCooldown: DefaultRateLimitCooldown,
		},
	}
}

// Load reads the pipeline file at path. Keys absent from the file keep their
// defaults, and a missing file yields Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks the values Load cannot default.
func (c *Config) Validate() error {
	if c.Sources.WOS == "" || c.Sources.PsycInfo == "" {
		return fmt.Errorf("%w: both sources.wos and sources.psycinfo are required", ErrInvalidConfig)
	}
	if c.Output.Canonical == "" || c.Output.Duplicates == "" {
		return fmt.Errorf("%w: output.canonical and output.duplicates are required", ErrInvalidConfig)
	}
	if c.ExpectedCount < 0 {
		return fmt.Errorf("%w: expected_count must be >= 0, got %d", ErrInvalidConfig, c.ExpectedCount)
	}
	if c.Import.RecordDelay < 0 {
		return fmt.Errorf("%w: import.record_delay must be >= 0", ErrInvalidConfig)
	}
	if c.Import.RateLimitCooldown < 0 {
		return fmt.Errorf("%w: import.rate_limit_cooldown must be >= 0", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) expandPaths() {
	for _, p := range []*string{
		&c.Sources.WOS, &c.Sources.PsycInfo,
		&c.Output.Canonical, &c.Output.Duplicates, &c.Output.RIS, &c.Output.BibTeX,
		&c.Import.Log, &c.Import.Cache,
	} {
		*p = ExpandPath(*p)
	}
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
