package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// MinAPIKeyLength is the shortest API key accepted.
const MinAPIKeyLength = 10

// Credential errors.
var (
	ErrInvalidLibraryID   = errors.New("library ID must be numeric")
	ErrInvalidAPIKey      = errors.New("API key is too short")
	ErrInvalidLibraryType = errors.New("library type must be user or group")
)

// Credentials configure the remote collaborators. Everything comes from the
// environment; missing library ID and API key are prompted for by the CLI.
type Credentials struct {
	LibraryID         string `envconfig:"ZOTERO_LIBRARY_ID"`
	APIKey            string `envconfig:"ZOTERO_API_KEY"`
	LibraryType       string `envconfig:"ZOTERO_LIBRARY_TYPE" default:"user"`
	Mailto            string `envconfig:"CROSSREF_MAILTO"`
	TranslationServer string `envconfig:"TRANSLATION_SERVER_URL"`
	LogLevel          string `envconfig:"LITMERGE_LOG_LEVEL" default:"info"`
}

// LoadCredentials reads credentials from the environment. It does not
// require the library ID or key to be set; call Validate once they are.
func LoadCredentials() (*Credentials, error) {
	var c Credentials
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	c.LibraryID = strings.TrimSpace(c.LibraryID)
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.LibraryType = strings.ToLower(strings.TrimSpace(c.LibraryType))
	if c.LibraryType == "" {
		c.LibraryType = "user"
	}
	return &c, nil
}

// Validate checks that the credentials are complete and well formed.
func (c *Credentials) Validate() error {
	if err := ValidateLibraryID(c.LibraryID); err != nil {
		return err
	}
	if err := ValidateAPIKey(c.APIKey); err != nil {
		return err
	}
	if c.LibraryType != "user" && c.LibraryType != "group" {
		return fmt.Errorf("%w: %q", ErrInvalidLibraryType, c.LibraryType)
	}
	return nil
}

// ValidateLibraryID checks that id is a non-empty string of digits.
func ValidateLibraryID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidLibraryID)
	}
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLibraryID, id)
	}
	return nil
}

// ValidateAPIKey checks the key's length.
func ValidateAPIKey(key string) error {
	if len(key) < MinAPIKeyLength {
		return fmt.Errorf("%w: need at least %d characters", ErrInvalidAPIKey, MinAPIKeyLength)
	}
	return nil
}
