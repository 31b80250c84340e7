// Package zotero is a client for the Zotero Web API v3 write endpoints.
package zotero

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// BaseURL is the Zotero Web API base URL.
	BaseURL = "https://api.zotero.org"

	// APIVersion is sent as Zotero-API-Version on every request.
	APIVersion = "3"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit keeps bursts small; the API enforces its own limits via 429.
	RateLimit = 5.0

	// MaxWriteBatch is the largest number of objects one write may carry.
	MaxWriteBatch = 50

	// collectionPageSize is the page size used when listing collections.
	collectionPageSize = 100
)

// Library types.
const (
	LibraryUser  = "user"
	LibraryGroup = "group"
)

// Client is a rate-limited HTTP client for one Zotero library.
type Client struct {
	httpClient     *http.Client
	limiter        *rate.Limiter
	baseURL        string
	apiKey         string
	libraryID      string
	libraryType    string
	translationURL string
	newToken       func() string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the API key for authenticated requests.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithLibraryType selects a user or group library.
func WithLibraryType(t string) ClientOption {
	return func(c *Client) {
		c.libraryType = t
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithTranslationServer sets the translation-server URL used to resolve
// identifiers into item metadata.
func WithTranslationServer(url string) ClientOption {
	return func(c *Client) {
		c.translationURL = strings.TrimRight(url, "/")
	}
}

// WithRateLimit overrides the request rate (requests per second).
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewClient creates a client for the library with the given numeric ID.
func NewClient(libraryID string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient:     &http.Client{Timeout: DefaultTimeout},
		limiter:        rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:        BaseURL,
		libraryID:      libraryID,
		libraryType:    LibraryUser,
		translationURL: "http://127.0.0.1:1969",
		newToken:       WriteToken,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WriteToken returns a fresh 32-character Zotero-Write-Token. The API rejects a
// repeated token, so a retried request can never create the same items twice.
func WriteToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// libraryPrefix returns the path prefix of the library, e.g. /users/123.
func (c *Client) libraryPrefix() string {
	if c.libraryType == LibraryGroup {
		return "/groups/" + url.PathEscape(c.libraryID)
	}
	return "/users/" + url.PathEscape(c.libraryID)
}

// do sends one request to the library and returns the response with its body
// read. Error statuses are mapped to the package errors.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, header http.Header) (*http.Response, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := c.baseURL + c.libraryPrefix() + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Zotero-API-Version", APIVersion)
	if c.apiKey != "" {
		req.Header.Set("Zotero-API-Key", c.apiKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading body: %v", ErrNetworkError, err)
	}
	if err := checkHTTPErrors(resp, data); err != nil {
		return nil, nil, err
	}
	return resp, data, nil
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response, body []byte) error {
	msg := strings.TrimSpace(string(body))
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: status %d: %s", ErrAuthError, resp.StatusCode, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, resp.Request.URL.Path)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, msg)
	case http.StatusPreconditionFailed:
		return fmt.Errorf("%w: %s", ErrStaleVersion, msg)
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			return fmt.Errorf("%w: status %d, retry after %ss", ErrRateLimited, resp.StatusCode, ra)
		}
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return nil
}

// CheckConnection makes a minimal authenticated request.
func (c *Client) CheckConnection(ctx context.Context) error {
	_, _, err := c.do(ctx, http.MethodGet, "/collections", url.Values{"limit": {"1"}}, nil, nil)
	return err
}

// Collections lists every collection in the library.
func (c *Client) Collections(ctx context.Context) ([]Collection, error) {
	var all []Collection
	for start := 0; ; start += collectionPageSize {
		q := url.Values{
			"limit": {strconv.Itoa(collectionPageSize)},
			"start": {strconv.Itoa(start)},
		}
		resp, body, err := c.do(ctx, http.MethodGet, "/collections", q, nil, nil)
		if err != nil {
			return nil, err
		}
		var page []Collection
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("%w: parsing collections: %v", ErrInvalidResponse, err)
		}
		all = append(all, page...)

		total, err := strconv.Atoi(resp.Header.Get("Total-Results"))
		if err != nil || len(page) == 0 || len(all) >= total {
			return all, nil
		}
	}
}

// CreateCollection creates a top-level collection and returns its key.
func (c *Client) CreateCollection(ctx context.Context, name string) (string, error) {
	wr, err := c.write(ctx, "/collections", []map[string]string{{"name": name}})
	if err != nil {
		return "", err
	}
	if key, ok := wr.KeyAt(0); ok {
		return key, nil
	}
	if f, ok := wr.FailureAt(0); ok {
		return "", &APIError{StatusCode: f.Code, Message: f.Message}
	}
	return "", fmt.Errorf("%w: collection %q not in write response", ErrInvalidResponse, name)
}

// FindOrCreateCollection returns the key of the first collection named name,
// creating it when none exists.
func (c *Client) FindOrCreateCollection(ctx context.Context, name string) (key string, created bool, err error) {
	cols, err := c.Collections(ctx)
	if err != nil {
		return "", false, fmt.Errorf("listing collections: %w", err)
	}
	for _, col := range cols {
		if col.Name() == name {
			return col.Key, false, nil
		}
	}
	key, err = c.CreateCollection(ctx, name)
	if err != nil {
		return "", false, fmt.Errorf("creating collection %q: %w", name, err)
	}
	return key, true, nil
}

// CreateItems writes items and reports the per-index outcome. A refused item
// is reported in WriteResponse.Failed, not as an error.
func (c *Client) CreateItems(ctx context.Context, items []Item) (*WriteResponse, error) {
	if len(items) > MaxWriteBatch {
		return nil, fmt.Errorf("cannot write %d items at once (max %d)", len(items), MaxWriteBatch)
	}
	return c.write(ctx, "/items", items)
}

func (c *Client) write(ctx context.Context, path string, payload any) (*WriteResponse, error) {
	h := http.Header{}
	h.Set("Zotero-Write-Token", c.newToken())
	_, body, err := c.do(ctx, http.MethodPost, path, nil, payload, h)
	if err != nil {
		return nil, err
	}
	var wr WriteResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return nil, fmt.Errorf("%w: parsing write response: %v", ErrInvalidResponse, err)
	}
	return &wr, nil
}

// Item fetches one item with its current version.
func (c *Client) Item(ctx context.Context, key string) (*ItemRecord, error) {
	_, body, err := c.do(ctx, http.MethodGet, "/items/"+url.PathEscape(key), nil, nil, nil)
	if err != nil {
		return nil, err
	}
	var rec ItemRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("%w: parsing item %s: %v", ErrInvalidResponse, key, err)
	}
	if rec.Version == 0 {
		rec.Version = rec.Data.Version
	}
	return &rec, nil
}

// UpdateCollections replaces the collection list of an item. version is the
// item version the caller last read; if the item has changed since then the
// write is refused with ErrStaleVersion.
func (c *Client) UpdateCollections(ctx context.Context, key string, version int, collections []string) error {
	h := http.Header{}
	h.Set("If-Unmodified-Since-Version", strconv.Itoa(version))
	if collections == nil {
		collections = []string{}
	}
	_, _, err := c.do(ctx, http.MethodPatch, "/items/"+url.PathEscape(key), nil,
		map[string][]string{"collections": collections}, h)
	if err != nil {
		return fmt.Errorf("updating collections of %s: %w", key, err)
	}
	return nil
}

// SearchItems runs a quick search over all fields and returns matching
// top-level items.
func (c *Client) SearchItems(ctx context.Context, query string, limit int) ([]ItemRecord, error) {
	if limit <= 0 {
		limit = 25
	}
	q := url.Values{
		"q":        {query},
		"qmode":    {"everything"},
		"itemType": {"-attachment"},
		"limit":    {strconv.Itoa(limit)},
	}
	_, body, err := c.do(ctx, http.MethodGet, "/items/top", q, nil, nil)
	if err != nil {
		return nil, err
	}
	var items []ItemRecord
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("%w: parsing search results: %v", ErrInvalidResponse, err)
	}
	return items, nil
}
