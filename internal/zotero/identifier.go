package zotero

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Fields the translation server emits that the write API does not accept.
var translatorOnlyFields = []string{"key", "version", "id", "attachments", "notes", "seeAlso"}

// AddByIdentifier adds the work behind a DOI to the library.
//
// If an item with the same DOI already exists the result is unchanged and
// carries the existing key. Otherwise the identifier is translated into item
// metadata and written with collection attached (when non-empty). A DOI that
// cannot be translated, or that the library refuses, gives a failed result;
// the error return is reserved for transport and API problems.
func (c *Client) AddByIdentifier(ctx context.Context, doi, collection string) (*IdentifierResult, error) {
	doi = strings.TrimSpace(doi)
	if doi == "" {
		return &IdentifierResult{Status: IdentifierFailed, Message: "empty identifier"}, nil
	}

	existing, err := c.findByDOI(ctx, doi)
	if err != nil {
		return nil, fmt.Errorf("searching library for %s: %w", doi, err)
	}
	if existing != "" {
		return &IdentifierResult{Status: IdentifierUnchanged, Key: existing}, nil
	}

	items, err := c.translate(ctx, doi)
	if err != nil {
		return &IdentifierResult{Status: IdentifierFailed, Message: err.Error()}, nil
	}
	if len(items) == 0 {
		return &IdentifierResult{Status: IdentifierFailed, Message: "translator returned no items"}, nil
	}

	item := items[0]
	for _, f := range translatorOnlyFields {
		delete(item, f)
	}
	if collection != "" {
		item["collections"] = []string{collection}
	}

	wr, err := c.write(ctx, "/items", []map[string]any{item})
	if err != nil {
		return nil, err
	}
	if key, ok := wr.KeyAt(0); ok {
		return &IdentifierResult{Status: IdentifierCreated, Key: key}, nil
	}
	if f, ok := wr.FailureAt(0); ok {
		return &IdentifierResult{
			Status:  IdentifierFailed,
			Message: fmt.Sprintf("code %d: %s", f.Code, f.Message),
		}, nil
	}
	return &IdentifierResult{Status: IdentifierFailed, Message: "item not in write response"}, nil
}

// findByDOI returns the key of a library item whose DOI matches, or "".
func (c *Client) findByDOI(ctx context.Context, doi string) (string, error) {
	items, err := c.SearchItems(ctx, doi, 10)
	if err != nil {
		return "", err
	}
	want := strings.ToLower(doi)
	for _, it := range items {
		if strings.ToLower(strings.TrimSpace(it.Data.DOI)) == want {
			return it.Key, nil
		}
		// Item types without a DOI field keep it in Extra as "DOI: ...".
		for _, line := range strings.Split(it.Data.Extra, "\n") {
			if k, v, ok := strings.Cut(line, ":"); ok &&
				strings.EqualFold(strings.TrimSpace(k), "doi") &&
				strings.ToLower(strings.TrimSpace(v)) == want {
				return it.Key, nil
			}
		}
	}
	return "", nil
}

// translate asks the translation server for item metadata of an identifier.
func (c *Client) translate(ctx context.Context, identifier string) ([]map[string]any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.translationURL+"/search",
		strings.NewReader(identifier))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("translation server: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("translation server: reading body: %v", err)
	}
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotImplemented:
		return nil, fmt.Errorf("no translator found for %s", identifier)
	case http.StatusMultipleChoices:
		return nil, fmt.Errorf("ambiguous identifier %s", identifier)
	default:
		return nil, fmt.Errorf("translation server status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var items []map[string]any
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("parsing translation: %v", err)
	}
	return items, nil
}
