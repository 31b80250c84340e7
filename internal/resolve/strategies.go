package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/matsen/litmerge/internal/crossref"
	"github.com/matsen/litmerge/internal/normalize"
	"github.com/matsen/litmerge/internal/reference"
	"github.com/matsen/litmerge/internal/zotero"
)

// ErrCreateRefused means the library declined to create an item.
var ErrCreateRefused = errors.New("item creation refused")

func recordDOI(rec reference.CanonicalRecord) (string, bool) {
	doi := strings.TrimSpace(rec.DOI)
	return doi, normalize.KeyText(doi) != ""
}

// remoteMetadata builds the item from registry metadata.
type remoteMetadata struct{}

func (remoteMetadata) Name() string { return "remote_metadata" }
func (remoteMetadata) Marks() State { return RemoteMetadataTried }

func (remoteMetadata) Attempt(ctx context.Context, r *Resolver, rec reference.CanonicalRecord) Outcome {
	doi, ok := recordDOI(rec)
	if !ok || r.meta == nil {
		return notResolved(nil)
	}
	log := r.log.With().Int("paper_id", rec.PaperID).Str("strategy", "remote_metadata").Logger()

	log.Info().Str("doi", doi).Msg("1. Attempting metadata query")
	work, err := r.meta.WorkByDOI(ctx, doi)
	if err != nil {
		if crossref.IsNotFound(err) {
			log.Warn().Msg("Metadata query found no work for DOI")
		} else {
			log.Error().Err(err).Msg("Metadata query failed")
		}
		r.pause(ctx, err)
		return notResolved(err)
	}
	if work == nil || work.FirstTitle() == "" {
		log.Warn().Msg("Metadata query returned no usable data")
		return notResolved(nil)
	}

	key, err := r.createItem(ctx, FromWork(work, r.collection))
	if err != nil {
		if errors.Is(err, ErrCreateRefused) {
			log.Info().Err(err).Msg("Item creation failed, will try identifier lookup")
		} else {
			log.Error().Err(err).Msg("Item creation failed")
		}
		return notResolved(err)
	}
	log.Info().Str("item_key", key).Msg("SUCCESS: item created from registry metadata")
	return Outcome{Kind: ResolvedMetadata, ItemKey: key}
}

// identifierLookup lets the library resolve the DOI itself.
type identifierLookup struct{}

func (identifierLookup) Name() string { return "identifier_lookup" }
func (identifierLookup) Marks() State { return IdentifierLookupTried }

func (identifierLookup) Attempt(ctx context.Context, r *Resolver, rec reference.CanonicalRecord) Outcome {
	doi, ok := recordDOI(rec)
	if !ok {
		return notResolved(nil)
	}
	log := r.log.With().Int("paper_id", rec.PaperID).Str("strategy", "identifier_lookup").Logger()

	log.Info().Str("doi", doi).Msg("2. Attempting library identifier lookup")
	res, err := r.lib.AddByIdentifier(ctx, doi, r.collection)
	if err != nil {
		log.Error().Err(err).Msg("Identifier lookup failed")
		r.pause(ctx, err)
		return notResolved(err)
	}

	switch res.Status {
	case zotero.IdentifierCreated:
		log.Info().Str("item_key", res.Key).Msg("SUCCESS: item created via identifier lookup")
		r.ensureInCollection(ctx, res.Key)
		return Outcome{Kind: CreatedIdentifier, ItemKey: res.Key}
	case zotero.IdentifierUnchanged:
		log.Info().Str("item_key", res.Key).Msg("Item already exists in library (unchanged)")
		r.ensureInCollection(ctx, res.Key)
		return Outcome{Kind: FoundIdentifier, ItemKey: res.Key}
	}
	log.Warn().Str("reason", res.Message).Msg("Identifier lookup failed")
	return notResolved(fmt.Errorf("identifier lookup: %s", res.Message))
}

// manualMapping rebuilds the item from the original export row.
type manualMapping struct{}

func (manualMapping) Name() string { return "manual" }
func (manualMapping) Marks() State { return ManualTried }

func (manualMapping) Attempt(ctx context.Context, r *Resolver, rec reference.CanonicalRecord) Outcome {
	log := r.log.With().Int("paper_id", rec.PaperID).Str("strategy", "manual").Logger()

	log.Info().Msg("3. Attempting manual creation from original export data")
	raw, ok := r.lookups.Find(rec.Record)
	if !ok {
		log.Error().
			Str("doi", displayDOI(rec.DOI)).
			Str("title", truncate(rec.ArticleTitle, 30)).
			Msg("Could not find original record")
		return notResolved(fmt.Errorf("%w: paper %d", ErrRecordNotFound, rec.PaperID))
	}
	log.Info().Str("source", string(raw.Schema.DB)).Int("row", raw.Row()+1).Msg("Found original record")

	key, err := r.createItem(ctx, FromRaw(raw, r.collection))
	if err != nil {
		log.Error().Err(err).Msg("Item creation failed")
		return notResolved(err)
	}
	log.Info().Str("item_key", key).Msg("SUCCESS: item created from original export data")
	return Outcome{Kind: ResolvedManual, ItemKey: key}
}

// createItem writes a single item and returns its key.
func (r *Resolver) createItem(ctx context.Context, item zotero.Item) (string, error) {
	resp, err := r.lib.CreateItems(ctx, []zotero.Item{item})
	if err != nil {
		r.pause(ctx, err)
		return "", err
	}
	if key, ok := resp.KeyAt(0); ok {
		return key, nil
	}
	if f, ok := resp.FailureAt(0); ok {
		if f.Code == zotero.CodeDuplicate {
			return "", fmt.Errorf("%w: code %d, likely already exists: %s", ErrCreateRefused, f.Code, f.Message)
		}
		return "", fmt.Errorf("%w: code %d: %s", ErrCreateRefused, f.Code, f.Message)
	}
	return "", fmt.Errorf("%w: unexpected write response", ErrCreateRefused)
}
