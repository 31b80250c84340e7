package resolve

import (
	"context"
	"errors"

	"github.com/matsen/litmerge/internal/zotero"
)

// ensureInCollection adds an existing item to the target collection.
//
// The update is optimistic: it sends the version it read, and if the item
// changed in between it refetches and retries once. Any remaining failure is
// logged; the item itself still counts as resolved.
func (r *Resolver) ensureInCollection(ctx context.Context, key string) {
	log := r.log.With().Str("item_key", key).Logger()
	if r.collection == "" || key == "" {
		log.Info().Msg("Skipping add to collection: no target collection")
		return
	}
	log = log.With().Str("collection", r.collection).Logger()
	log.Info().Msg("Checking/adding item to collection")

	for attempt := 0; attempt < 2; attempt++ {
		item, err := r.lib.Item(ctx, key)
		if err != nil {
			log.Error().Err(err).Msg("Could not fetch item data")
			r.pause(ctx, err)
			return
		}
		if item.InCollection(r.collection) {
			log.Info().Msg("Item already in collection")
			return
		}

		cols := append(append([]string{}, item.Data.Collections...), r.collection)
		err = r.lib.UpdateCollections(ctx, key, item.Version, cols)
		if err == nil {
			log.Info().Msg("Added item to collection")
			return
		}
		if errors.Is(err, zotero.ErrStaleVersion) && attempt == 0 {
			log.Warn().Int("version", item.Version).Msg("Item version is stale, refetching")
			continue
		}
		log.Error().Err(err).Msg("Could not add item to collection")
		r.pause(ctx, err)
		return
	}
}
