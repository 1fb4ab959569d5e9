package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"stayfinder/internal/domain"
)

type IngestionService struct {
	store     domain.TxInventoryStore
	cache     domain.TaggedCache
	tagPrefix string
}

func NewIngestionService(store domain.TxInventoryStore, cache domain.TaggedCache, tagPrefix string) *IngestionService {
	return &IngestionService{store: store, cache: cache, tagPrefix: tagPrefix}
}

// Ingest lands one feed payload as a single transaction: property first, then
// room and nightly-availability upserts per entry in input order. Either every
// upsert commits or none does, so a failed ingestion can be retried safely.
// After commit the property's cache tag is invalidated best-effort: a failed
// invalidation leaves a stale window until TTL but never fails a committed
// ingestion.
func (s *IngestionService) Ingest(ctx context.Context, feed domain.AvailabilityFeed) error {
	err := s.store.Transact(ctx, func(tx domain.InventoryStore) error {
		prop, err := tx.UpsertProperty(ctx, feed.PropertyID, feed.Name)
		if err != nil {
			return fmt.Errorf("upsert property %s: %w", feed.PropertyID, err)
		}
		for _, rn := range feed.Rooms {
			room, err := tx.UpsertRoom(ctx, prop.ID, rn.RoomID)
			if err != nil {
				return fmt.Errorf("upsert room %s: %w", rn.RoomID, err)
			}
			night := domain.NightlyAvailability{
				RoomID:    room.ID,
				Date:      rn.Date,
				Price:     rn.Price,
				MaxGuests: rn.MaxGuests,
			}
			if err := tx.UpsertNightlyAvailability(ctx, night); err != nil {
				return fmt.Errorf("upsert availability %s/%s: %w",
					rn.RoomID, rn.Date.Format("2006-01-02"), err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.cache != nil {
		tag := s.tagPrefix + ":" + feed.PropertyID
		if err := s.cache.InvalidateTag(ctx, tag); err != nil {
			log.Warn().Err(err).Str("tag", tag).Msg("cache invalidation failed after ingest; entries stay until TTL")
		}
	}

	log.Info().
		Str("property_id", feed.PropertyID).
		Int("entries", len(feed.Rooms)).
		Msg("availability feed ingested")
	return nil
}
