package domain

import (
	"context"
	"fmt"
	"time"
)

type InventoryStore interface {
	// Write paths (ingestion only)
	UpsertProperty(ctx context.Context, externalID, name string) (Property, error)
	UpsertRoom(ctx context.Context, propertyID int64, externalRoomID string) (Room, error)
	UpsertNightlyAvailability(ctx context.Context, n NightlyAvailability) error

	// Read paths
	FindPropertyByExternalID(ctx context.Context, externalID string) (Property, error)
	FindPropertyByName(ctx context.Context, name string) (Property, error)
	ListRoomsForProperty(ctx context.Context, propertyID int64) ([]Room, error)
	// ListNightlyAvailability returns at most one record per requested night,
	// ordered by date.
	ListNightlyAvailability(ctx context.Context, roomID int64, nights []time.Time) ([]NightlyAvailability, error)
}

// TxInventoryStore adds the transactional envelope ingestion needs: fn runs
// against a store bound to one transaction; any error rolls everything back.
type TxInventoryStore interface {
	InventoryStore
	Transact(ctx context.Context, fn func(InventoryStore) error) error
}

// TaggedCache is a TTL cache whose entries carry tags for bulk invalidation.
// Entries expire at a fixed TTL (no refresh on read) or earlier when one of
// their tags is invalidated. Invalidation is only ever by tag, never by key
// pattern.
type TaggedCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	SetTagged(ctx context.Context, key string, v any, tags []string, ttl time.Duration) error
	InvalidateTag(ctx context.Context, tag string) error
}

// CacheSettings mirror the availability section of the caching config.
type CacheSettings struct {
	KeyPrefix string
	BaseTags  []string
	TagPrefix string
	TTL       time.Duration
}

func (s CacheSettings) Validate() error {
	if s.KeyPrefix == "" {
		return fmt.Errorf("%w: key prefix is empty", ErrConfiguration)
	}
	if len(s.BaseTags) == 0 {
		return fmt.Errorf("%w: base tags are empty", ErrConfiguration)
	}
	for _, t := range s.BaseTags {
		if t == "" {
			return fmt.Errorf("%w: base tags contain an empty tag", ErrConfiguration)
		}
	}
	if s.TagPrefix == "" {
		return fmt.Errorf("%w: tag prefix is empty", ErrConfiguration)
	}
	if s.TTL <= 0 {
		return fmt.Errorf("%w: ttl must be positive", ErrConfiguration)
	}
	return nil
}
