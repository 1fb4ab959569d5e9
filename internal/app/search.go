package app

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"stayfinder/internal/domain"
)

type SearchService struct {
	store    domain.InventoryStore
	cache    domain.TaggedCache
	settings domain.CacheSettings
}

func NewSearchService(store domain.InventoryStore, cache domain.TaggedCache, settings domain.CacheSettings) *SearchService {
	return &SearchService{store: store, cache: cache, settings: settings}
}

// Resolve answers one availability query, serving from the tagged cache when a
// live entry exists and computing (then caching) otherwise. Domain errors are
// never cached; only successful results enter the cache.
func (s *SearchService) Resolve(ctx context.Context, c domain.SearchCriteria) (domain.AvailabilityResult, error) {
	if err := s.settings.Validate(); err != nil {
		log.Error().Err(err).Msg("availability caching configuration rejected")
		return domain.AvailabilityResult{}, err
	}

	key := cacheKey(s.settings.KeyPrefix, c)
	tags := cacheTags(s.settings.BaseTags, s.settings.TagPrefix, c.PropertyID)

	var cached domain.AvailabilityResult
	if ok, _ := s.cache.Get(ctx, key, &cached); ok {
		return cached, nil
	}
	log.Debug().Str("key", key).Strs("tags", tags).Msg("availability cache miss")

	res, err := s.resolveFresh(ctx, c)
	if err != nil {
		return domain.AvailabilityResult{}, err
	}
	_ = s.cache.SetTagged(ctx, key, res, tags, s.settings.TTL)
	return res, nil
}

func (s *SearchService) resolveFresh(ctx context.Context, c domain.SearchCriteria) (domain.AvailabilityResult, error) {
	prop, err := s.lookupProperty(ctx, c.PropertyID)
	if err != nil {
		return domain.AvailabilityResult{}, err
	}

	nights, count := domain.StayNights(c.CheckIn, c.CheckOut)
	if count == 0 {
		return domain.AvailabilityResult{}, domain.ErrInvalidDateRange
	}

	rooms, err := s.store.ListRoomsForProperty(ctx, prop.ID)
	if err != nil {
		return domain.AvailabilityResult{}, err
	}

	// Rooms are evaluated and emitted in store enumeration order.
	offers := make([]domain.RoomOffer, 0, len(rooms))
	for _, room := range rooms {
		offer, err := s.evaluateRoom(ctx, room, nights, count, c.Guests)
		if err != nil {
			return domain.AvailabilityResult{}, err
		}
		if offer == nil {
			log.Debug().Int64("room_id", room.ID).Msg("room not available for the stay")
			continue
		}
		offers = append(offers, *offer)
	}
	return domain.AvailabilityResult{PropertyID: prop.ExternalPropertyID, Rooms: offers}, nil
}

// lookupProperty tries display name first (case-insensitive), then external
// id.
func (s *SearchService) lookupProperty(ctx context.Context, identifier string) (domain.Property, error) {
	p, err := s.store.FindPropertyByName(ctx, identifier)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Property{}, err
	}
	p, err = s.store.FindPropertyByExternalID(ctx, identifier)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Property{}, fmt.Errorf("%w: %q", domain.ErrPropertyNotFound, identifier)
	}
	return p, err
}

// evaluateRoom decides availability of one room across the required nights.
// A room qualifies only when every night has a record and every record admits
// the requested guest count; the offer carries the exact price sum and the
// minimum nightly max_guests (the binding constraint).
func (s *SearchService) evaluateRoom(ctx context.Context, room domain.Room, nights []time.Time, nightCount, guests int) (*domain.RoomOffer, error) {
	records, err := s.store.ListNightlyAvailability(ctx, room.ID, nights)
	if err != nil {
		return nil, err
	}
	if len(records) != nightCount {
		return nil, nil // any missing night disqualifies the whole stay
	}

	total := decimal.Zero
	minGuests := 0
	for _, rec := range records {
		if rec.MaxGuests < guests {
			return nil, nil
		}
		total = total.Add(rec.Price)
		if minGuests == 0 || rec.MaxGuests < minGuests {
			minGuests = rec.MaxGuests
		}
	}
	return &domain.RoomOffer{
		RoomID:     room.ExternalRoomID,
		MaxGuests:  minGuests,
		TotalPrice: total,
	}, nil
}

// cacheKey fingerprints the criteria: the four fields serialized in canonical
// sorted order and md5-hashed under the configured prefix, so field order at
// the caller never changes the key.
func cacheKey(prefix string, c domain.SearchCriteria) string {
	params := url.Values{}
	params.Set("check_in", c.CheckIn.Format("2006-01-02"))
	params.Set("check_out", c.CheckOut.Format("2006-01-02"))
	params.Set("guests", strconv.Itoa(c.Guests))
	params.Set("property_id", c.PropertyID)
	sum := md5.Sum([]byte(params.Encode())) // Encode emits keys sorted
	return prefix + "_" + hex.EncodeToString(sum[:])
}

func cacheTags(base []string, tagPrefix, propertyID string) []string {
	tags := make([]string, 0, len(base)+1)
	seen := make(map[string]struct{}, len(base)+1)
	for _, t := range append(append([]string(nil), base...), tagPrefix+":"+propertyID) {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	return tags
}
