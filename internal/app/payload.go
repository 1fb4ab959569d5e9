package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"stayfinder/internal/domain"
)

// ErrInvalidPayload marks a structurally invalid ingestion payload (rejected
// before any storage work).
var ErrInvalidPayload = errors.New("invalid availability payload")

// AvailabilityPayload is the wire shape of the ingestion feed.
type AvailabilityPayload struct {
	PropertyID string        `json:"property_id"`
	Name       string        `json:"name"`
	Rooms      []RoomPayload `json:"rooms"`
}

type RoomPayload struct {
	RoomID    string          `json:"room_id"`
	Date      string          `json:"date"`
	MaxGuests int             `json:"max_guests"`
	Price     decimal.Decimal `json:"price"`
}

const maxIdentifierLen = 255

// MapFeed validates the payload and converts it into the domain ingestion
// input. Dates are parsed as naive calendar days (YYYY-MM-DD, UTC).
func MapFeed(p AvailabilityPayload) (domain.AvailabilityFeed, error) {
	if p.PropertyID == "" || len(p.PropertyID) > maxIdentifierLen {
		return domain.AvailabilityFeed{}, fmt.Errorf("%w: property_id is required (max %d chars)", ErrInvalidPayload, maxIdentifierLen)
	}
	if p.Name == "" || len(p.Name) > maxIdentifierLen {
		return domain.AvailabilityFeed{}, fmt.Errorf("%w: name is required (max %d chars)", ErrInvalidPayload, maxIdentifierLen)
	}
	if len(p.Rooms) == 0 {
		return domain.AvailabilityFeed{}, fmt.Errorf("%w: rooms must contain at least one entry", ErrInvalidPayload)
	}

	feed := domain.AvailabilityFeed{
		PropertyID: p.PropertyID,
		Name:       p.Name,
		Rooms:      make([]domain.RoomNight, 0, len(p.Rooms)),
	}
	for i, r := range p.Rooms {
		if r.RoomID == "" || len(r.RoomID) > maxIdentifierLen {
			return domain.AvailabilityFeed{}, fmt.Errorf("%w: rooms[%d].room_id is required (max %d chars)", ErrInvalidPayload, i, maxIdentifierLen)
		}
		date, err := time.ParseInLocation("2006-01-02", r.Date, time.UTC)
		if err != nil {
			return domain.AvailabilityFeed{}, fmt.Errorf("%w: rooms[%d].date %q is not YYYY-MM-DD", ErrInvalidPayload, i, r.Date)
		}
		if r.MaxGuests < 1 {
			return domain.AvailabilityFeed{}, fmt.Errorf("%w: rooms[%d].max_guests must be at least 1", ErrInvalidPayload, i)
		}
		if r.Price.IsNegative() {
			return domain.AvailabilityFeed{}, fmt.Errorf("%w: rooms[%d].price cannot be negative", ErrInvalidPayload, i)
		}
		feed.Rooms = append(feed.Rooms, domain.RoomNight{
			RoomID:    r.RoomID,
			Date:      date,
			MaxGuests: r.MaxGuests,
			Price:     r.Price,
		})
	}
	return feed, nil
}
