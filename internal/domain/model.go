package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Property struct {
	ID                 int64
	ExternalPropertyID string
	Name               string
}

type Room struct {
	ID             int64
	PropertyID     int64
	ExternalRoomID string
	Name           *string
}

// NightlyAvailability is the atomic unit of inventory: one room, one calendar
// night. At most one record exists per (room, date); ingestion overwrites in
// place, no history.
type NightlyAvailability struct {
	RoomID    int64
	Date      time.Time // calendar day at UTC midnight
	Price     decimal.Decimal
	MaxGuests int
}

// SearchCriteria is one availability query. PropertyID carries either the
// caller-facing external id or a display name; the resolver tries both.
type SearchCriteria struct {
	PropertyID string
	CheckIn    time.Time
	CheckOut   time.Time
	Guests     int
}

type RoomOffer struct {
	RoomID     string          `json:"room_id"`
	MaxGuests  int             `json:"max_guests"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type AvailabilityResult struct {
	PropertyID string      `json:"property_id"`
	Rooms      []RoomOffer `json:"rooms"`
}

// RoomNight is one entry of an ingestion feed: a priced night for a room.
type RoomNight struct {
	RoomID    string
	Date      time.Time
	MaxGuests int
	Price     decimal.Decimal
}

type AvailabilityFeed struct {
	PropertyID string
	Name       string
	Rooms      []RoomNight
}
