package mysql

// The LAST_INSERT_ID(id) trick on the duplicate path makes LastInsertId()
// report the existing row's id, so upserts return identity on both insert
// and update.

const upsertPropertySQL = `
INSERT INTO properties (external_property_id, name)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE
  id         = LAST_INSERT_ID(id),
  name       = VALUES(name),
  updated_at = CURRENT_TIMESTAMP
`

const upsertRoomSQL = `
INSERT INTO rooms (property_id, external_room_id)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE
  id         = LAST_INSERT_ID(id),
  updated_at = CURRENT_TIMESTAMP
`

// Overwrite semantics: a later feed for the same (room, date) replaces
// price/max_guests in place, no history.
const upsertAvailabilitySQL = `
INSERT INTO room_availabilities (room_id, date, price, max_guests)
VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  price      = VALUES(price),
  max_guests = VALUES(max_guests),
  updated_at = CURRENT_TIMESTAMP
`

const findPropertyByExternalIDSQL = `
SELECT id, external_property_id, name
FROM properties
WHERE external_property_id = ?
`

// Case-insensitive exact match; conversational callers send lowercase names.
const findPropertyByNameSQL = `
SELECT id, external_property_id, name
FROM properties
WHERE LOWER(name) = LOWER(?)
LIMIT 1
`

const listRoomsSQL = `
SELECT id, property_id, external_room_id, name
FROM rooms
WHERE property_id = ?
ORDER BY id
`

// listAvailabilityPrefix gets its IN (...) placeholders appended per query;
// the unique (room_id, date) key guarantees at most one row per night.
const listAvailabilityPrefix = `
SELECT room_id, date, price, max_guests
FROM room_availabilities
WHERE room_id = ? AND date IN `

const listAvailabilitySuffix = `
ORDER BY date`
