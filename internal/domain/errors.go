package domain

import "errors"

var (
	// ErrNotFound is the storage-level miss (no row). The resolver turns it
	// into ErrPropertyNotFound once both lookup strategies have failed.
	ErrNotFound = errors.New("not found")

	ErrPropertyNotFound = errors.New("property not found")
	ErrInvalidDateRange = errors.New("invalid date range: check-out must be after check-in")

	// ErrConfiguration marks malformed cache configuration. Fatal for the
	// calling resolution; defaulting silently would produce unbounded TTLs or
	// untagged (unevictable) cache entries.
	ErrConfiguration = errors.New("caching configuration is missing or invalid")
)
