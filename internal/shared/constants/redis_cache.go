package constants

import (
	"fmt"
	"time"
)

// Redis Key Registry
// This file centralizes Redis key layouts and TTL values so every module
// writes into its own namespace.
// Pattern: courtside:{module}:{operation}:{identifier}:{params?}

const (
	KEY_PREFIX = "courtside"
)

// ================== TTL TIERS ==================

const (
	// Catalog data changes rarely (courts, sub-courts, pricing rules)
	TTL_CATALOG = 6 * time.Hour

	// Availability is invalidated on every confirmation and cancellation,
	// the TTL only bounds staleness when invalidation is missed
	TTL_AVAILABILITY = 30 * time.Second

	// Per-user booking lists
	TTL_USER_BOOKINGS = 10 * time.Minute
)

// ================== COURTS MODULE ==================

const (
	CACHE_KEY_COURTS_LIST  = KEY_PREFIX + ":courts:list"
	CACHE_KEY_AVAILABILITY = KEY_PREFIX + ":availability:" // + sub-court-id:date
)

// ================== SLOT LOCKS ==================

// Lock keys are not cache entries: they are mutual-exclusion records whose
// TTL is the crash-safety net for abandoned reservations.
const (
	KEY_SLOT_LOCK = KEY_PREFIX + ":slot_lock:" // + slot fingerprint
)

// ================== RATE LIMITING ==================

const (
	KEY_RATELIMIT = KEY_PREFIX + ":ratelimit:" // + client-ip:limit-type
)

// ================== HELPER FUNCTIONS ==================

// BuildAvailabilityKey returns the cache key for one sub-court's day grid.
// Example: courtside:availability:5f2b...:2026-09-01
func BuildAvailabilityKey(subCourtID, date string) string {
	return CACHE_KEY_AVAILABILITY + subCourtID + ":" + date
}

// BuildSlotLockKey returns the lock key for a slot fingerprint
func BuildSlotLockKey(fingerprint string) string {
	return KEY_SLOT_LOCK + fingerprint
}

// BuildRateLimitKey returns the sliding-window key for a client and limit type
func BuildRateLimitKey(clientIP, limitType string) string {
	return fmt.Sprintf("%s%s:%s", KEY_RATELIMIT, clientIP, limitType)
}
