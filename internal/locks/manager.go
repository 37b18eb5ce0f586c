package locks

import (
	"context"
	"time"

	"courtside/internal/shared/constants"
	"courtside/internal/shared/utils/apperror"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lua script for token-checked release. Deleting unconditionally would let
// a request whose lock already expired release a lock now held by someone
// else.
const luaReleaseLock = `
local key = KEYS[1]
local token = ARGV[1]

local held = redis.call("GET", key)
if not held then
    return 0
end
if held ~= token then
    return -1
end
redis.call("DEL", key)
return 1
`

// Lua script for token-checked TTL extension
const luaExtendLock = `
local key = KEYS[1]
local token = ARGV[1]
local ttl = tonumber(ARGV[2])

local held = redis.call("GET", key)
if not held or held ~= token then
    return 0
end
redis.call("PEXPIRE", key, ttl)
return 1
`

// Manager is the slot lock manager: a short-lived mutual-exclusion primitive
// over Redis, keyed by slot fingerprint. The store-enforced TTL is the safety
// net when a holder crashes mid-reservation.
type Manager struct {
	redis      *redis.Client
	defaultTTL time.Duration

	releaseScript *redis.Script
	extendScript  *redis.Script
}

// NewManager creates a slot lock manager
func NewManager(redisClient *redis.Client, defaultTTL time.Duration) *Manager {
	return &Manager{
		redis:         redisClient,
		defaultTTL:    defaultTTL,
		releaseScript: redis.NewScript(luaReleaseLock),
		extendScript:  redis.NewScript(luaExtendLock),
	}
}

// DefaultTTL returns the configured lock TTL
func (m *Manager) DefaultTTL() time.Duration {
	return m.defaultTTL
}

// Acquire atomically claims the slot identified by fingerprint and returns
// the holder token. A held slot yields a Conflict: the caller must report
// "slot temporarily unavailable", not "slot booked".
func (m *Manager) Acquire(ctx context.Context, fingerprint string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	token := uuid.NewString()
	ok, err := m.redis.SetNX(ctx, constants.BuildSlotLockKey(fingerprint), token, ttl).Result()
	if err != nil {
		return "", apperror.UpstreamTransient("lock store unavailable", err)
	}
	if !ok {
		return "", apperror.Conflict("slot is temporarily held by another reservation")
	}

	return token, nil
}

// Release frees the slot if it is still held with the given token. Releasing
// an already-expired lock is not an error; releasing a lock now held by a
// different token is a conflict.
func (m *Manager) Release(ctx context.Context, fingerprint, token string) error {
	result, err := m.releaseScript.Run(ctx, m.redis, []string{constants.BuildSlotLockKey(fingerprint)}, token).Int()
	if err != nil {
		return apperror.UpstreamTransient("lock store unavailable", err)
	}
	if result == -1 {
		return apperror.Conflict("lock is held by a different owner")
	}
	return nil
}

// Extend renews the TTL of a held lock. Returns a conflict if the lock was
// lost to expiry in the meantime.
func (m *Manager) Extend(ctx context.Context, fingerprint, token string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	result, err := m.extendScript.Run(ctx, m.redis, []string{constants.BuildSlotLockKey(fingerprint)}, token, ttl.Milliseconds()).Int()
	if err != nil {
		return apperror.UpstreamTransient("lock store unavailable", err)
	}
	if result == 0 {
		return apperror.Conflict("lock was lost before extension")
	}
	return nil
}

// PreloadScripts loads the Lua scripts into the Redis script cache so the
// first reservation does not pay the EVAL round trip
func (m *Manager) PreloadScripts(ctx context.Context) error {
	if err := m.releaseScript.Load(ctx, m.redis).Err(); err != nil {
		return err
	}
	return m.extendScript.Load(ctx, m.redis).Err()
}
