package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/campus-connect/internal/config"
	"github.com/oggyb/campus-connect/internal/db"
)

// ProfileTTL is how long a cached profile lives without being read.
const ProfileTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

// NewFromClient wraps an existing client (tests, shared pools).
func NewFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{Client: client}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	return c.Client.Del(ctx, keys...).Err()
}

// KeyForProfile generates Redis key for a cached profile
func (c *RedisCache) KeyForProfile(id string) string {
	return fmt.Sprintf("profile:%s", id)
}

// SetProfile stores the profile as JSON. Always refreshes TTL.
func (c *RedisCache) SetProfile(ctx context.Context, p *db.Profile) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	return c.Client.Set(ctx, c.KeyForProfile(p.ID), b, ProfileTTL).Err()
}

// GetProfile returns the cached profile, or (nil, nil) on a cache miss.
func (c *RedisCache) GetProfile(ctx context.Context, id string) (*db.Profile, error) {
	key := c.KeyForProfile(id)
	val, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // cache miss
	} else if err != nil {
		return nil, err
	}

	var p db.Profile
	if err := json.Unmarshal(val, &p); err != nil {
		// corrupt entry, drop it and fall back to the DB
		_ = c.Client.Del(ctx, key).Err()
		return nil, nil
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, ProfileTTL).Err()
	return &p, nil
}

// InvalidateProfile drops the cached profile.
func (c *RedisCache) InvalidateProfile(ctx context.Context, id string) error {
	return c.Client.Del(ctx, c.KeyForProfile(id)).Err()
}

func keyForRevokedToken(jti string) string {
	return fmt.Sprintf("session:revoked:%s", jti)
}

func keyForRevokedUser(userID string) string {
	return fmt.Sprintf("session:revoked-user:%s", userID)
}

// RevokeToken marks one token id as revoked until it would have expired anyway.
func (c *RedisCache) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already expired
	}
	return c.Client.Set(ctx, keyForRevokedToken(jti), 1, ttl).Err()
}

// IsTokenRevoked reports whether the token id was revoked.
func (c *RedisCache) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := c.Client.Exists(ctx, keyForRevokedToken(jti)).Result()
	return n > 0, err
}

// RevokeUser revokes every token of the user issued at or before `at`.
func (c *RedisCache) RevokeUser(ctx context.Context, userID string, at time.Time, ttl time.Duration) error {
	return c.Client.Set(ctx, keyForRevokedUser(userID), at.Unix(), ttl).Err()
}

// UserRevokedSince returns the revocation cut-off for the user, zero when none.
func (c *RedisCache) UserRevokedSince(ctx context.Context, userID string) (time.Time, error) {
	val, err := c.Client.Get(ctx, keyForRevokedUser(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	} else if err != nil {
		return time.Time{}, err
	}
	sec, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, nil
	}
	return time.Unix(sec, 0), nil
}

func keyForIdempotency(sender, key string) string {
	return fmt.Sprintf("chat:idem:%s:%s", sender, key)
}

// ReserveMessageKey claims a client message key for the sender.
//
// Behavior:
//   - First caller wins (SET NX) and gets (0, true).
//   - A later caller gets the stored message id, or (0, false) while the first send is in flight.
//   - The claim only lives for lease; a sender that dies mid-send frees the key
//     when the lease runs out. CompleteMessageKey extends it to the full TTL.
func (c *RedisCache) ReserveMessageKey(ctx context.Context, sender, key string, lease time.Duration) (uint64, bool, error) {
	k := keyForIdempotency(sender, key)
	ok, err := c.Client.SetNX(ctx, k, 0, lease).Result()
	if err != nil {
		return 0, false, err
	}
	if ok {
		return 0, true, nil
	}
	val, err := c.Client.Get(ctx, k).Uint64()
	if err != nil {
		return 0, false, err
	}
	return val, false, nil
}

// CompleteMessageKey stores the message id produced for the key.
func (c *RedisCache) CompleteMessageKey(ctx context.Context, sender, key string, messageID uint64, ttl time.Duration) error {
	return c.Client.Set(ctx, keyForIdempotency(sender, key), messageID, ttl).Err()
}

// ReleaseMessageKey frees a reservation whose send failed, so the client can retry.
func (c *RedisCache) ReleaseMessageKey(ctx context.Context, sender, key string) error {
	return c.Client.Del(ctx, keyForIdempotency(sender, key)).Err()
}
