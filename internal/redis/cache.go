package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/domain/media"

	goredis "github.com/redis/go-redis/v9"
)

// Cache key patterns:
// - asset:{content_hash} - CDN URL of an uploaded content-addressed asset
// - syncjob:{token} - batch sync progress snapshot
// - syncguard:{attachment_id} - short-lived upload re-entrancy guard

// CacheConfig contains TTLs for the offload caches
type CacheConfig struct {
	AssetTTL    time.Duration // TTL for asset URL entries (default 12h)
	ProgressTTL time.Duration // TTL for sync progress entries (default 1h)
	GuardTTL    time.Duration // TTL for the upload guard (default 5m)
}

// DefaultCacheConfig returns sensible defaults
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		AssetTTL:    12 * time.Hour,
		ProgressTTL: time.Hour,
		GuardTTL:    5 * time.Minute,
	}
}

// CacheStore handles the offload subsystem's ephemeral state in Redis.
// Everything here is safe to lose: an asset entry costs a re-upload, a
// progress entry costs a progress-bar restart.
type CacheStore struct {
	client *goredis.Client
	config CacheConfig
}

func NewCacheStore(client *goredis.Client, config CacheConfig) *CacheStore {
	return &CacheStore{
		client: client,
		config: config,
	}
}

// --- Asset URL cache ---

// GetAssetURL returns the cached CDN URL for a content hash, or "" on a miss.
func (c *CacheStore) GetAssetURL(ctx context.Context, contentHash string) (string, error) {
	key := fmt.Sprintf("asset:%s", contentHash)
	url, err := c.client.Get(ctx, key).Result()
	if err == goredis.Nil {
		return "", nil // Cache miss
	}
	if err != nil {
		return "", err
	}
	return url, nil
}

// SetAssetURL caches the CDN URL for a content hash. The content hash already
// guarantees correctness; the TTL only bounds the lookup cache.
func (c *CacheStore) SetAssetURL(ctx context.Context, contentHash, url string) error {
	key := fmt.Sprintf("asset:%s", contentHash)
	return c.client.Set(ctx, key, url, c.config.AssetTTL).Err()
}

// --- Sync progress ---

// GetProgress retrieves a batch sync snapshot, nil on a miss.
func (c *CacheStore) GetProgress(ctx context.Context, token string) (*media.SyncProgress, error) {
	key := fmt.Sprintf("syncjob:%s", token)
	data, err := c.client.Get(ctx, key).Result()
	if err == goredis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, err
	}

	var progress media.SyncProgress
	if err := json.Unmarshal([]byte(data), &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

// SetProgress stores a batch sync snapshot, refreshing its TTL.
func (c *CacheStore) SetProgress(ctx context.Context, progress *media.SyncProgress) error {
	key := fmt.Sprintf("syncjob:%s", progress.Token)
	data, err := json.Marshal(progress)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.config.ProgressTTL).Err()
}

// --- Upload guard ---

// AcquireUploadGuard marks an attachment as having an upload in flight.
// Returns false when another upload already holds the guard. The TTL bounds
// the damage of a crashed holder.
func (c *CacheStore) AcquireUploadGuard(ctx context.Context, attachmentID int64) (bool, error) {
	key := fmt.Sprintf("syncguard:%d", attachmentID)
	return c.client.SetNX(ctx, key, 1, c.config.GuardTTL).Result()
}

// ReleaseUploadGuard clears the in-flight marker.
func (c *CacheStore) ReleaseUploadGuard(ctx context.Context, attachmentID int64) error {
	key := fmt.Sprintf("syncguard:%d", attachmentID)
	return c.client.Del(ctx, key).Err()
}

// Ping checks if Redis is available
func (c *CacheStore) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
