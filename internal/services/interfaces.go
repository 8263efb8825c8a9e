package services

import (
	"context"
	"io"

	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/domain/media"
)

// ObjectStore is the capability surface of the remote bucket. A nil
// ObjectStore means the CDN is disabled for this process; every service
// treats that as a no-op, never as a fatal condition.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) error
	PutImmutable(ctx context.Context, key, contentType string, body io.Reader) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
	HeadBucket(ctx context.Context) error
	PublicURL(key string) string
	Bucket() string
	Region() string
}

// UploadGuard prevents re-entrant uploads of the same attachment, as fired
// by nested metadata-update cascades. Implementations hold the marker only
// briefly; a lost release self-heals via TTL.
type UploadGuard interface {
	AcquireUploadGuard(ctx context.Context, attachmentID int64) (bool, error)
	ReleaseUploadGuard(ctx context.Context, attachmentID int64) error
}

// AssetURLCache memoizes CDN URLs of uploaded assets by content hash.
type AssetURLCache interface {
	GetAssetURL(ctx context.Context, contentHash string) (string, error)
	SetAssetURL(ctx context.Context, contentHash, url string) error
}

// ProgressStore persists batch sync snapshots between polling calls.
type ProgressStore interface {
	GetProgress(ctx context.Context, token string) (*media.SyncProgress, error)
	SetProgress(ctx context.Context, progress *media.SyncProgress) error
}

// Uploader is the unit of idempotent work the batch coordinator drives.
type Uploader interface {
	Upload(ctx context.Context, attachmentID int64, force bool) (UploadResult, error)
}

// EventPublisher broadcasts lifecycle events to interested host layers.
// Publishing is fire and forget; a nil publisher disables it.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}
