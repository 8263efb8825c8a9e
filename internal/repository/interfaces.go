package repository

import (
	"context"

	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/domain/media"
)

// AttachmentRepository is the registry of logical media items the host has
// announced. It is the population the batch sync walks.
type AttachmentRepository interface {
	Save(ctx context.Context, att *media.Attachment) error
	GetByID(ctx context.Context, id int64) (media.Attachment, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)

	// UnsyncedIDs returns attachments with zero ledger rows, oldest first.
	// The stable order lets repeated batch calls make monotonic progress
	// without a cursor.
	UnsyncedIDs(ctx context.Context, limit int) ([]int64, error)
}

// LedgerRepository is the durable record of what has been uploaded where.
type LedgerRepository interface {
	Upsert(ctx context.Context, item *media.SyncedItem) error
	Get(ctx context.Context, attachmentID int64, sourcePath string) (media.SyncedItem, error)
	ListByAttachment(ctx context.Context, attachmentID int64) ([]media.SyncedItem, error)
	// LookupPath finds the ledger row for a source path regardless of which
	// attachment owns it. The URL rewriter uses the stored remote key, so
	// emitted CDN URLs always match what was actually uploaded.
	LookupPath(ctx context.Context, sourcePath string) (media.SyncedItem, error)

	// DeleteByAttachment removes every ledger row of the attachment and
	// returns the remote keys that were recorded, so the caller can issue
	// best-effort remote deletes.
	DeleteByAttachment(ctx context.Context, attachmentID int64) ([]string, error)

	CountSyncedAttachments(ctx context.Context) (int64, error)
}
