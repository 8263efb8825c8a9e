package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/domain/media"
	kit_errors "github.com/CloudBedrock/cribops-wp-kit-sub000/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresLedgerRepository struct {
	pool *pgxpool.Pool
}

func NewLedgerRepository(pool *pgxpool.Pool) LedgerRepository {
	return &PostgresLedgerRepository{pool: pool}
}

func (r *PostgresLedgerRepository) Upsert(ctx context.Context, item *media.SyncedItem) error {
	if item.SyncedAt.IsZero() {
		item.SyncedAt = time.Now()
	}
	query := `
		INSERT INTO synced_items (attachment_id, source_path, remote_key, bucket, region, content_hash, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (attachment_id, source_path) DO UPDATE
		SET remote_key = EXCLUDED.remote_key,
		    bucket = EXCLUDED.bucket,
		    region = EXCLUDED.region,
		    content_hash = EXCLUDED.content_hash,
		    synced_at = EXCLUDED.synced_at
	`
	_, err := r.pool.Exec(ctx, query,
		item.AttachmentID, item.SourcePath, item.RemoteKey,
		item.Bucket, item.Region, item.ContentHash, item.SyncedAt)
	if err != nil {
		return fmt.Errorf("upsert synced item: %w", err)
	}
	return nil
}

func (r *PostgresLedgerRepository) Get(ctx context.Context, attachmentID int64, sourcePath string) (media.SyncedItem, error) {
	query := `
		SELECT attachment_id, source_path, remote_key, bucket, region, content_hash, synced_at
		FROM synced_items
		WHERE attachment_id = $1 AND source_path = $2
	`
	var item media.SyncedItem
	row := r.pool.QueryRow(ctx, query, attachmentID, sourcePath)
	err := row.Scan(&item.AttachmentID, &item.SourcePath, &item.RemoteKey,
		&item.Bucket, &item.Region, &item.ContentHash, &item.SyncedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return media.SyncedItem{}, kit_errors.ErrNotFound
		}
		return media.SyncedItem{}, fmt.Errorf("get synced item: %w", err)
	}
	return item, nil
}

func (r *PostgresLedgerRepository) ListByAttachment(ctx context.Context, attachmentID int64) ([]media.SyncedItem, error) {
	query := `
		SELECT attachment_id, source_path, remote_key, bucket, region, content_hash, synced_at
		FROM synced_items
		WHERE attachment_id = $1
		ORDER BY source_path
	`
	rows, err := r.pool.Query(ctx, query, attachmentID)
	if err != nil {
		return nil, fmt.Errorf("list synced items: %w", err)
	}
	defer rows.Close()

	var items []media.SyncedItem
	for rows.Next() {
		var item media.SyncedItem
		if err := rows.Scan(&item.AttachmentID, &item.SourcePath, &item.RemoteKey,
			&item.Bucket, &item.Region, &item.ContentHash, &item.SyncedAt); err != nil {
			return nil, fmt.Errorf("scan synced item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *PostgresLedgerRepository) LookupPath(ctx context.Context, sourcePath string) (media.SyncedItem, error) {
	query := `
		SELECT attachment_id, source_path, remote_key, bucket, region, content_hash, synced_at
		FROM synced_items
		WHERE source_path = $1
		LIMIT 1
	`
	var item media.SyncedItem
	row := r.pool.QueryRow(ctx, query, sourcePath)
	err := row.Scan(&item.AttachmentID, &item.SourcePath, &item.RemoteKey,
		&item.Bucket, &item.Region, &item.ContentHash, &item.SyncedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return media.SyncedItem{}, kit_errors.ErrNotFound
		}
		return media.SyncedItem{}, fmt.Errorf("lookup synced path: %w", err)
	}
	return item, nil
}

func (r *PostgresLedgerRepository) DeleteByAttachment(ctx context.Context, attachmentID int64) ([]string, error) {
	query := `
		DELETE FROM synced_items
		WHERE attachment_id = $1
		RETURNING remote_key
	`
	rows, err := r.pool.Query(ctx, query, attachmentID)
	if err != nil {
		return nil, fmt.Errorf("delete synced items: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan remote key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (r *PostgresLedgerRepository) CountSyncedAttachments(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(DISTINCT attachment_id) FROM synced_items`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count synced attachments: %w", err)
	}
	return count, nil
}
