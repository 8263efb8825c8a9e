package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/domain/media"
	kit_errors "github.com/CloudBedrock/cribops-wp-kit-sub000/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresAttachmentRepository struct {
	pool *pgxpool.Pool
}

func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &PostgresAttachmentRepository{pool: pool}
}

// Save upserts, since the host may re-announce an attachment whenever its
// metadata is regenerated.
func (r *PostgresAttachmentRepository) Save(ctx context.Context, att *media.Attachment) error {
	if att.ID <= 0 || att.SourcePath == "" {
		return kit_errors.ErrInvalidInput
	}
	if att.CreatedAt.IsZero() {
		att.CreatedAt = time.Now()
	}
	meta, err := json.Marshal(att.Metadata)
	if err != nil {
		return fmt.Errorf("marshal attachment metadata: %w", err)
	}
	query := `
		INSERT INTO attachments (id, source_path, mime_type, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET source_path = EXCLUDED.source_path,
		    mime_type = EXCLUDED.mime_type,
		    metadata = EXCLUDED.metadata
	`
	if _, err := r.pool.Exec(ctx, query, att.ID, att.SourcePath, att.MimeType, meta, att.CreatedAt); err != nil {
		return fmt.Errorf("save attachment: %w", err)
	}
	return nil
}

func (r *PostgresAttachmentRepository) GetByID(ctx context.Context, id int64) (media.Attachment, error) {
	query := `
		SELECT id, source_path, mime_type, metadata, created_at
		FROM attachments
		WHERE id = $1
	`
	var att media.Attachment
	var meta []byte
	row := r.pool.QueryRow(ctx, query, id)
	if err := row.Scan(&att.ID, &att.SourcePath, &att.MimeType, &meta, &att.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return media.Attachment{}, kit_errors.ErrNotFound
		}
		return media.Attachment{}, fmt.Errorf("get attachment: %w", err)
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &att.Metadata); err != nil {
			return media.Attachment{}, fmt.Errorf("unmarshal attachment metadata: %w", err)
		}
	}
	return att, nil
}

func (r *PostgresAttachmentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM attachments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return kit_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresAttachmentRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM attachments`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count attachments: %w", err)
	}
	return count, nil
}

func (r *PostgresAttachmentRepository) UnsyncedIDs(ctx context.Context, limit int) ([]int64, error) {
	query := `
		SELECT a.id
		FROM attachments a
		LEFT JOIN synced_items s ON s.attachment_id = a.id
		WHERE s.attachment_id IS NULL
		ORDER BY a.id
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list unsynced attachments: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan attachment id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
