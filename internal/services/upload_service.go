package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/config"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/domain/media"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/repository"
	kit_errors "github.com/CloudBedrock/cribops-wp-kit-sub000/pkg/errors"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/pkg/logger"
)

// UploadService uploads every physical variant of a logical media item and
// records a ledger row per variant. Uploads are idempotent: the remote PUT
// is keyed, the ledger row is an upsert, and unchanged variants are skipped
// by content hash.
type UploadService struct {
	attachments repository.AttachmentRepository
	ledger      repository.LedgerRepository
	store       ObjectStore
	guard       UploadGuard
	cfg         config.OffloadConfig
	logger      *logger.Logger
}

// UploadResult tallies one pipeline run over an attachment's variants.
type UploadResult struct {
	AttachmentID int64 `json:"attachment_id"`
	Uploaded     int   `json:"uploaded"`
	Skipped      int   `json:"skipped"`
	Failed       int   `json:"failed"`
}

func NewUploadService(
	attachments repository.AttachmentRepository,
	ledger repository.LedgerRepository,
	store ObjectStore,
	guard UploadGuard,
	cfg config.OffloadConfig,
	l *logger.Logger,
) *UploadService {
	return &UploadService{
		attachments: attachments,
		ledger:      ledger,
		store:       store,
		guard:       guard,
		cfg:         cfg,
		logger:      l,
	}
}

func (s *UploadService) operational() bool {
	return s.cfg.Enabled && s.cfg.IsConfigured() && s.store != nil
}

// Upload pushes every variant of the attachment to the bucket. Variants
// whose ledger hash already matches the local bytes are skipped unless force
// is set. Per-variant failures are logged and counted; successful variants
// keep their ledger rows even when the overall result is a failure, so a
// later run only re-attempts what is missing.
func (s *UploadService) Upload(ctx context.Context, attachmentID int64, force bool) (UploadResult, error) {
	result := UploadResult{AttachmentID: attachmentID}

	if !s.operational() {
		return result, kit_errors.ErrNotConfigured
	}

	acquired, err := s.guard.AcquireUploadGuard(ctx, attachmentID)
	if err != nil {
		// Fail open: an extra idempotent upload is cheaper than a blocked one.
		s.logger.Warnf("upload guard unavailable for attachment %d: %s", attachmentID, err)
	} else if !acquired {
		return result, kit_errors.ErrUploadInProgress
	} else {
		defer func() {
			if err := s.guard.ReleaseUploadGuard(ctx, attachmentID); err != nil {
				s.logger.Warnf("release upload guard for attachment %d: %s", attachmentID, err)
			}
		}()
	}

	att, err := s.attachments.GetByID(ctx, attachmentID)
	if err != nil {
		return result, fmt.Errorf("load attachment %d: %w", attachmentID, err)
	}

	basePath := filepath.Join(s.cfg.MediaRoot, filepath.FromSlash(att.SourcePath))
	if _, err := os.Stat(basePath); err != nil {
		return result, fmt.Errorf("attachment %d base file %s: %w", attachmentID, att.SourcePath, kit_errors.ErrSourceMissing)
	}

	variants := att.VariantPaths()
	for _, rel := range variants {
		skipped, err := s.uploadVariant(ctx, attachmentID, rel, force)
		if err != nil {
			s.logger.Errorf("upload attachment %d variant %s: %s", attachmentID, rel, err)
			result.Failed++
			continue
		}
		if skipped {
			result.Skipped++
		} else {
			result.Uploaded++
		}
	}

	if result.Failed > 0 {
		return result, fmt.Errorf("%d of %d variants failed: %w", result.Failed, len(variants), kit_errors.ErrTransferFailed)
	}
	return result, nil
}

func (s *UploadService) uploadVariant(ctx context.Context, attachmentID int64, rel string, force bool) (skipped bool, _ error) {
	abs := filepath.Join(s.cfg.MediaRoot, filepath.FromSlash(rel))
	data, err := os.ReadFile(abs)
	if err != nil {
		return false, fmt.Errorf("read variant: %w", kit_errors.ErrSourceMissing)
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	if !force {
		existing, err := s.ledger.Get(ctx, attachmentID, rel)
		if err == nil && existing.ContentHash == hash && existing.Bucket == s.cfg.Bucket {
			return true, nil
		}
		if err != nil && !errors.Is(err, kit_errors.ErrNotFound) {
			s.logger.Warnf("ledger lookup for attachment %d variant %s: %s", attachmentID, rel, err)
		}
	}

	key := ObjectKey(s.cfg.Prefix, rel)
	if err := s.store.Put(ctx, key, contentTypeFor(rel), bytes.NewReader(data)); err != nil {
		return false, fmt.Errorf("put %s: %w", key, err)
	}

	item := &media.SyncedItem{
		AttachmentID: attachmentID,
		SourcePath:   rel,
		RemoteKey:    key,
		Bucket:       s.store.Bucket(),
		Region:       s.store.Region(),
		ContentHash:  hash,
		SyncedAt:     time.Now(),
	}
	if err := s.ledger.Upsert(ctx, item); err != nil {
		return false, fmt.Errorf("record ledger row for %s: %w", key, err)
	}
	return false, nil
}

// Remove deletes the attachment's ledger rows first and then issues
// best-effort remote deletes. Remote failures are logged, never swallowed
// silently, but the rows are already gone so a future re-sync is never
// blocked.
func (s *UploadService) Remove(ctx context.Context, attachmentID int64) error {
	keys, err := s.ledger.DeleteByAttachment(ctx, attachmentID)
	if err != nil {
		return fmt.Errorf("delete ledger rows for attachment %d: %w", attachmentID, err)
	}

	if s.store != nil {
		for _, key := range keys {
			if err := s.store.Delete(ctx, key); err != nil {
				s.logger.Errorf("remote delete %s for attachment %d: %s", key, attachmentID, err)
			}
		}
	}

	if err := s.attachments.Delete(ctx, attachmentID); err != nil && !errors.Is(err, kit_errors.ErrNotFound) {
		return fmt.Errorf("delete attachment %d: %w", attachmentID, err)
	}
	return nil
}

// ObjectKey builds the destination key: prefix/relative_path, prefix omitted
// when empty.
func ObjectKey(prefix, rel string) string {
	if prefix == "" {
		return rel
	}
	return prefix + "/" + rel
}

func contentTypeFor(rel string) string {
	if ct := mime.TypeByExtension(filepath.Ext(rel)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
