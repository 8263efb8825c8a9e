package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/domain/media"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/events"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/repository"
	kit_errors "github.com/CloudBedrock/cribops-wp-kit-sub000/pkg/errors"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/pkg/logger"
)

// SyncHooks connects the host's attachment lifecycle events to the upload
// pipeline. It implements events.SyncHooks.
type SyncHooks struct {
	attachments repository.AttachmentRepository
	uploads     *UploadService
	logger      *logger.Logger
}

func NewSyncHooks(attachments repository.AttachmentRepository, uploads *UploadService, l *logger.Logger) *SyncHooks {
	return &SyncHooks{
		attachments: attachments,
		uploads:     uploads,
		logger:      l,
	}
}

// HandleFinalized registers (or refreshes) the attachment and uploads it.
// A concurrent upload of the same attachment is not an error here: metadata
// regeneration can re-fire the event mid-upload, and the guard exists for
// exactly that cascade.
func (h *SyncHooks) HandleFinalized(ctx context.Context, evt events.AttachmentEvent) error {
	att := media.Attachment{
		ID:         evt.AttachmentID,
		SourcePath: evt.SourcePath,
		MimeType:   evt.MimeType,
	}
	if evt.Metadata != nil {
		att.Metadata = *evt.Metadata
	}
	if err := h.attachments.Save(ctx, &att); err != nil {
		return fmt.Errorf("register attachment %d: %w", evt.AttachmentID, err)
	}

	_, err := h.uploads.Upload(ctx, evt.AttachmentID, false)
	if errors.Is(err, kit_errors.ErrUploadInProgress) {
		h.logger.Infof("attachment %d upload already in flight, event ignored", evt.AttachmentID)
		return nil
	}
	if errors.Is(err, kit_errors.ErrNotConfigured) {
		return nil
	}
	return err
}

// HandleDeleted drops the attachment's ledger rows and best-effort deletes
// its remote objects.
func (h *SyncHooks) HandleDeleted(ctx context.Context, evt events.AttachmentEvent) error {
	return h.uploads.Remove(ctx, evt.AttachmentID)
}
