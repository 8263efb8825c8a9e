package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/domain/media"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/events"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/repository"
	kit_errors "github.com/CloudBedrock/cribops-wp-kit-sub000/pkg/errors"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/pkg/logger"

	"github.com/google/uuid"
)

const (
	DefaultBatchSize = 10
	MaxBatchSize     = 100
)

// BatchService drives the resumable bulk sync of the existing media library.
// Each ProcessBatch call is self-contained and safe to abandon; the external
// poller simply calls again until nothing remains. Concurrent pollers cost
// redundant network work at worst, never corruption.
type BatchService struct {
	attachments repository.AttachmentRepository
	ledger      repository.LedgerRepository
	uploader    Uploader
	progress    ProgressStore
	bus         EventPublisher
	logger      *logger.Logger
}

// StatusSnapshot is the point-in-time library view used by the admin status
// surface and by Start.
type StatusSnapshot struct {
	TotalAttachments  int64 `json:"total_attachments"`
	SyncedAttachments int64 `json:"synced_attachments"`
	PendingCount      int64 `json:"pending_count"`
	PercentComplete   int   `json:"percent_complete"`
}

func NewBatchService(
	attachments repository.AttachmentRepository,
	ledger repository.LedgerRepository,
	uploader Uploader,
	progress ProgressStore,
	bus EventPublisher,
	l *logger.Logger,
) *BatchService {
	return &BatchService{
		attachments: attachments,
		ledger:      ledger,
		uploader:    uploader,
		progress:    progress,
		bus:         bus,
		logger:      l,
	}
}

// publish is best effort; a dead bus never fails a sync operation.
func (s *BatchService) publish(ctx context.Context, eventType string, progress media.SyncProgress) {
	if s.bus == nil {
		return
	}
	evt := events.SyncEvent{
		Token:             progress.Token,
		TotalAttachments:  progress.TotalAttachments,
		SyncedAttachments: progress.SyncedAttachments,
	}
	if err := s.bus.Publish(ctx, eventType, evt); err != nil {
		s.logger.Warnf("publish %s for sync %s: %s", eventType, progress.Token, err)
	}
}

// Status computes library totals. An empty library is vacuously fully
// synced: percent_complete is 100 when total is zero.
func (s *BatchService) Status(ctx context.Context) (StatusSnapshot, error) {
	total, err := s.attachments.Count(ctx)
	if err != nil {
		return StatusSnapshot{}, fmt.Errorf("count attachments: %w", err)
	}
	synced, err := s.ledger.CountSyncedAttachments(ctx)
	if err != nil {
		return StatusSnapshot{}, fmt.Errorf("count synced attachments: %w", err)
	}
	return StatusSnapshot{
		TotalAttachments:  total,
		SyncedAttachments: synced,
		PendingCount:      total - synced,
		PercentComplete:   percentComplete(synced, total),
	}, nil
}

// Start creates a new sync job and returns its initial snapshot. The token
// correlates the caller's subsequent ProcessBatch calls.
func (s *BatchService) Start(ctx context.Context) (media.SyncProgress, error) {
	snapshot, err := s.Status(ctx)
	if err != nil {
		return media.SyncProgress{}, err
	}

	now := time.Now()
	progress := media.SyncProgress{
		Token:             uuid.NewString(),
		Status:            media.SyncStatusInProgress,
		TotalAttachments:  snapshot.TotalAttachments,
		SyncedAttachments: snapshot.SyncedAttachments,
		RemainingCount:    snapshot.PendingCount,
		PercentComplete:   snapshot.PercentComplete,
		StartedAt:         now,
		UpdatedAt:         now,
	}
	if progress.RemainingCount == 0 {
		progress.Status = media.SyncStatusCompleted
	}

	if err := s.progress.SetProgress(ctx, &progress); err != nil {
		return media.SyncProgress{}, fmt.Errorf("store sync progress: %w", err)
	}

	if progress.Status == media.SyncStatusCompleted {
		s.publish(ctx, events.EventTypeSyncCompleted, progress)
	} else {
		s.publish(ctx, events.EventTypeSyncStarted, progress)
	}
	return progress, nil
}

// Progress returns the stored snapshot for a job token.
func (s *BatchService) Progress(ctx context.Context, token string) (media.SyncProgress, error) {
	progress, err := s.progress.GetProgress(ctx, token)
	if err != nil {
		return media.SyncProgress{}, fmt.Errorf("load sync progress: %w", err)
	}
	if progress == nil {
		return media.SyncProgress{}, kit_errors.ErrNotFound
	}
	return *progress, nil
}

// ProcessBatch uploads up to batchSize currently-unsynced attachments and
// returns the updated snapshot. Per-item failures are tallied, never fatal
// to the batch.
func (s *BatchService) ProcessBatch(ctx context.Context, token string, batchSize int) (media.SyncProgress, error) {
	progress, err := s.progress.GetProgress(ctx, token)
	if err != nil {
		return media.SyncProgress{}, fmt.Errorf("load sync progress: %w", err)
	}
	if progress == nil {
		return media.SyncProgress{}, kit_errors.ErrNotFound
	}

	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if batchSize > MaxBatchSize {
		batchSize = MaxBatchSize
	}

	ids, err := s.attachments.UnsyncedIDs(ctx, batchSize)
	if err != nil {
		return media.SyncProgress{}, fmt.Errorf("list unsynced attachments: %w", err)
	}

	var succeeded, failed int
	for _, id := range ids {
		progress.ProcessedCount++
		if _, err := s.uploader.Upload(ctx, id, false); err != nil {
			if errors.Is(err, kit_errors.ErrUploadInProgress) {
				// Another poller has it; it will show up as synced.
				s.logger.Infof("batch %s: attachment %d already uploading, skipped", token, id)
				continue
			}
			failed++
			progress.FailedCount++
			s.logger.Errorf("batch %s: attachment %d: %s", token, id, err)
			continue
		}
		succeeded++
		progress.SuccessCount++
	}

	snapshot, err := s.Status(ctx)
	if err != nil {
		return media.SyncProgress{}, err
	}
	progress.TotalAttachments = snapshot.TotalAttachments
	progress.SyncedAttachments = snapshot.SyncedAttachments
	progress.RemainingCount = snapshot.PendingCount
	progress.PercentComplete = snapshot.PercentComplete
	progress.UpdatedAt = time.Now()

	wasCompleted := progress.Status == media.SyncStatusCompleted
	switch {
	case progress.RemainingCount == 0:
		progress.Status = media.SyncStatusCompleted
	case len(ids) > 0 && succeeded == 0 && failed == len(ids):
		// Every item in a non-empty batch failed; surface it instead of
		// letting the poller spin forever.
		progress.Status = media.SyncStatusFailed
	default:
		progress.Status = media.SyncStatusInProgress
	}

	if err := s.progress.SetProgress(ctx, progress); err != nil {
		return media.SyncProgress{}, fmt.Errorf("store sync progress: %w", err)
	}

	if progress.Status == media.SyncStatusCompleted && !wasCompleted {
		s.publish(ctx, events.EventTypeSyncCompleted, *progress)
	}
	return *progress, nil
}

func percentComplete(synced, total int64) int {
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(synced) / float64(total) * 100))
}
