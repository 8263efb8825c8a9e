package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/domain/media"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/events"
	kit_errors "github.com/CloudBedrock/cribops-wp-kit-sub000/pkg/errors"
)

func TestHandleFinalizedRegistersAndUploads(t *testing.T) {
	f := newUploadFixture(t)
	hooks := NewSyncHooks(f.attachments, f.svc, testLogger())

	f.writeFile(t, "2026/08/photo.jpg", "original bytes")
	f.writeFile(t, "2026/08/photo-150x150.jpg", "thumb bytes")

	err := hooks.HandleFinalized(context.Background(), events.AttachmentEvent{
		AttachmentID: 5,
		SourcePath:   "2026/08/photo.jpg",
		MimeType:     "image/jpeg",
		Metadata: &media.Metadata{Sizes: map[string]media.SizeVariant{
			"thumbnail": {File: "photo-150x150.jpg"},
		}},
	})
	require.NoError(t, err)

	att, err := f.attachments.GetByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "2026/08/photo.jpg", att.SourcePath)

	rows, err := f.ledger.ListByAttachment(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestHandleFinalizedContentionIsIgnored(t *testing.T) {
	f := newUploadFixture(t)
	hooks := NewSyncHooks(f.attachments, f.svc, testLogger())

	f.writeFile(t, "2026/08/photo.jpg", "original bytes")
	f.guard.busy[5] = true

	err := hooks.HandleFinalized(context.Background(), events.AttachmentEvent{
		AttachmentID: 5,
		SourcePath:   "2026/08/photo.jpg",
	})
	assert.NoError(t, err, "a concurrent upload is expected during metadata cascades")
}

func TestHandleFinalizedUnconfiguredStillRegisters(t *testing.T) {
	f := newUploadFixture(t)
	unconfigured := NewUploadService(f.attachments, f.ledger, nil, f.guard, f.cfg, testLogger())
	hooks := NewSyncHooks(f.attachments, unconfigured, testLogger())

	err := hooks.HandleFinalized(context.Background(), events.AttachmentEvent{
		AttachmentID: 5,
		SourcePath:   "2026/08/photo.jpg",
	})
	require.NoError(t, err)

	_, err = f.attachments.GetByID(context.Background(), 5)
	assert.NoError(t, err, "the registry stays current even with the CDN off")
}

func TestHandleFinalizedInvalidEvent(t *testing.T) {
	f := newUploadFixture(t)
	hooks := NewSyncHooks(f.attachments, f.svc, testLogger())

	err := hooks.HandleFinalized(context.Background(), events.AttachmentEvent{AttachmentID: 5})
	assert.ErrorIs(t, err, kit_errors.ErrInvalidInput)
}

func TestHandleDeleted(t *testing.T) {
	f := newUploadFixture(t)
	hooks := NewSyncHooks(f.attachments, f.svc, testLogger())

	f.addAttachment(t, 3, "2026/08/gone.jpg")
	_, err := f.svc.Upload(context.Background(), 3, false)
	require.NoError(t, err)

	err = hooks.HandleDeleted(context.Background(), events.AttachmentEvent{AttachmentID: 3})
	require.NoError(t, err)

	rows, err := f.ledger.ListByAttachment(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Empty(t, f.store.objects)
}
