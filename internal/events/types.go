package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/domain/media"
)

// Event types follow the format: domain.action

// Attachment lifecycle events, published by the host layer
const (
	EventTypeAttachmentFinalized = "attachment.finalized"
	EventTypeAttachmentDeleted   = "attachment.deleted"
)

// Batch sync events, published by the coordinator
const (
	EventTypeSyncStarted   = "sync.started"
	EventTypeSyncCompleted = "sync.completed"
)

// Envelope is the wire format carried over the bus.
type Envelope struct {
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// AttachmentEvent is the payload of attachment.* events. For finalized
// events the host includes the file path and metadata so the core can keep
// its registry current.
type AttachmentEvent struct {
	AttachmentID int64           `json:"attachment_id"`
	SourcePath   string          `json:"source_path,omitempty"`
	MimeType     string          `json:"mime_type,omitempty"`
	Metadata     *media.Metadata `json:"metadata,omitempty"`
}

// SyncEvent is the payload of sync.* events.
type SyncEvent struct {
	Token             string `json:"token"`
	TotalAttachments  int64  `json:"total_attachments"`
	SyncedAttachments int64  `json:"synced_attachments"`
}

// Handler consumes one decoded envelope.
type Handler func(ctx context.Context, env Envelope) error
