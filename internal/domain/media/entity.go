package media

import (
	"path"
	"time"
)

// Attachment is one logical media item registered by the host application.
// A single attachment owns one or more physical file variants: the original
// upload plus every derived size recorded in its metadata.
type Attachment struct {
	ID         int64     `json:"id"`
	SourcePath string    `json:"source_path"`
	MimeType   string    `json:"mime_type,omitempty"`
	Metadata   Metadata  `json:"metadata"`
	CreatedAt  time.Time `json:"created_at"`
}

// Metadata mirrors the host's attachment metadata: registered derived sizes
// keyed by size name.
type Metadata struct {
	Sizes map[string]SizeVariant `json:"sizes,omitempty"`
}

type SizeVariant struct {
	File   string `json:"file"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// VariantPaths returns every physical file path of the attachment, relative
// to the media root: the original first, then each registered size resolved
// against the original's directory. Duplicates are dropped.
func (a Attachment) VariantPaths() []string {
	if a.SourcePath == "" {
		return nil
	}
	paths := []string{a.SourcePath}
	seen := map[string]bool{a.SourcePath: true}
	dir := path.Dir(a.SourcePath)
	for _, size := range a.Metadata.Sizes {
		if size.File == "" {
			continue
		}
		p := size.File
		if dir != "." {
			p = path.Join(dir, size.File)
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		paths = append(paths, p)
	}
	return paths
}

// SyncedItem is one ledger row: a physical file variant that has been
// uploaded to the object store. There is at most one row per
// (attachment_id, source_path) pair; re-uploads replace it in place.
type SyncedItem struct {
	AttachmentID int64     `json:"attachment_id"`
	SourcePath   string    `json:"source_path"`
	RemoteKey    string    `json:"remote_key"`
	Bucket       string    `json:"bucket"`
	Region       string    `json:"region"`
	ContentHash  string    `json:"content_hash"`
	SyncedAt     time.Time `json:"synced_at"`
}

type SyncStatus string

const (
	SyncStatusNotStarted  SyncStatus = "not_started"
	SyncStatusDownloading SyncStatus = "downloading"
	SyncStatusInProgress  SyncStatus = "in_progress"
	SyncStatusCompleted   SyncStatus = "completed"
	SyncStatusFailed      SyncStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s SyncStatus) Terminal() bool {
	return s == SyncStatusCompleted || s == SyncStatusFailed
}

// SyncProgress is the ephemeral snapshot of one batch sync run, keyed by an
// opaque job token. Loss only costs a progress-bar restart.
type SyncProgress struct {
	Token             string     `json:"token"`
	Status            SyncStatus `json:"status"`
	TotalAttachments  int64      `json:"total_attachments"`
	SyncedAttachments int64      `json:"synced_attachments"`
	ProcessedCount    int64      `json:"processed_count"`
	SuccessCount      int64      `json:"success_count"`
	FailedCount       int64      `json:"failed_count"`
	RemainingCount    int64      `json:"remaining_count"`
	PercentComplete   int        `json:"percent_complete"`
	StartedAt         time.Time  `json:"started_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
