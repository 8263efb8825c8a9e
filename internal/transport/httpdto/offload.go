package httpdto

import "github.com/CloudBedrock/cribops-wp-kit-sub000/internal/domain/media"

type RegisterAttachmentRequest struct {
	ID         int64           `json:"id" binding:"required"`
	SourcePath string          `json:"source_path" binding:"required"`
	MimeType   string          `json:"mime_type"`
	Metadata   *media.Metadata `json:"metadata"`
}

type RewriteRequest struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

type RewriteResponse struct {
	URL     string `json:"url,omitempty"`
	Content string `json:"content,omitempty"`
}

type OffloadStatusResponse struct {
	Configured        bool   `json:"configured"`
	Enabled           bool   `json:"enabled"`
	Operational       bool   `json:"operational"`
	Bucket            string `json:"bucket,omitempty"`
	Region            string `json:"region,omitempty"`
	CDNUrl            string `json:"cdn_url,omitempty"`
	Prefix            string `json:"prefix,omitempty"`
	TotalAttachments  int64  `json:"total_attachments"`
	SyncedAttachments int64  `json:"synced_attachments"`
	PendingCount      int64  `json:"pending_count"`
	PercentComplete   int    `json:"percent_complete"`
}

type TestConnectionResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type ProcessBatchRequest struct {
	BatchSize int `json:"batch_size"`
}

type RemoteObjectsResponse struct {
	Prefix string   `json:"prefix,omitempty"`
	Keys   []string `json:"keys"`
	Count  int      `json:"count"`
}
