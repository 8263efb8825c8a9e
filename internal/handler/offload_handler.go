package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/config"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/domain/media"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/repository"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/services"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/transport/httpdto"
	kit_errors "github.com/CloudBedrock/cribops-wp-kit-sub000/pkg/errors"

	"github.com/gin-gonic/gin"
)

// OffloadHandler is the admin surface of the CDN offload subsystem: status,
// connectivity test, attachment registration, and the client-polled batch
// sync. Errors surface as messages and codes, never raw transport errors.
type OffloadHandler struct {
	cfg         config.OffloadConfig
	store       services.ObjectStore
	batch       *services.BatchService
	uploads     *services.UploadService
	attachments repository.AttachmentRepository
}

func NewOffloadHandler(
	cfg config.OffloadConfig,
	store services.ObjectStore,
	batch *services.BatchService,
	uploads *services.UploadService,
	attachments repository.AttachmentRepository,
) *OffloadHandler {
	return &OffloadHandler{
		cfg:         cfg,
		store:       store,
		batch:       batch,
		uploads:     uploads,
		attachments: attachments,
	}
}

func (h *OffloadHandler) Status(c *gin.Context) {
	resp := httpdto.OffloadStatusResponse{
		Configured:  h.cfg.IsConfigured(),
		Enabled:     h.cfg.Enabled,
		Operational: h.cfg.Enabled && h.cfg.IsConfigured() && h.store != nil,
		Bucket:      h.cfg.Bucket,
		Region:      h.cfg.Region,
		CDNUrl:      h.cfg.CDNUrl,
		Prefix:      h.cfg.Prefix,
	}

	snapshot, err := h.batch.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("could not compute sync status", "STATUS_FAILED"))
		return
	}
	resp.TotalAttachments = snapshot.TotalAttachments
	resp.SyncedAttachments = snapshot.SyncedAttachments
	resp.PendingCount = snapshot.PendingCount
	resp.PercentComplete = snapshot.PercentComplete

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(resp))
}

func (h *OffloadHandler) TestConnection(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.TestConnectionResponse{
			OK:      false,
			Message: "CDN offload is not configured; set bucket and CDN URL first",
		}))
		return
	}
	if err := h.store.HeadBucket(c.Request.Context()); err != nil {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.TestConnectionResponse{
			OK:      false,
			Message: "Could not reach bucket " + h.cfg.Bucket + "; check credentials and region",
		}))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.TestConnectionResponse{
		OK:      true,
		Message: "Connected to bucket " + h.cfg.Bucket,
	}))
}

func (h *OffloadHandler) StartSync(c *gin.Context) {
	progress, err := h.batch.Start(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("could not start sync", "SYNC_START_FAILED"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(progress))
}

func (h *OffloadHandler) ProcessBatch(c *gin.Context) {
	token := c.Param("token")
	// An absent or empty body is fine; the batch size then defaults.
	var req httpdto.ProcessBatchRequest
	_ = c.ShouldBindJSON(&req)

	progress, err := h.batch.ProcessBatch(c.Request.Context(), token, req.BatchSize)
	if err != nil {
		if errors.Is(err, kit_errors.ErrNotFound) {
			c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("unknown or expired sync job", "SYNC_NOT_FOUND"))
			return
		}
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("batch processing failed", "SYNC_BATCH_FAILED"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(progress))
}

func (h *OffloadHandler) Progress(c *gin.Context) {
	progress, err := h.batch.Progress(c.Request.Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, kit_errors.ErrNotFound) {
			c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("unknown or expired sync job", "SYNC_NOT_FOUND"))
			return
		}
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("could not load sync progress", "SYNC_PROGRESS_FAILED"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(progress))
}

func (h *OffloadHandler) RegisterAttachment(c *gin.Context) {
	var req httpdto.RegisterAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	att := media.Attachment{
		ID:         req.ID,
		SourcePath: req.SourcePath,
		MimeType:   req.MimeType,
	}
	if req.Metadata != nil {
		att.Metadata = *req.Metadata
	}
	if err := h.attachments.Save(c.Request.Context(), &att); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("could not register attachment", "REQUEST_FAILED"))
		return
	}

	// Upload errors do not fail registration; the batch sync retries later
	// and the result tallies tell the caller what happened.
	result, _ := h.uploads.Upload(c.Request.Context(), att.ID, false)
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(result))
}

func (h *OffloadHandler) DeleteAttachment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid attachment id", "INVALID_REQUEST"))
		return
	}
	if err := h.uploads.Remove(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("could not delete attachment", "REQUEST_FAILED"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *OffloadHandler) RemoteObjects(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse("CDN offload is not configured", "NOT_CONFIGURED"))
		return
	}
	prefix := c.Query("prefix")
	keys, err := h.store.List(c.Request.Context(), prefix)
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("could not list remote objects", "REQUEST_FAILED"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.RemoteObjectsResponse{
		Prefix: prefix,
		Keys:   keys,
		Count:  len(keys),
	}))
}
