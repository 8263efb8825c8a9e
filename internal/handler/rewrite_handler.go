package handler

import (
	"net/http"

	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/services"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// RewriteHandler exposes the URL/content rewrite filter to host layers that
// render output. Unsynced or foreign URLs come back unchanged.
type RewriteHandler struct {
	rewrites *services.RewriteService
	assets   *services.AssetService
}

func NewRewriteHandler(rewrites *services.RewriteService, assets *services.AssetService) *RewriteHandler {
	return &RewriteHandler{rewrites: rewrites, assets: assets}
}

func (h *RewriteHandler) Rewrite(c *gin.Context) {
	var req httpdto.RewriteRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.URL == "" && req.Content == "") {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("url or content is required", "INVALID_REQUEST"))
		return
	}

	resp := httpdto.RewriteResponse{}
	if req.URL != "" {
		resp.URL = h.rewrites.RewriteURL(c.Request.Context(), req.URL, nil)
	}
	if req.Content != "" {
		resp.Content = h.rewrites.RewriteContent(c.Request.Context(), req.Content)
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(resp))
}

// Asset resolves a local CSS/JS reference to its CDN URL, uploading on first
// sight. On any failure the caller keeps using the local URL.
func (h *RewriteHandler) Asset(c *gin.Context) {
	src := c.Query("src")
	assetType := c.Query("type")
	if src == "" || assetType == "" {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("src and type are required", "INVALID_REQUEST"))
		return
	}

	url, err := h.assets.CDNURLFor(c.Request.Context(), src, assetType)
	if err != nil {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.RewriteResponse{URL: src}))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.RewriteResponse{URL: url}))
}
