package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/config"
	kit_errors "github.com/CloudBedrock/cribops-wp-kit-sub000/pkg/errors"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/pkg/logger"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"
)

var assetMediaTypes = map[string]string{
	"css": "text/css",
	"js":  "application/javascript",
}

// AssetService offloads static CSS/JS to the CDN under content-addressed
// keys. Identical content maps to an identical key, which makes the upload
// idempotent and lets the remote object carry immutable caching headers.
type AssetService struct {
	cache    AssetURLCache
	store    ObjectStore
	cfg      config.OffloadConfig
	logger   *logger.Logger
	minifier *minify.M
}

func NewAssetService(cache AssetURLCache, store ObjectStore, cfg config.OffloadConfig, l *logger.Logger) *AssetService {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("application/javascript", js.Minify)
	return &AssetService{
		cache:    cache,
		store:    store,
		cfg:      cfg,
		logger:   l,
		minifier: m,
	}
}

func (s *AssetService) operational() bool {
	return s.cfg.Enabled && s.cfg.IsConfigured() && s.store != nil
}

// CDNURLFor resolves a local CSS/JS source reference to its CDN URL,
// uploading on the first sighting of the content. A cache hit returns with
// zero network calls. Callers fall back to the local URL on any error.
func (s *AssetService) CDNURLFor(ctx context.Context, src, assetType string) (string, error) {
	mediaType, ok := assetMediaTypes[assetType]
	if !ok {
		return "", fmt.Errorf("asset type %q: %w", assetType, kit_errors.ErrInvalidInput)
	}
	if !s.operational() {
		return "", kit_errors.ErrNotConfigured
	}

	rel, err := s.localPath(src)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(filepath.Join(s.cfg.StaticRoot, filepath.FromSlash(rel)))
	if err != nil {
		return "", fmt.Errorf("asset %s: %w", rel, kit_errors.ErrSourceMissing)
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	if url, err := s.cache.GetAssetURL(ctx, hash); err != nil {
		s.logger.Warnf("asset cache lookup for %s: %s", rel, err)
	} else if url != "" {
		return url, nil
	}

	if s.cfg.Minify {
		minified, err := s.minifier.Bytes(mediaType, data)
		if err != nil {
			s.logger.Warnf("minify %s: %s", rel, err)
		} else {
			data = minified
		}
	}

	key := ObjectKey(s.cfg.Prefix, path.Join("assets", assetType, hash+"."+assetType))
	if err := s.store.PutImmutable(ctx, key, mediaType, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("upload asset %s: %w", rel, err)
	}

	url := s.cfg.CDNUrl + "/" + key
	if err := s.cache.SetAssetURL(ctx, hash, url); err != nil {
		s.logger.Warnf("asset cache store for %s: %s", rel, err)
	}
	return url, nil
}

// localPath rejects protocol-relative and cross-origin references and
// returns the path relative to the static root. A version query string
// (style.css?ver=3) is dropped.
func (s *AssetService) localPath(src string) (string, error) {
	if strings.HasPrefix(src, "//") {
		return "", fmt.Errorf("protocol-relative asset %q: %w", src, kit_errors.ErrInvalidInput)
	}
	if strings.Contains(src, "://") {
		if s.cfg.StaticBaseURL == "" || !strings.HasPrefix(src, s.cfg.StaticBaseURL+"/") {
			return "", fmt.Errorf("cross-origin asset %q: %w", src, kit_errors.ErrInvalidInput)
		}
		src = strings.TrimPrefix(src, s.cfg.StaticBaseURL+"/")
	}
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	src = strings.TrimPrefix(src, "/")
	if src == "" || strings.Contains(src, "..") {
		return "", fmt.Errorf("asset path %q: %w", src, kit_errors.ErrInvalidInput)
	}
	return src, nil
}
