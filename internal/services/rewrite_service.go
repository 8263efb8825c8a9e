package services

import (
	"context"
	"errors"
	"strings"

	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/config"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/repository"
	kit_errors "github.com/CloudBedrock/cribops-wp-kit-sub000/pkg/errors"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/pkg/logger"
)

// RewriteService rewrites outbound media URLs to the CDN. It never points at
// an object that is not ledger-confirmed synced: for any unsynced path the
// input passes through unmodified.
type RewriteService struct {
	ledger repository.LedgerRepository
	store  ObjectStore
	cfg    config.OffloadConfig
	logger *logger.Logger
}

// Memo is a request-scoped cache from original URL to rewritten URL. A
// gallery render repeats the same URL many times; the memo keeps that at one
// ledger lookup. Not safe for concurrent use; make one per request.
type Memo map[string]string

func NewRewriteService(ledger repository.LedgerRepository, store ObjectStore, cfg config.OffloadConfig, l *logger.Logger) *RewriteService {
	return &RewriteService{
		ledger: ledger,
		store:  store,
		cfg:    cfg,
		logger: l,
	}
}

func (s *RewriteService) NewMemo() Memo {
	return make(Memo)
}

// The gate is re-evaluated per call rather than latched at construction.
func (s *RewriteService) operational() bool {
	return s.cfg.Enabled && s.cfg.IsConfigured() && s.store != nil && s.cfg.MediaBaseURL != ""
}

// RewriteURL substitutes the local media base URL with the CDN base for
// ledger-confirmed paths. memo may be nil.
func (s *RewriteService) RewriteURL(ctx context.Context, rawURL string, memo Memo) string {
	if !s.operational() {
		return rawURL
	}

	base := s.cfg.MediaBaseURL + "/"
	if !strings.HasPrefix(rawURL, base) {
		return rawURL
	}

	if memo != nil {
		if rewritten, ok := memo[rawURL]; ok {
			return rewritten
		}
	}

	rel := strings.TrimPrefix(rawURL, base)
	suffix := ""
	if i := strings.IndexAny(rel, "?#"); i >= 0 {
		rel, suffix = rel[:i], rel[i:]
	}

	out := rawURL
	item, err := s.ledger.LookupPath(ctx, rel)
	switch {
	case err == nil:
		out = s.cfg.CDNUrl + "/" + item.RemoteKey + suffix
	case !errors.Is(err, kit_errors.ErrNotFound):
		s.logger.Warnf("rewrite: ledger lookup for %s: %s", rel, err)
	}

	if memo != nil {
		memo[rawURL] = out
	}
	return out
}

// RewriteContent scans free-form text for occurrences of the local media
// base URL and rewrites only those whose path is ledger-confirmed, leaving
// unsynced references untouched.
func (s *RewriteService) RewriteContent(ctx context.Context, content string) string {
	if !s.operational() {
		return content
	}

	base := s.cfg.MediaBaseURL + "/"
	if !strings.Contains(content, base) {
		return content
	}

	memo := s.NewMemo()
	var b strings.Builder
	b.Grow(len(content))

	rest := content
	for {
		i := strings.Index(rest, base)
		if i < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:i])

		end := i + len(base)
		for end < len(rest) && !isURLBoundary(rest[end]) {
			end++
		}
		b.WriteString(s.RewriteURL(ctx, rest[i:end], memo))
		rest = rest[end:]
	}
	return b.String()
}

func isURLBoundary(c byte) bool {
	switch c {
	case '"', '\'', ' ', '\t', '\n', '\r', '<', '>', '(', ')', ',', ';', '\\':
		return true
	}
	return false
}
