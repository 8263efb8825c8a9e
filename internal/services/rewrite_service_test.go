package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/domain/media"
)

func newRewriteFixture(t *testing.T, syncedPaths ...string) (*RewriteService, *fakeLedger) {
	t.Helper()
	ledger := newFakeLedger()
	cfg := testOffloadConfig(t.TempDir(), t.TempDir())
	for _, rel := range syncedPaths {
		require.NoError(t, ledger.Upsert(context.Background(), &media.SyncedItem{
			AttachmentID: 1,
			SourcePath:   rel,
			RemoteKey:    ObjectKey(cfg.Prefix, rel),
			Bucket:       cfg.Bucket,
			Region:       cfg.Region,
			ContentHash:  "deadbeef",
			SyncedAt:     time.Now(),
		}))
	}
	return NewRewriteService(ledger, newFakeStore(), cfg, testLogger()), ledger
}

func TestRewriteURLSyncedPath(t *testing.T) {
	svc, _ := newRewriteFixture(t, "2026/08/photo.jpg")

	got := svc.RewriteURL(context.Background(), "https://example.com/wp-content/uploads/2026/08/photo.jpg", nil)
	assert.Equal(t, "https://cdn.example.com/media/2026/08/photo.jpg", got)
}

func TestRewriteURLUnsyncedPathPassesThrough(t *testing.T) {
	svc, _ := newRewriteFixture(t, "2026/08/photo.jpg")

	in := "https://example.com/wp-content/uploads/2026/08/other.jpg"
	assert.Equal(t, in, svc.RewriteURL(context.Background(), in, nil))
}

func TestRewriteURLForeignHostPassesThrough(t *testing.T) {
	svc, _ := newRewriteFixture(t, "2026/08/photo.jpg")

	in := "https://elsewhere.com/wp-content/uploads/2026/08/photo.jpg"
	assert.Equal(t, in, svc.RewriteURL(context.Background(), in, nil))
}

func TestRewriteURLKeepsQueryAndFragment(t *testing.T) {
	svc, _ := newRewriteFixture(t, "2026/08/photo.jpg")

	got := svc.RewriteURL(context.Background(), "https://example.com/wp-content/uploads/2026/08/photo.jpg?ver=3#top", nil)
	assert.Equal(t, "https://cdn.example.com/media/2026/08/photo.jpg?ver=3#top", got)
}

func TestRewriteURLDisabledPassesThrough(t *testing.T) {
	ledger := newFakeLedger()
	cfg := testOffloadConfig(t.TempDir(), t.TempDir())
	require.NoError(t, ledger.Upsert(context.Background(), &media.SyncedItem{
		AttachmentID: 1, SourcePath: "2026/08/photo.jpg", RemoteKey: "media/2026/08/photo.jpg",
	}))
	in := "https://example.com/wp-content/uploads/2026/08/photo.jpg"

	disabled := cfg
	disabled.Enabled = false
	svc := NewRewriteService(ledger, newFakeStore(), disabled, testLogger())
	assert.Equal(t, in, svc.RewriteURL(context.Background(), in, nil))

	// No object store wired at all.
	svc = NewRewriteService(ledger, nil, cfg, testLogger())
	assert.Equal(t, in, svc.RewriteURL(context.Background(), in, nil))
}

func TestRewriteURLMemoSkipsRepeatLookups(t *testing.T) {
	svc, ledger := newRewriteFixture(t, "2026/08/photo.jpg")
	memo := svc.NewMemo()

	in := "https://example.com/wp-content/uploads/2026/08/photo.jpg"
	first := svc.RewriteURL(context.Background(), in, memo)
	second := svc.RewriteURL(context.Background(), in, memo)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, ledger.pathLookups, "memoized URL must hit the ledger once")
}

func TestRewriteContent(t *testing.T) {
	svc, ledger := newRewriteFixture(t, "2026/08/photo.jpg")

	content := `<img src="https://example.com/wp-content/uploads/2026/08/photo.jpg">` +
		`<img src='https://example.com/wp-content/uploads/2026/08/draft.jpg'>` +
		`see https://example.com/wp-content/uploads/2026/08/photo.jpg and https://elsewhere.com/x.jpg`

	got := svc.RewriteContent(context.Background(), content)

	assert.Contains(t, got, `<img src="https://cdn.example.com/media/2026/08/photo.jpg">`)
	assert.Contains(t, got, `'https://example.com/wp-content/uploads/2026/08/draft.jpg'`, "unsynced reference stays local")
	assert.Contains(t, got, "see https://cdn.example.com/media/2026/08/photo.jpg and https://elsewhere.com/x.jpg")
	assert.Equal(t, 2, ledger.pathLookups, "one lookup per distinct path")
}

func TestRewriteContentNoMatchesReturnsInput(t *testing.T) {
	svc, ledger := newRewriteFixture(t, "2026/08/photo.jpg")

	content := "<p>nothing local here</p>"
	assert.Equal(t, content, svc.RewriteContent(context.Background(), content))
	assert.Equal(t, 0, ledger.pathLookups)
}
