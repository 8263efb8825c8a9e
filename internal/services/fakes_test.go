package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/config"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/domain/media"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/repository"
	kit_errors "github.com/CloudBedrock/cribops-wp-kit-sub000/pkg/errors"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/pkg/logger"
)

// -------- test fakes --------

func testLogger() *logger.Logger {
	return logger.New(logger.DevelopmentMode)
}

func testOffloadConfig(mediaRoot, staticRoot string) config.OffloadConfig {
	return config.OffloadConfig{
		Bucket:        "test-bucket",
		CDNUrl:        "https://cdn.example.com",
		Region:        "us-east-1",
		Prefix:        "media",
		Enabled:       true,
		MediaRoot:     mediaRoot,
		MediaBaseURL:  "https://example.com/wp-content/uploads",
		StaticRoot:    staticRoot,
		StaticBaseURL: "https://example.com/static",
	}
}

func ledgerKey(attachmentID int64, sourcePath string) string {
	return fmt.Sprintf("%d|%s", attachmentID, sourcePath)
}

type fakeLedger struct {
	repository.LedgerRepository
	mu          sync.Mutex
	rows        map[string]media.SyncedItem
	pathLookups int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{rows: make(map[string]media.SyncedItem)}
}

func (f *fakeLedger) Upsert(ctx context.Context, item *media.SyncedItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item.SyncedAt.IsZero() {
		item.SyncedAt = time.Now()
	}
	f.rows[ledgerKey(item.AttachmentID, item.SourcePath)] = *item
	return nil
}

func (f *fakeLedger) Get(ctx context.Context, attachmentID int64, sourcePath string) (media.SyncedItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[ledgerKey(attachmentID, sourcePath)]; ok {
		return row, nil
	}
	return media.SyncedItem{}, kit_errors.ErrNotFound
}

func (f *fakeLedger) ListByAttachment(ctx context.Context, attachmentID int64) ([]media.SyncedItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []media.SyncedItem
	for _, row := range f.rows {
		if row.AttachmentID == attachmentID {
			items = append(items, row)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SourcePath < items[j].SourcePath })
	return items, nil
}

// hasRows is a fake-only helper used by fakeAttachments.UnsyncedIDs.
func (f *fakeLedger) hasRows(attachmentID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.AttachmentID == attachmentID {
			return true
		}
	}
	return false
}

func (f *fakeLedger) LookupPath(ctx context.Context, sourcePath string) (media.SyncedItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pathLookups++
	for _, row := range f.rows {
		if row.SourcePath == sourcePath {
			return row, nil
		}
	}
	return media.SyncedItem{}, kit_errors.ErrNotFound
}

func (f *fakeLedger) DeleteByAttachment(ctx context.Context, attachmentID int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for key, row := range f.rows {
		if row.AttachmentID == attachmentID {
			keys = append(keys, row.RemoteKey)
			delete(f.rows, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *fakeLedger) CountSyncedAttachments(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[int64]bool)
	for _, row := range f.rows {
		seen[row.AttachmentID] = true
	}
	return int64(len(seen)), nil
}

type fakeAttachments struct {
	repository.AttachmentRepository
	mu     sync.Mutex
	items  map[int64]media.Attachment
	ledger *fakeLedger
}

func newFakeAttachments(ledger *fakeLedger) *fakeAttachments {
	return &fakeAttachments{items: make(map[int64]media.Attachment), ledger: ledger}
}

func (f *fakeAttachments) Save(ctx context.Context, att *media.Attachment) error {
	if att.ID <= 0 || att.SourcePath == "" {
		return kit_errors.ErrInvalidInput
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[att.ID] = *att
	return nil
}

func (f *fakeAttachments) GetByID(ctx context.Context, id int64) (media.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if att, ok := f.items[id]; ok {
		return att, nil
	}
	return media.Attachment{}, kit_errors.ErrNotFound
}

func (f *fakeAttachments) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return kit_errors.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeAttachments) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.items)), nil
}

func (f *fakeAttachments) UnsyncedIDs(ctx context.Context, limit int) ([]int64, error) {
	f.mu.Lock()
	ids := make([]int64, 0, len(f.items))
	for id := range f.items {
		ids = append(ids, id)
	}
	f.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var unsynced []int64
	for _, id := range ids {
		if f.ledger.hasRows(id) {
			continue
		}
		unsynced = append(unsynced, id)
		if len(unsynced) == limit {
			break
		}
	}
	return unsynced, nil
}

type fakeStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	puts       int
	deleted    []string
	failPuts   map[string]bool
	failDelete bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects:  make(map[string][]byte),
		failPuts: make(map[string]bool),
	}
}

func (f *fakeStore) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.failPuts[key] {
		return fmt.Errorf("put %s: simulated transfer failure", key)
	}
	f.objects[key] = data
	return nil
}

func (f *fakeStore) PutImmutable(ctx context.Context, key, contentType string, body io.Reader) error {
	return f.Put(ctx, key, contentType, body)
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	if f.failDelete {
		return fmt.Errorf("delete %s: simulated transfer failure", key)
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) List(ctx context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for key := range f.objects {
		if prefix == "" || len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *fakeStore) HeadBucket(ctx context.Context) error { return nil }

func (f *fakeStore) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func (f *fakeStore) Bucket() string { return "test-bucket" }
func (f *fakeStore) Region() string { return "us-east-1" }

type fakeGuard struct {
	mu   sync.Mutex
	held map[int64]bool
	busy map[int64]bool
	err  error
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{held: make(map[int64]bool), busy: make(map[int64]bool)}
}

func (f *fakeGuard) AcquireUploadGuard(ctx context.Context, attachmentID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.busy[attachmentID] || f.held[attachmentID] {
		return false, nil
	}
	f.held[attachmentID] = true
	return true, nil
}

func (f *fakeGuard) ReleaseUploadGuard(ctx context.Context, attachmentID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.held, attachmentID)
	return nil
}

type fakeProgressStore struct {
	mu      sync.Mutex
	entries map[string]media.SyncProgress
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{entries: make(map[string]media.SyncProgress)}
}

func (f *fakeProgressStore) GetProgress(ctx context.Context, token string) (*media.SyncProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if progress, ok := f.entries[token]; ok {
		copied := progress
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeProgressStore) SetProgress(ctx context.Context, progress *media.SyncProgress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[progress.Token] = *progress
	return nil
}

type fakeAssetCache struct {
	mu   sync.Mutex
	urls map[string]string
	gets int
	sets int
}

func newFakeAssetCache() *fakeAssetCache {
	return &fakeAssetCache{urls: make(map[string]string)}
}

func (f *fakeAssetCache) GetAssetURL(ctx context.Context, contentHash string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	return f.urls[contentHash], nil
}

func (f *fakeAssetCache) SetAssetURL(ctx context.Context, contentHash, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	f.urls[contentHash] = url
	return nil
}
