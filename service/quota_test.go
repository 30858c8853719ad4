package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"clipstream/video-api/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotaTracker_DefaultsAndRemaining(t *testing.T) {
	q := NewQuotaTracker(1000)

	rec := q.Usage("alice")
	assert.Equal(t, int64(1000), rec.Quota)
	assert.Equal(t, int64(0), rec.Used)
	assert.Equal(t, int64(1000), q.Remaining("alice"))
}

func TestQuotaTracker_CanUploadBoundary(t *testing.T) {
	q := NewQuotaTracker(1000)

	assert.True(t, q.CanUpload("alice", 1000))
	assert.False(t, q.CanUpload("alice", 1001))

	q.Record("alice", 400, model.UploadSummary{ID: "a"})

	// canUpload is false exactly when size > remaining
	assert.True(t, q.CanUpload("alice", 600))
	assert.False(t, q.CanUpload("alice", 601))
}

func TestQuotaTracker_RecordDecrementsRemainingBySize(t *testing.T) {
	q := NewQuotaTracker(1000)

	before := q.Remaining("alice")
	q.Record("alice", 250, model.UploadSummary{ID: "a", Size: 250})
	assert.Equal(t, before-250, q.Remaining("alice"))

	rec := q.Usage("alice")
	require.Len(t, rec.Uploads, 1)
	assert.Equal(t, "a", rec.Uploads[0].ID)
}

func TestQuotaTracker_RemainingFloorsAtZero(t *testing.T) {
	q := NewQuotaTracker(100)

	// Two racing completions can push used past quota; the stored
	// remaining still floors at zero
	q.Record("alice", 80, model.UploadSummary{})
	q.Record("alice", 80, model.UploadSummary{})

	assert.Equal(t, int64(160), q.Usage("alice").Used)
	assert.Equal(t, int64(0), q.Remaining("alice"))
}

func TestQuotaTracker_NearlyFullRejectsSmallUpload(t *testing.T) {
	q := NewQuotaTracker(5_000_000_000)
	q.Record("alice", 4_999_000_000, model.UploadSummary{})

	remainingBefore := q.Remaining("alice")
	assert.False(t, q.CanUpload("alice", 2_000_000))
	assert.Equal(t, remainingBefore, q.Remaining("alice"), "a rejected check must not change anything")
}

func TestQuotaTracker_SetQuotaOverride(t *testing.T) {
	q := NewQuotaTracker(1000)

	q.SetQuota("bob", 50)
	assert.False(t, q.CanUpload("bob", 51))
	assert.True(t, q.CanUpload("bob", 50))
}

func TestQuotaTracker_ConcurrentRecordsDontLoseIncrements(t *testing.T) {
	q := NewQuotaTracker(1 << 40)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Record("alice", 10, model.UploadSummary{})
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000), q.Usage("alice").Used)
	assert.Len(t, q.Usage("alice").Uploads, 100)
}

func TestQuotaTracker_StrictUsageSumsOwnerTags(t *testing.T) {
	store := newFakeStore()
	now := time.Now()

	store.objects = []fakeObject{
		{key: "a.mp4", size: 100, lastModified: now, tagging: encodeTags(ObjectMeta{
			ID: "a", OwnerID: "alice", Size: 100, UploadedAt: now})},
		{key: "b.mp4", size: 250, lastModified: now, tagging: encodeTags(ObjectMeta{
			ID: "b", OwnerID: "alice", Size: 250, UploadedAt: now})},
		{key: "c.mp4", size: 999, lastModified: now, tagging: encodeTags(ObjectMeta{
			ID: "c", OwnerID: "bob", Size: 999, UploadedAt: now})},
	}

	q := NewQuotaTracker(1000)
	used, err := q.StrictUsage(context.Background(), store, "clips", "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(350), used)
}
