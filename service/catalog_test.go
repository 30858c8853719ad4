package service

import (
	"testing"

	"clipstream/video-api/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_PutGet(t *testing.T) {
	cat := NewCatalog()

	_, ok := cat.Get("missing")
	assert.False(t, ok)

	cat.Put(model.VideoRecord{ID: "v1", OriginalName: "clip.mp4"})

	rec, ok := cat.Get("v1")
	require.True(t, ok)
	assert.Equal(t, "clip.mp4", rec.OriginalName)
	assert.Equal(t, 1, cat.Len())
}

func TestCatalog_PutPreservesNotifiedSentinel(t *testing.T) {
	cat := NewCatalog()

	cat.Put(model.VideoRecord{ID: "v1"})
	require.True(t, cat.MarkNotified("v1"))

	// Re-putting the record (e.g. after a counter save) must not rearm
	// the notification
	cat.Put(model.VideoRecord{ID: "v1", Views: 5})
	assert.False(t, cat.MarkNotified("v1"))
}

func TestCatalog_MarkNotifiedOnlyOnce(t *testing.T) {
	cat := NewCatalog()
	cat.Put(model.VideoRecord{ID: "v1"})

	assert.True(t, cat.MarkNotified("v1"))
	assert.False(t, cat.MarkNotified("v1"))
	assert.False(t, cat.MarkNotified("unknown"))
}

func TestCatalog_Counters(t *testing.T) {
	cat := NewCatalog()
	cat.Put(model.VideoRecord{ID: "v1"})

	n, ok := cat.AddView("v1")
	require.True(t, ok)
	assert.Equal(t, int64(1), n)

	cat.AddView("v1")
	cat.AddDownload("v1")
	cat.AddShare("v1")

	rec, _ := cat.Get("v1")
	assert.Equal(t, int64(2), rec.Views)
	assert.Equal(t, int64(1), rec.DownloadCount)
	assert.Equal(t, int64(1), rec.ShareCount)

	_, ok = cat.AddView("missing")
	assert.False(t, ok)
}

func TestCatalog_ScanVisitsEverything(t *testing.T) {
	cat := NewCatalog()
	cat.Put(model.VideoRecord{ID: "a", Size: 1})
	cat.Put(model.VideoRecord{ID: "b", Size: 2})
	cat.Put(model.VideoRecord{ID: "c", Size: 4})

	var total int64
	cat.Scan(func(rec model.VideoRecord) bool {
		total += rec.Size
		return true
	})
	assert.Equal(t, int64(7), total)

	// Early exit stops the scan
	var visited int
	cat.Scan(func(rec model.VideoRecord) bool {
		visited++
		return false
	})
	assert.Equal(t, 1, visited)
}
