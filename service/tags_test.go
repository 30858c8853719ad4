package service

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tagsToMap(t *testing.T, tagging string) map[string]string {
	t.Helper()

	vals, err := url.ParseQuery(tagging)
	require.NoError(t, err)

	m := make(map[string]string, len(vals))
	for k := range vals {
		m[k] = vals.Get(k)
	}
	return m
}

func TestRecordFromTags_RoundTrip(t *testing.T) {
	uploadedAt := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)

	meta := ObjectMeta{
		ID:           "abc123XYZ0",
		OriginalName: "my holiday clip.mkv",
		OwnerID:      "user-42",
		OwnerName:    "bob",
		Size:         123456789,
		ContentType:  "video/x-matroska",
		Extension:    ".mkv",
		UploadedAt:   uploadedAt,
		Legacy:       true,
	}

	tags := tagsToMap(t, encodeTags(meta))

	rec, err := recordFromTags("clips", "abc123XYZ0.mkv", "https://cdn.example.com",
		meta.Size, uploadedAt.Add(time.Minute), tags)
	require.NoError(t, err)

	assert.Equal(t, meta.ID, rec.ID)
	assert.Equal(t, meta.OriginalName, rec.OriginalName)
	assert.Equal(t, meta.Size, rec.Size)
	assert.Equal(t, meta.ContentType, rec.ContentType)
	assert.Equal(t, meta.Extension, rec.FileFormat)
	assert.True(t, rec.Legacy)
	assert.Equal(t, meta.OwnerID, rec.UploadedBy)
	assert.Equal(t, meta.OwnerName, rec.UploaderUsername)
	assert.Equal(t, uploadedAt, rec.UploadDate.UTC())
	assert.Equal(t, int64(0), rec.DownloadCount, "download counter seeds at the persisted value")
	assert.Equal(t, "clips", rec.Bucket)
	assert.Equal(t, "abc123XYZ0.mkv", rec.ObjectKey)
	assert.Equal(t, "https://cdn.example.com/abc123XYZ0.mkv", rec.URL)
}

func TestRecordFromTags_FallsBackToObjectMetadata(t *testing.T) {
	tags := map[string]string{
		tagID:  "v1",
		tagExt: ".mp4",
		// size, uploaded_at, content_type missing
	}

	lastModified := time.Date(2026, 5, 5, 5, 5, 5, 0, time.UTC)

	rec, err := recordFromTags("clips", "v1.mp4", "https://cdn.example.com", 4242, lastModified, tags)
	require.NoError(t, err)

	assert.Equal(t, int64(4242), rec.Size, "object size fills in a missing size tag")
	assert.Equal(t, lastModified, rec.UploadDate)
	assert.Equal(t, "video/mp4", rec.ContentType, "content type resolved from the extension")
}

func TestRecordFromTags_RejectsUntaggedObject(t *testing.T) {
	_, err := recordFromTags("clips", "stray-file.bin", "https://cdn.example.com",
		10, time.Now(), map[string]string{})
	assert.Error(t, err)
}
