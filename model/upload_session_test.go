package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUploadSession_ObserveNeverRollsBack(t *testing.T) {
	s := NewUploadSession("up-1", "alice", 100)
	assert.Equal(t, UploadStarted, s.State())

	s.Observe(40)
	assert.Equal(t, int64(40), s.BytesUploaded())
	assert.Equal(t, UploadInProgress, s.State())

	// A stale callback can't move the counter backwards
	s.Observe(10)
	assert.Equal(t, int64(40), s.BytesUploaded())

	s.Observe(100)
	assert.Equal(t, int64(100), s.BytesUploaded())
}

func TestQuotaRecord_RemainingFloorsAtZero(t *testing.T) {
	q := QuotaRecord{Quota: 100, Used: 40}
	assert.Equal(t, int64(60), q.Remaining())

	q.Used = 140
	assert.Equal(t, int64(0), q.Remaining())
}
