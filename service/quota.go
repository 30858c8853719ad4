package service

import (
	"context"
	"strconv"
	"sync"

	"clipstream/video-api/aws"
	"clipstream/video-api/model"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// QuotaTracker answers "can user U upload N more bytes" and keeps the
// running totals. Updates for a single user are serialized on one mutex so
// concurrent completions can't lose an increment; the pre-upload check
// stays advisory since nothing is reserved between check and record.
type QuotaTracker struct {
	mu           sync.Mutex
	defaultQuota int64
	users        map[string]*userQuota
}

type userQuota struct {
	mu  sync.Mutex
	rec model.QuotaRecord
}

func NewQuotaTracker(defaultQuota int64) *QuotaTracker {
	return &QuotaTracker{
		defaultQuota: defaultQuota,
		users:        make(map[string]*userQuota),
	}
}

func (t *QuotaTracker) user(userID string) *userQuota {
	t.mu.Lock()
	defer t.mu.Unlock()

	u, ok := t.users[userID]
	if !ok {
		u = &userQuota{rec: model.QuotaRecord{
			UserID: userID,
			Quota:  t.defaultQuota,
		}}
		t.users[userID] = u
	}
	return u
}

// SetQuota overrides the ceiling for one user. Used at account creation
// when the default doesn't apply.
func (t *QuotaTracker) SetQuota(userID string, quota int64) {
	u := t.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()
	u.rec.Quota = quota
}

// Usage returns a copy of the user's quota record
func (t *QuotaTracker) Usage(userID string) model.QuotaRecord {
	u := t.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	cp := u.rec
	cp.Uploads = append([]model.UploadSummary(nil), u.rec.Uploads...)
	return cp
}

func (t *QuotaTracker) Remaining(userID string) int64 {
	u := t.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.rec.Remaining()
}

func (t *QuotaTracker) CanUpload(userID string, size int64) bool {
	return size <= t.Remaining(userID)
}

// Record adds a completed upload to the user's running total. Never
// decrements, there is no quota reclaim.
func (t *QuotaTracker) Record(userID string, size int64, summary model.UploadSummary) {
	u := t.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	u.rec.Used += size
	u.rec.Uploads = append(u.rec.Uploads, summary)
}

// StrictUsage recomputes a user's used bytes by summing the size tags of
// every object they own in the bucket. Full scan, so it's the slow path for
// when the in-memory record can't be trusted.
func (t *QuotaTracker) StrictUsage(ctx context.Context, store aws.ObjectStore, bucket, userID string) (int64, error) {
	var used int64
	var token *string

	for {
		page, err := store.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            awssdk.String(bucket),
			ContinuationToken: token,
		})
		if err != nil {
			return 0, err
		}

		for _, obj := range page.Contents {
			tags, err := store.GetObjectTagging(ctx, &s3.GetObjectTaggingInput{
				Bucket: awssdk.String(bucket),
				Key:    obj.Key,
			})
			if err != nil {
				return 0, err
			}

			var owner string
			var size int64
			for _, tag := range tags.TagSet {
				switch awssdk.ToString(tag.Key) {
				case tagOwner:
					owner = awssdk.ToString(tag.Value)
				case tagSize:
					size, _ = strconv.ParseInt(awssdk.ToString(tag.Value), 10, 64)
				}
			}

			if owner != userID {
				continue
			}
			if size == 0 {
				size = awssdk.ToInt64(obj.Size)
			}
			used += size
		}

		if page.NextContinuationToken == nil {
			return used, nil
		}
		token = page.NextContinuationToken
	}
}
