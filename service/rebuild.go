package service

import (
	"context"
	"fmt"

	"clipstream/video-api/aws"
	"clipstream/video-api/model"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// RebuildCatalog reconstructs the in-memory catalog from object storage
// alone, one record per tagged object. Untagged objects (uploads that died
// between create and commit, foreign files) are skipped with a warning.
// Returns the number of records restored.
func RebuildCatalog(ctx context.Context, store aws.ObjectStore, bucket, publicURL string, cat VideoStore) (int, error) {
	var restored int
	var token *string

	for {
		page, err := store.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            awssdk.String(bucket),
			ContinuationToken: token,
		})
		if err != nil {
			return restored, fmt.Errorf("failed to list bucket, %w", err)
		}

		for _, obj := range page.Contents {
			key := awssdk.ToString(obj.Key)

			tagging, err := store.GetObjectTagging(ctx, &s3.GetObjectTaggingInput{
				Bucket: awssdk.String(bucket),
				Key:    obj.Key,
			})
			if err != nil {
				return restored, fmt.Errorf("failed to read tags of %q, %w", key, err)
			}

			tags := make(map[string]string, len(tagging.TagSet))
			for _, t := range tagging.TagSet {
				tags[awssdk.ToString(t.Key)] = awssdk.ToString(t.Value)
			}

			rec, err := recordFromTags(bucket, key, publicURL,
				awssdk.ToInt64(obj.Size), awssdk.ToTime(obj.LastModified), tags)
			if err != nil {
				zap.L().Warn("Skipping object during catalog rebuild",
					zap.String("key", key), zap.Error(err))
				continue
			}

			cat.Put(rec)
			restored++
		}

		if page.NextContinuationToken == nil {
			break
		}
		token = page.NextContinuationToken
	}

	return restored, nil
}

// RestoreQuota replays a rebuilt catalog into the quota tracker so usage
// numbers survive a restart together with the records themselves
func RestoreQuota(cat VideoStore, quota *QuotaTracker, baseURL string) {
	cat.Scan(func(rec model.VideoRecord) bool {
		quota.Record(rec.UploadedBy, rec.Size, model.UploadSummary{
			ID:        rec.ID,
			Name:      rec.OriginalName,
			Size:      rec.Size,
			Date:      rec.UploadDate,
			ShareLink: fmt.Sprintf("%s/v/%s", baseURL, rec.ID),
		})
		return true
	})
}
