package service

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"clipstream/video-api/model"
)

// Tag keys attached to every stored object. The set is the full catalog
// contract: a VideoRecord must be reconstructable from these tags plus the
// object's own size and last-modified, nothing else. S3 allows at most ten
// tags per object and this uses all of them.
const (
	tagID          = "id"
	tagName        = "name"
	tagOwner       = "owner"
	tagOwnerName   = "owner_name"
	tagSize        = "size"
	tagContentType = "content_type"
	tagUploadedAt  = "uploaded_at"
	tagDownloads   = "downloads"
	tagExt         = "ext"
	tagLegacy      = "legacy"
)

// ObjectMeta describes the object being uploaded. The engine turns it into
// the tag set above at commit time.
type ObjectMeta struct {
	ID           string
	OriginalName string
	OwnerID      string
	OwnerName    string
	Size         int64
	ContentType  string
	Extension    string
	UploadedAt   time.Time
	Legacy       bool
}

// encodeTags renders the metadata as an S3 Tagging query string
func encodeTags(m ObjectMeta) string {
	v := url.Values{}
	v.Set(tagID, m.ID)
	v.Set(tagName, m.OriginalName)
	v.Set(tagOwner, m.OwnerID)
	v.Set(tagOwnerName, m.OwnerName)
	v.Set(tagSize, strconv.FormatInt(m.Size, 10))
	v.Set(tagContentType, m.ContentType)
	v.Set(tagUploadedAt, m.UploadedAt.UTC().Format(time.RFC3339))
	v.Set(tagDownloads, "0")
	v.Set(tagExt, m.Extension)
	v.Set(tagLegacy, strconv.FormatBool(m.Legacy))
	return v.Encode()
}

// recordFromTags rebuilds a VideoRecord from an object's tag set and its
// own storage metadata. Pure, so the rebuild path can be tested without a
// bucket. The uploader avatar is not part of the tag contract and comes
// back empty.
func recordFromTags(bucket, key, publicURL string, objSize int64, lastModified time.Time, tags map[string]string) (model.VideoRecord, error) {
	id := tags[tagID]
	if id == "" {
		return model.VideoRecord{}, fmt.Errorf("object %q carries no id tag", key)
	}

	size, err := strconv.ParseInt(tags[tagSize], 10, 64)
	if err != nil || size < 0 {
		size = objSize
	}

	uploadedAt, err := time.Parse(time.RFC3339, tags[tagUploadedAt])
	if err != nil {
		uploadedAt = lastModified
	}

	downloads, err := strconv.ParseInt(tags[tagDownloads], 10, 64)
	if err != nil {
		downloads = 0
	}

	legacy, _ := strconv.ParseBool(tags[tagLegacy])

	ct := tags[tagContentType]
	if ct == "" {
		ct = ResolveContentType(tags[tagExt])
	}

	return model.VideoRecord{
		ID:            id,
		OriginalName:  tags[tagName],
		Size:          size,
		ContentType:   ct,
		FileFormat:    tags[tagExt],
		Legacy:        legacy,
		Bucket:        bucket,
		ObjectKey:     key,
		URL:           publicURL + "/" + key,
		UploadedBy:    tags[tagOwner],
		UploaderUsername: tags[tagOwnerName],
		UploadDate:    uploadedAt,
		DownloadCount: downloads,
	}, nil
}
