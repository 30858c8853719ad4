// Package model defines the records shared between the upload pipeline
// and the read-path handlers, plus the database models
package model

import "time"

// VideoRecord is one stored video. Created only after the object has been
// fully committed to storage, so a record's ObjectKey always refers to an
// object that exists. The counters are bumped in place by the read path.
type VideoRecord struct {
	ID           string `json:"id"`
	OriginalName string `json:"name"`
	Size         int64  `json:"size"`
	ContentType  string `json:"contentType"`

	// File extension including the leading dot, e.g. ".mp4"
	FileFormat string `json:"fileFormat"`

	// Browsers can't play these containers natively so the frontend
	// offers download-only for them
	Legacy bool `json:"legacy"`

	Bucket    string `json:"-"`
	ObjectKey string `json:"-"`
	URL       string `json:"url"`

	UploadedBy       string `json:"uploadedBy"`
	UploaderUsername string `json:"uploaderUsername"`
	UploaderAvatar   string `json:"uploaderAvatar,omitempty"`

	UploadDate time.Time `json:"uploadDate"`

	DownloadCount int64 `json:"downloadCount"`
	Views         int64 `json:"views"`
	ShareCount    int64 `json:"shareCount"`
}

// UploadSummary is the lightweight per-upload entry kept on a user's
// quota record
type UploadSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Date      time.Time `json:"date"`
	ShareLink string    `json:"shareLink"`
}
