// Package service implements the upload pipeline: the chunked upload
// engine, the orchestrator around it, the progress broadcast hub, the
// quota tracker and the in-memory video catalog
package service

import "strings"

// contentTypes maps the container formats we accept to their MIME type.
// Anything else falls back to application/octet-stream.
var contentTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".mpg":  "video/mpeg",
	".mpeg": "video/mpeg",
	".ogv":  "video/ogg",
	".3gp":  "video/3gpp",
	".ts":   "video/mp2t",
}

// Containers browsers won't play in a <video> tag. Flagged on the stored
// object so the frontend can offer download-only.
var legacyFormats = map[string]bool{
	".mkv":  true,
	".avi":  true,
	".wmv":  true,
	".flv":  true,
	".mpg":  true,
	".mpeg": true,
}

// ResolveContentType maps a file extension (with or without the leading
// dot) to its MIME type
func ResolveContentType(ext string) string {
	if ct, ok := contentTypes[normalizeExt(ext)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// IsLegacyFormat reports whether the extension names a container that
// can't be streamed natively by browsers
func IsLegacyFormat(ext string) bool {
	return legacyFormats[normalizeExt(ext)]
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}
	return ext
}
