package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveContentType(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{".mp4", "video/mp4"},
		{"mp4", "video/mp4"},
		{".MP4", "video/mp4"},
		{".webm", "video/webm"},
		{".mov", "video/quicktime"},
		{".mkv", "video/x-matroska"},
		{".avi", "video/x-msvideo"},
		{".ogv", "video/ogg"},
		{".exe", "application/octet-stream"},
		{"", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveContentType(tt.ext))
		})
	}
}

func TestIsLegacyFormat(t *testing.T) {
	assert.True(t, IsLegacyFormat(".avi"))
	assert.True(t, IsLegacyFormat("AVI"))
	assert.True(t, IsLegacyFormat(".mkv"))
	assert.False(t, IsLegacyFormat(".mp4"))
	assert.False(t, IsLegacyFormat(".webm"))
	assert.False(t, IsLegacyFormat(""))
}
