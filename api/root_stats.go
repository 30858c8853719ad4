package api

import (
	"net/http"

	"clipstream/video-api/model"

	"github.com/gin-gonic/gin"
)

// Stats returns catalog-wide counters. Cached, so the full scan runs at
// most every few seconds.
func (a *API) Stats(c *gin.Context) {
	var videos int
	var totalBytes, totalViews int64

	a.Catalog.Scan(func(rec model.VideoRecord) bool {
		videos++
		totalBytes += rec.Size
		totalViews += rec.Views
		return true
	})

	c.JSON(http.StatusOK, gin.H{
		"videos":     videos,
		"totalBytes": totalBytes,
		"totalViews": totalViews,
	})
}
