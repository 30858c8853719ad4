package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// VideoDownload counts the download and redirects to a presigned URL that
// forces a file download under the original name
func (a *API) VideoDownload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	videoID := c.Param("videoID")

	rec, ok := a.Catalog.Get(videoID)
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "Video not found",
			"requestID": requestID,
		})
		return
	}

	disposition := fmt.Sprintf("attachment; filename=%q", rec.OriginalName)

	url, err := a.S3.PresignGet(c.Request.Context(), rec.ObjectKey, 15*time.Minute, disposition)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to presign download URL", zap.String("id", videoID), zap.Error(err))
		return
	}

	a.Catalog.AddDownload(videoID)

	c.Redirect(http.StatusFound, url)
}
