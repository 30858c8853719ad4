package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// VideoStream redirects to a presigned URL suited for inline playback.
// Range requests are handled by the storage backend itself.
func (a *API) VideoStream(c *gin.Context) {
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

	url, err := a.S3.PresignGet(c.Request.Context(), rec.ObjectKey, time.Hour, "")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to presign stream URL", zap.String("id", videoID), zap.Error(err))
		return
	}

	c.Redirect(http.StatusFound, url)
}
