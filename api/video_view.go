package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// VideoView returns the share-page payload for a video and counts the view
func (a *API) VideoView(c *gin.Context) {
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

	views, _ := a.Catalog.AddView(videoID)
	rec.Views = views

	streamURL, err := a.S3.PresignGet(c.Request.Context(), rec.ObjectKey, 15*time.Minute, "")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to presign stream URL", zap.String("id", videoID), zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"video":     rec,
		"streamUrl": streamURL,
	})
}
