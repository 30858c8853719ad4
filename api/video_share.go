package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// VideoShare bumps the share counter and returns the canonical share link
func (a *API) VideoShare(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	videoID := c.Param("videoID")

	shares, ok := a.Catalog.AddShare(videoID)
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "Video not found",
			"requestID": requestID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"shareLink":  a.Orchestrator.BaseURL + "/v/" + videoID,
		"shareCount": shares,
	})
}
