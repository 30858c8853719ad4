package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// VideoList returns the caller's upload summaries, newest last
func (a *API) VideoList(c *gin.Context) {
	userID := c.MustGet("userID").(string)

	rec := a.Quota.Usage(userID)

	c.JSON(http.StatusOK, gin.H{
		"uploads": rec.Uploads,
	})
}
