package api

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserQuota returns the caller's storage usage
func (a *API) UserQuota(c *gin.Context) {
	userID := c.MustGet("userID").(string)

	rec := a.Quota.Usage(userID)

	var pct float64
	if rec.Quota > 0 {
		pct = math.Round(float64(rec.Used)/float64(rec.Quota)*10000) / 100
	}

	c.JSON(http.StatusOK, gin.H{
		"quota":           rec.Quota,
		"totalUploadSize": rec.Used,
		"remainingQuota":  rec.Remaining(),
		"uploadCount":     len(rec.Uploads),
		"usagePercentage": pct,
	})
}
