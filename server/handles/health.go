package handles

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/auctionlab/scrape-tasks-api/internal/db"
	"github.com/auctionlab/scrape-tasks-api/pkg/utils"
)

// Health serves GET /healthz without auth so load balancers can probe it.
func Health(c *gin.Context) {
	sqlDB, err := db.GetDb().DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		utils.Log.Warnf("health check failed: %s", err.Error())
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
