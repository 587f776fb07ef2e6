package handles

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/auctionlab/scrape-tasks-api/internal/db"
	"github.com/auctionlab/scrape-tasks-api/server/common"
)

type easyliveAuctionsResp struct {
	Summary db.ScrapeTaskStatusSummary `json:"summary"`
	Items   []db.EasyliveAuctionRow    `json:"items"`
}

// ListEasyliveAuctionAnalytics serves GET /analytics/easylive/auctions: a
// task status summary plus per-auction catalogue run rollups.
func ListEasyliveAuctionAnalytics(c *gin.Context) {
	limit := queryLimit(c, defaultListLimit, maxListLimit)
	summary, err := db.CountScrapeTasksByStatus()
	if err != nil {
		common.ErrorResp(c, http.StatusInternalServerError, err)
		return
	}
	rows, err := db.ListEasyliveAuctionAnalytics(limit)
	if err != nil {
		common.ErrorResp(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, easyliveAuctionsResp{Summary: summary, Items: rows})
}
