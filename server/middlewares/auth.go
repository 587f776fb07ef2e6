package middlewares

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/auctionlab/scrape-tasks-api/internal/conf"
	"github.com/auctionlab/scrape-tasks-api/server/common"
)

// APIKeyHeader carries the static shared secret on every data route.
const APIKeyHeader = "X-API-Key"

func APIKeyAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := conf.Conf.APIKey
		if expected == "" {
			common.ErrorStrResp(c, http.StatusInternalServerError, "API_KEY is not configured")
			return
		}
		got := c.GetHeader(APIKeyHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
			common.ErrorStrResp(c, http.StatusUnauthorized, "Invalid API key")
			return
		}
		c.Next()
	}
}
