package common

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/auctionlab/scrape-tasks-api/pkg/utils"
)

// ErrorResponse is the body of every non-2xx reply. The field name is what
// the scraper clients of the previous deployment already parse.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ErrorStrResp writes a client-facing error and aborts the chain.
func ErrorStrResp(c *gin.Context, code int, detail string) {
	c.AbortWithStatusJSON(code, ErrorResponse{Detail: detail})
}

// ErrorResp logs the full cause chain and hides it behind a generic detail.
func ErrorResp(c *gin.Context, code int, err error) {
	utils.Log.Errorf("%s %s failed: %+v", c.Request.Method, c.Request.URL.Path, err)
	c.AbortWithStatusJSON(code, ErrorResponse{Detail: http.StatusText(code)})
}
