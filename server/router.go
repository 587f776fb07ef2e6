package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/auctionlab/scrape-tasks-api/pkg/utils"
	"github.com/auctionlab/scrape-tasks-api/server/handles"
	"github.com/auctionlab/scrape-tasks-api/server/middlewares"
)

// Init mounts every route on e. Everything except /healthz sits behind the
// API key check.
func Init(e *gin.Engine) {
	e.Use(middlewares.RequestID())
	e.Use(middlewares.RequestLogger())
	e.Use(gin.RecoveryWithWriter(utils.Log.WriterLevel(log.ErrorLevel)))
	Cors(e)

	e.GET("/healthz", handles.Health)

	api := e.Group("", middlewares.APIKeyAuth())

	tasks := api.Group("/scrape_tasks")
	tasks.GET("", handles.ListScrapeTasks)
	tasks.POST("", handles.CreateScrapeTask)
	tasks.GET("/enums", handles.GetScrapeTaskEnums)
	tasks.GET("/next_pending", handles.ListNextPendingScrapeTasks)
	tasks.GET("/:id", handles.GetScrapeTask)
	tasks.PATCH("/:id", handles.UpdateScrapeTask)
	tasks.DELETE("/:id", handles.DeleteScrapeTask)

	analytics := api.Group("/analytics")
	analytics.GET("/easylive/auctions", handles.ListEasyliveAuctionAnalytics)
	analytics.GET("/scrape_tasks/pending_future", handles.ListPendingFutureScrapeTasks)
}

func Cors(e *gin.Engine) {
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowHeaders = append(config.AllowHeaders, middlewares.APIKeyHeader, middlewares.RequestIDHeader)
	e.Use(cors.New(config))
}
