package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/auctionlab/scrape-tasks-api/internal/bootstrap"
	"github.com/auctionlab/scrape-tasks-api/internal/conf"
	"github.com/auctionlab/scrape-tasks-api/internal/db"
	"github.com/auctionlab/scrape-tasks-api/pkg/utils"
	"github.com/auctionlab/scrape-tasks-api/server"
)

// ServerCmd runs the HTTP API until SIGINT or SIGTERM, then drains in-flight
// requests for conf.Conf.ShutdownTimeout.
var ServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the scrape tasks HTTP API",
	Run: func(cmd *cobra.Command, args []string) {
		bootstrap.InitConfig()
		bootstrap.InitLog()
		bootstrap.InitDB()
		defer db.Close()

		if !utils.Log.IsLevelEnabled(log.DebugLevel) {
			gin.SetMode(gin.ReleaseMode)
		}
		r := gin.New()
		server.Init(r)

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", conf.Conf.HTTPPort),
			Handler: r,
		}
		go func() {
			utils.Log.Infof("start HTTP server @ %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				utils.Log.Fatalf("failed to start http server: %s", err.Error())
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		utils.Log.Info("shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), conf.Conf.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			utils.Log.Errorf("server shutdown: %s", err.Error())
		}
		utils.Log.Info("server exit")
	},
}

func init() {
	RootCmd.AddCommand(ServerCmd)
}
