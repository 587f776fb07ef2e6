package bootstrap

import (
	"github.com/joho/godotenv"

	"github.com/auctionlab/scrape-tasks-api/internal/conf"
	"github.com/auctionlab/scrape-tasks-api/pkg/utils"
)

// InitConfig loads .env when present, then reads the environment into
// conf.Conf.
func InitConfig() {
	if err := godotenv.Load(); err == nil {
		utils.Log.Debug("loaded environment from .env")
	}
	cfg, err := conf.Load()
	if err != nil {
		utils.Log.Fatalf("failed load config: %+v", err)
	}
	conf.Conf = cfg
	if cfg.APIKey == "" {
		utils.Log.Warn("API_KEY is not set, authenticated routes will return 500")
	}
}
