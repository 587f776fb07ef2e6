package db

import (
	"gorm.io/gorm"

	"github.com/auctionlab/scrape-tasks-api/internal/model"
	"github.com/auctionlab/scrape-tasks-api/pkg/utils"
)

var db *gorm.DB

// Init wires the shared gorm handle and migrates the schema.
func Init(d *gorm.DB) {
	db = d
	err := AutoMigrate(new(model.ScrapeTask), new(model.TaskRun))
	if err != nil {
		utils.Log.Fatalf("failed migrate database: %s", err.Error())
	}
}

func AutoMigrate(dst ...interface{}) error {
	return db.AutoMigrate(dst...)
}

// GetDb exposes the raw handle for health checks.
func GetDb() *gorm.DB {
	return db
}

// Close releases the underlying connection pool.
func Close() {
	utils.Log.Info("closing db")
	sqlDB, err := db.DB()
	if err != nil {
		utils.Log.Errorf("failed to get db: %s", err.Error())
		return
	}
	if err := sqlDB.Close(); err != nil {
		utils.Log.Errorf("failed to close db: %s", err.Error())
	}
}
