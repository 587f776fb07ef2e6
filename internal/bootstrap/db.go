package bootstrap

import (
	stdlog "log"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/auctionlab/scrape-tasks-api/internal/conf"
	"github.com/auctionlab/scrape-tasks-api/internal/db"
	"github.com/auctionlab/scrape-tasks-api/pkg/utils"
)

// InitDB opens the database named by DATABASE_URL and hands the handle to the
// db package, which runs migrations.
func InitDB() {
	dsn := conf.Conf.DatabaseURL
	if dsn == "" {
		utils.Log.Fatalf("DATABASE_URL is not set")
	}
	gormCfg := &gorm.Config{
		Logger: gormlogger.New(
			stdlog.New(utils.Log.WriterLevel(log.DebugLevel), "", stdlog.LstdFlags),
			gormlogger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  gormLogLevel(),
				IgnoreRecordNotFoundError: true,
			},
		),
	}
	gdb, err := gorm.Open(openDialector(dsn), gormCfg)
	if err != nil {
		utils.Log.Fatalf("failed connect database: %s", err.Error())
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		utils.Log.Fatalf("failed get sql.DB: %s", err.Error())
	}
	sqlDB.SetMaxIdleConns(conf.Conf.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(conf.Conf.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(conf.Conf.DBConnMaxLifetime)
	db.Init(gdb)
}

// openDialector picks the gorm driver from the DSN scheme. postgres keyword
// DSNs (host=... dbname=...) fall through to the default case.
func openDialector(dsn string) gorm.Dialector {
	switch {
	case strings.HasPrefix(dsn, "mysql://"):
		return mysql.Open(strings.TrimPrefix(dsn, "mysql://"))
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	case strings.HasPrefix(dsn, "file:") || strings.HasSuffix(dsn, ".db") || dsn == ":memory:":
		return sqlite.Open(dsn)
	default:
		return postgres.Open(dsn)
	}
}

func gormLogLevel() gormlogger.LogLevel {
	if utils.Log.IsLevelEnabled(log.DebugLevel) {
		return gormlogger.Info
	}
	return gormlogger.Warn
}
