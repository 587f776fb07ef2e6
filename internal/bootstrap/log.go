package bootstrap

import (
	"io"
	"os"

	"github.com/natefinch/lumberjack"
	log "github.com/sirupsen/logrus"

	"github.com/auctionlab/scrape-tasks-api/internal/conf"
	"github.com/auctionlab/scrape-tasks-api/pkg/utils"
)

// InitLog configures the shared logger from conf.Conf. With LOG_FILE set,
// output goes to stderr and a rotating file.
func InitLog() {
	level, err := log.ParseLevel(conf.Conf.LogLevel)
	if err != nil {
		level = log.InfoLevel
		utils.Log.Warnf("unknown log level %q, using info", conf.Conf.LogLevel)
	}
	utils.Log.SetLevel(level)
	utils.Log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	if conf.Conf.LogFile != "" {
		rotated := &lumberjack.Logger{
			Filename:   conf.Conf.LogFile,
			MaxSize:    conf.Conf.LogMaxSizeMB,
			MaxBackups: conf.Conf.LogMaxBackups,
			MaxAge:     conf.Conf.LogMaxAgeDays,
			Compress:   true,
		}
		utils.Log.SetOutput(io.MultiWriter(os.Stderr, rotated))
	}
}
