package utils

import (
	log "github.com/sirupsen/logrus"
)

// Log is the shared process logger. Bootstrap configures level, format and
// outputs; until then it runs with logrus defaults.
var Log = log.StandardLogger()
