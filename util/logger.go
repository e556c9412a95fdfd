package util

import (
	"os"

	"github.com/sirupsen/logrus"
)

// InitLogLevel applies the LOG_LEVEL environment variable to Logger.
// Unparsable levels are ignored and the default (info) is kept.
func InitLogLevel() {
	level := os.Getenv("LOG_LEVEL")
	if level != "" {
		lvl, err := logrus.ParseLevel(level)
		if err == nil {
			Logger.SetLevel(lvl)
		}
	}
}

// Logger is the global logger for the application
var Logger = logrus.New()
