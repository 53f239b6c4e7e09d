package xbeeapi

import (
	"io"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// newLogger builds a logrus.Logger from cfg's LogLevel/LogFile. Framing
// errors log at Debug (expected noise on a serial link, not worth
// Info-level attention), association transitions and forced
// disassociation at Info, and resource contention at Debug.
func newLogger(cfg Config) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05.000",
		FullTimestamp:   true,
	})

	var out io.Writer
	if cfg.LogFile != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
	} else {
		out = log.Out
	}
	log.SetOutput(out)

	return log
}
