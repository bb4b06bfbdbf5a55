package utils

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	InfoLogger  = newLogger(os.Stdout, logrus.InfoLevel, "text")
	ErrorLogger = newLogger(os.Stderr, logrus.ErrorLevel, "text")
)

// InitLogger rebuilds both loggers. level is a logrus level name, format is
// "text" or "json".
func InitLogger(level, format string) {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}

	InfoLogger = newLogger(os.Stdout, lvl, format)

	// ErrorLogger stays at warn or above regardless of the verbosity of InfoLogger
	errLvl := logrus.WarnLevel
	if lvl < errLvl {
		errLvl = lvl
	}
	ErrorLogger = newLogger(os.Stderr, errLvl, format)
}

// SilenceLoggers discards all output; used by tests.
func SilenceLoggers() {
	InfoLogger.SetOutput(io.Discard)
	ErrorLogger.SetOutput(io.Discard)
}

func newLogger(out io.Writer, level logrus.Level, format string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(level)
	if format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	return l
}
