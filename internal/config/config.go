package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Verbose enables debug output when true
var Verbose bool

// Log is the process-wide logger. Everything goes to stderr so command
// output on stdout stays clean.
var Log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	return l
}

// SetVerbose toggles debug logging.
func SetVerbose(v bool) {
	Verbose = v
	if v {
		Log.SetLevel(logrus.DebugLevel)
	} else {
		Log.SetLevel(logrus.InfoLevel)
	}
}

// Debugf prints debug messages when Verbose is true
func Debugf(format string, args ...any) {
	if Verbose {
		Log.Debugf(format, args...)
	}
}
