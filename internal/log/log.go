// Package log is the process logger of the binaries. Library packages never
// log; they return errors for the binaries to report here.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level mirrors the logrus levels.
type Level = logrus.Level

const (
	ErrorLevel = logrus.ErrorLevel
	WarnLevel  = logrus.WarnLevel
	InfoLevel  = logrus.InfoLevel
	DebugLevel = logrus.DebugLevel
	TraceLevel = logrus.TraceLevel
)

// Fields is a set of structured log fields.
type Fields = logrus.Fields

// Logger is the shared process logger.
var Logger = New(os.Stderr, "text")

// New builds a logger writing to out in the given format ("text" or
// "json").
func New(out io.Writer, format string) *logrus.Logger {
	logger := logrus.New()
	logger.Out = out
	if strings.EqualFold(format, "json") {
		logger.Formatter = &logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"}
	} else {
		logger.Formatter = &logrus.TextFormatter{
			DisableLevelTruncation: true,
			PadLevelText:           true,
			TimestampFormat:        "2006/01/02 15:04:05",
			FullTimestamp:          true,
		}
	}
	return logger
}

// Configure replaces the shared logger's level and format.
func Configure(level, format string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	configured := New(Logger.Out, format)
	configured.SetLevel(lvl)
	Logger = configured
	return nil
}

// ParseLevel accepts logrus level names; "" means info.
func ParseLevel(level string) (Level, error) {
	level = strings.TrimSpace(level)
	if level == "" {
		return InfoLevel, nil
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return InfoLevel, fmt.Errorf("log: %w", err)
	}
	return lvl, nil
}

// WithFields starts a structured entry.
func WithFields(fields Fields) *logrus.Entry {
	return Logger.WithFields(fields)
}

// WithError starts an entry carrying err.
func WithError(err error) *logrus.Entry {
	return Logger.WithError(err)
}

func Debugf(format string, args ...any) {
	Logger.Debugf(format, args...)
}

func Infof(format string, args ...any) {
	Logger.Infof(format, args...)
}

func Warnf(format string, args ...any) {
	Logger.Warnf(format, args...)
}

func Errorf(format string, args ...any) {
	Logger.Errorf(format, args...)
}
