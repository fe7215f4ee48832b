// Package trace prints debugging messages for enabled targets through a
// logrus logger. Tracing is off until SetTarget is called.
package trace

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

var (
	// logger is the logger to use for tracing.
	logger atomic.Pointer[logrus.Logger]

	// current is the targets that are enabled for tracing.
	current atomic.Int32
)

func init() {
	logger.Store(NewLogger())
}

// Target is a tracing target.
type Target int

const (
	// General traces general operations.
	General Target = 1 << iota

	// Revlog traces index parsing, delta chains and decompression.
	Revlog

	// NodeMap traces persistent nodemap loading and fallbacks.
	NodeMap

	// Performance traces the duration of expensive operations.
	Performance
)

var targetNames = map[Target]string{
	General:     "general",
	Revlog:      "revlog",
	NodeMap:     "nodemap",
	Performance: "performance",
}

// String returns the name of a single target.
func (t Target) String() string {
	if name, ok := targetNames[t]; ok {
		return name
	}

	return fmt.Sprintf("target(%d)", int(t))
}

// NewLogger returns the default tracing logger, writing to stderr.
func NewLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stderr
	l.Level = logrus.DebugLevel
	l.Formatter = &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000000",
	}

	return l
}

// SetTarget sets the tracing targets.
func SetTarget(target Target) {
	current.Store(int32(target))
}

// Enabled tells whether any of the given targets is being traced.
func Enabled(target Target) bool {
	return int32(target)&current.Load() != 0
}

// SetLogger sets the logger to use for tracing.
func SetLogger(l *logrus.Logger) {
	logger.Store(l)
}

// Print prints the given message if tracing is enabled.
func (t Target) Print(args ...interface{}) {
	if Enabled(t) {
		logger.Load().WithField("target", t.String()).Debug(fmt.Sprint(args...))
	}
}

// Printf prints the given message if tracing is enabled.
func (t Target) Printf(format string, args ...interface{}) {
	if Enabled(t) {
		logger.Load().WithField("target", t.String()).Debugf(format, args...)
	}
}

// WithFields prints msg along with structured fields if tracing is
// enabled.
func (t Target) WithFields(fields logrus.Fields, msg string) {
	if Enabled(t) {
		logger.Load().WithFields(fields).WithField("target", t.String()).Debug(msg)
	}
}
