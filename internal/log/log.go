// Package log wraps logrus behind a narrow Logger interface, with a
// pattern-driven formatter and pluggable appenders.
package log

import (
	"sync"
)

type Logger interface {
	Trace(args ...interface{})
	Tracef(format string, args ...interface{})

	Debug(args ...interface{})
	Debugf(format string, args ...interface{})

	Info(args ...interface{})
	Infof(format string, args ...interface{})

	Warn(args ...interface{})
	Warnf(format string, args ...interface{})

	Error(args ...interface{})
	Errorf(format string, args ...interface{})

	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})

	WithField(field string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger

	IsTraceEnabled() bool
	IsDebugEnabled() bool
}

var (
	mu     sync.Mutex
	logger Logger
)

// GetLogger returns the configured logger, falling back to defaults before
// Init has run (early startup, tests).
func GetLogger() Logger {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		l, err := newLogger(&Config{})
		if err != nil {
			panic(err)
		}
		logger = l
	}
	return logger
}

// Init builds the global logger from cfg. A later call replaces the previous
// logger, which is how the run command applies the loaded config after the
// default logger carried startup messages.
func Init(cfg *Config) error {
	l, err := newLogger(cfg)
	if err != nil {
		return err
	}
	mu.Lock()
	logger = l
	mu.Unlock()
	return nil
}
