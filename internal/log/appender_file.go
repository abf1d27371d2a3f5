package log

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/natefinch/lumberjack.v2"
)

type FileAppenderOpt struct {
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`    // megabytes
	MaxBackups int    `mapstructure:"max_backups"` // rotated files kept
	MaxAge     int    `mapstructure:"max_age"`     // days
	Compress   bool   `mapstructure:"compress"`
}

// AddFileAppender decodes options and attaches a size-rotated file writer.
func (m *MultiWriter) AddFileAppender(options map[string]interface{}) error {
	var opt FileAppenderOpt
	if err := mapstructure.Decode(options, &opt); err != nil {
		return fmt.Errorf("log: file appender options: %w", err)
	}
	if opt.Filename == "" {
		return fmt.Errorf("log: file appender needs a filename")
	}
	m.writers = append(m.writers, &lumberjack.Logger{
		Filename:   opt.Filename,
		MaxSize:    opt.MaxSize,
		MaxBackups: opt.MaxBackups,
		MaxAge:     opt.MaxAge,
		Compress:   opt.Compress,
	})
	return nil
}
