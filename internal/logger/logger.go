// Package logger builds the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
)

// Config controls destinations and verbosity.
type Config struct {
	Level    string
	Console  bool
	FilePath string
}

// New builds a logger writing to the console and, when FilePath is set, a
// size-rotated file.
func New(cfg Config) zerolog.Logger {
	var writers []io.Writer
	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	if cfg.FilePath != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		})
	}
	if len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().Timestamp().Logger().
		Level(parseLevel(cfg.Level))
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
