package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/linkcapture/console/internal/config"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults for the optional log file.
const (
	defaultMaxSizeMB  = 10
	defaultMaxBackups = 5
)

// Setup configures the standard logrus logger. The returned closer flushes
// the rotating file sink, if one was configured.
func Setup(cfg config.LoggingConfig, production bool) (io.Closer, error) {
	level, errLevel := log.ParseLevel(strings.TrimSpace(cfg.Level))
	if errLevel != nil {
		return nil, fmt.Errorf("logging: %w", errLevel)
	}
	log.SetLevel(level)

	if production {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	if strings.TrimSpace(cfg.File) == "" {
		log.SetOutput(os.Stdout)
		return io.NopCloser(nil), nil
	}

	writer, errWriter := NewRotatingWriter(cfg.File, cfg.MaxSizeMB, cfg.MaxBackups)
	if errWriter != nil {
		return nil, errWriter
	}
	log.SetOutput(io.MultiWriter(os.Stdout, writer))
	return writer, nil
}

// NewRotatingWriter opens a size-rotated log file.
func NewRotatingWriter(file string, maxSizeMB, maxBackups int) (*lumberjack.Logger, error) {
	if strings.TrimSpace(file) == "" {
		return nil, fmt.Errorf("logging: rotation file path must not be empty")
	}
	if maxSizeMB <= 0 {
		maxSizeMB = defaultMaxSizeMB
	}
	if maxBackups <= 0 {
		maxBackups = defaultMaxBackups
	}
	if errMkdir := os.MkdirAll(filepath.Dir(file), 0o700); errMkdir != nil {
		return nil, fmt.Errorf("logging: create log directory: %w", errMkdir)
	}
	return &lumberjack.Logger{
		Filename:   file,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
	}, nil
}
