// Package logger builds the logrus logger handed to every component.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/buemura/zapx/internal/config"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// New builds a logger from cfg. stderr is where "stderr" output goes and
// where debug file logging is mirrored; pass nil for os.Stderr.
func New(cfg config.LogConfig, stderr io.Writer) (*logrus.Logger, error) {
	if stderr == nil {
		stderr = os.Stderr
	}

	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	log.SetLevel(level)

	if err := setFormatter(log, cfg); err != nil {
		return nil, err
	}
	if err := setOutput(log, cfg, stderr); err != nil {
		return nil, err
	}
	log.SetReportCaller(cfg.Caller)

	return log, nil
}

func setFormatter(log *logrus.Logger, cfg config.LogConfig) error {
	switch strings.ToLower(cfg.Format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
				logrus.FieldKeyFunc:  "function",
				logrus.FieldKeyFile:  "file",
			},
		})
	case "text", "":
		log.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: timestampFormat,
			FullTimestamp:   true,
		})
	default:
		return fmt.Errorf("unsupported log format: %s", cfg.Format)
	}
	return nil
}

func setOutput(log *logrus.Logger, cfg config.LogConfig, stderr io.Writer) error {
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		log.SetOutput(os.Stdout)
	case "stderr", "":
		log.SetOutput(stderr)
	case "file":
		if cfg.FilePath == "" {
			return fmt.Errorf("log.file_path is required when log output is file")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
		rotated := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		if log.IsLevelEnabled(logrus.DebugLevel) {
			log.SetOutput(io.MultiWriter(stderr, rotated))
		} else {
			log.SetOutput(rotated)
		}
	default:
		return fmt.Errorf("unsupported log output: %s", cfg.Output)
	}
	return nil
}

// WithRun tags every entry of one run with a fresh run id.
func WithRun(log logrus.FieldLogger) (*logrus.Entry, string) {
	id := uuid.NewString()
	return log.WithField("run_id", id), id
}
