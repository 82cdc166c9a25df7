// Package logger configures the process wide logrus logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat/go-file-rotatelogs"
	"github.com/rifflock/lfshook"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/sigmmar-api/internal/config"
)

// Init sets level and formatter on the standard logrus logger and, when a
// log directory is configured, mirrors entries into daily rotated files
// (one file family per level).
func Init(cfg config.LogConfig) error {
	log.SetOutput(os.Stdout)
	log.SetFormatter(formatter(cfg.Format))

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Dir == "" {
		return nil
	}
	hook, err := fileHook(cfg.Dir, cfg.MaxAgeDays)
	if err != nil {
		return err
	}
	log.AddHook(hook)
	return nil
}

func formatter(format string) log.Formatter {
	if strings.EqualFold(format, "json") {
		return &log.JSONFormatter{TimestampFormat: time.RFC3339Nano}
	}
	return &log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	}
}

func fileHook(dir string, maxAgeDays int) (log.Hook, error) {
	if maxAgeDays <= 0 {
		maxAgeDays = 7
	}
	writers := lfshook.WriterMap{}
	for _, lvl := range []log.Level{log.InfoLevel, log.WarnLevel, log.ErrorLevel, log.FatalLevel} {
		w, err := writer(dir, lvl.String(), maxAgeDays)
		if err != nil {
			return nil, err
		}
		writers[lvl] = w
	}
	return lfshook.NewHook(writers, &log.JSONFormatter{}), nil
}

func writer(dir, level string, maxAgeDays int) (io.Writer, error) {
	base := filepath.Join(dir, level)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", base, err)
	}
	w, err := rotatelogs.New(
		filepath.Join(base, "%Y%m%d.log"),
		rotatelogs.WithLinkName(filepath.Join(dir, level+".log")),
		rotatelogs.WithMaxAge(time.Duration(maxAgeDays)*24*time.Hour),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("open rotating log %s: %w", level, err)
	}
	return w, nil
}
