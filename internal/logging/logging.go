// Package logging builds the process logger and optionally ships entries to
// Loki.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/grafana/loki-client-go/loki"
	"github.com/prometheus/common/model"
	"github.com/rs/zerolog"

	"github.com/johnwards/ciassoc/internal/config"
)

// DefaultApp is the Loki "app" label used when no labels are configured.
const DefaultApp = "ciassoc"

// Setup creates a zerolog logger writing to stdout according to cfg. The
// returned cleanup flushes and stops the Loki client when one is in use.
func Setup(cfg config.LoggingConfig) (zerolog.Logger, func(), error) {
	return New(cfg, os.Stdout)
}

// New is Setup with an explicit output writer.
func New(cfg config.LoggingConfig, out io.Writer) (zerolog.Logger, func(), error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Logger{}, nil, err
	}

	switch strings.ToLower(cfg.Format) {
	case "", "json":
	case "text", "console":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	default:
		return zerolog.Logger{}, nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	writers := []io.Writer{out}
	cleanup := func() {}

	if cfg.Loki.Enabled() {
		lw, stop, err := newLokiWriter(cfg.Loki)
		if err != nil {
			return zerolog.Logger{}, nil, err
		}
		writers = append(writers, lw)
		cleanup = stop
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().Timestamp().Logger().
		Level(level)
	return logger, cleanup, nil
}

// ParseLevel parses a case-insensitive level name. The empty string is info.
func ParseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("parse log level: %w", err)
	}
	return level, nil
}

func newLokiWriter(cfg config.LokiConfig) (io.Writer, func(), error) {
	if cfg.URL == "" {
		return nil, nil, errors.New("loki url is required")
	}
	lokiCfg, err := loki.NewDefaultConfig(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("prepare loki config: %w", err)
	}
	client, err := loki.New(lokiCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create loki client: %w", err)
	}

	return &lokiWriter{client: client, labels: labelSet(cfg.Labels)}, client.Stop, nil
}

func labelSet(labels map[string]string) model.LabelSet {
	set := model.LabelSet{}
	for k, v := range labels {
		set[model.LabelName(k)] = model.LabelValue(v)
	}
	if len(set) == 0 {
		set["app"] = DefaultApp
	}
	return set
}

type lokiWriter struct {
	client *loki.Client
	labels model.LabelSet
}

func (l *lokiWriter) Write(p []byte) (int, error) {
	entry := strings.TrimSpace(string(p))
	if entry == "" {
		return len(p), nil
	}
	return len(p), l.client.Handle(l.labels, time.Now(), entry)
}
