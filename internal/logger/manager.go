// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

// Package logger configures zerolog for the bridge host. Components fetch
// named loggers through GetLogger; per-component levels come from the
// log.levels section of config.yaml.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/CodeEditorLand/tauri/internal/config"
)

// Manager owns the configured writers and hands out per-component loggers.
type Manager struct {
	cfg     *config.LogConfig
	root    zerolog.Logger
	mu      sync.RWMutex
	byName  map[string]zerolog.Logger
	writers []io.Writer
}

// NewManager builds a manager from the log configuration.
func NewManager(cfg *config.LogConfig) (*Manager, error) {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339Nano

	m := &Manager{
		cfg:    cfg,
		byName: make(map[string]zerolog.Logger),
	}

	writers, err := buildWriters(cfg)
	if err != nil {
		return nil, err
	}
	m.writers = writers

	var out io.Writer
	switch len(writers) {
	case 0:
		out = os.Stderr
	case 1:
		out = writers[0]
	default:
		out = io.MultiWriter(writers...)
	}

	ctx := zerolog.New(out).Level(parseLevel(cfg.Level)).With().Timestamp()
	if cfg.IncludeCaller {
		ctx = ctx.Caller()
	}
	m.root = ctx.Logger()

	return m, nil
}

func buildWriters(cfg *config.LogConfig) ([]io.Writer, error) {
	var writers []io.Writer

	for _, output := range cfg.Output {
		if !output.Enabled {
			continue
		}

		switch output.Type {
		case "console":
			if cfg.Format == "console" {
				writers = append(writers, zerolog.ConsoleWriter{
					Out:        os.Stderr,
					TimeFormat: "15:04:05.000",
				})
			} else {
				writers = append(writers, os.Stderr)
			}

		case "file":
			if err := os.MkdirAll(filepath.Dir(output.Path), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}
			if output.Rotate.MaxSizeMB > 0 {
				writers = append(writers, &lumberjack.Logger{
					Filename:   output.Path,
					MaxSize:    output.Rotate.MaxSizeMB,
					MaxBackups: output.Rotate.MaxBackups,
					MaxAge:     output.Rotate.MaxAgeDays,
					Compress:   output.Rotate.Compress,
				})
			} else {
				file, err := os.OpenFile(output.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return nil, fmt.Errorf("failed to open log file %s: %w", output.Path, err)
				}
				writers = append(writers, file)
			}

		default:
			return nil, fmt.Errorf("unsupported log output type: %s", output.Type)
		}
	}

	return writers, nil
}

// GetLogger returns the logger for a named component, creating it with the
// configured per-component level on first use.
func (m *Manager) GetLogger(name string) zerolog.Logger {
	m.mu.RLock()
	if l, ok := m.byName[name]; ok {
		m.mu.RUnlock()
		return l
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.byName[name]; ok {
		return l
	}

	level := parseLevel(m.cfg.Level)
	if override, ok := m.cfg.Levels[name]; ok {
		level = parseLevel(override)
	}

	l := m.root.With().Str("component", name).Logger().Level(level)
	m.byName[name] = l
	return l
}

// Close flushes and closes any file-backed writers.
func (m *Manager) Close() error {
	for _, w := range m.writers {
		if closer, ok := w.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				return err
			}
		}
	}
	return nil
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

var (
	globalManager *Manager
	once          sync.Once
)

// Initialize sets up the process-wide manager. Later calls are no-ops.
func Initialize(cfg *config.LogConfig) error {
	var err error
	once.Do(func() {
		globalManager, err = NewManager(cfg)
	})
	return err
}

// GetLogger returns a named component logger. Before Initialize it returns
// a discard logger so tests stay quiet.
func GetLogger(name string) zerolog.Logger {
	if globalManager == nil {
		return zerolog.New(io.Discard)
	}
	return globalManager.GetLogger(name)
}

// CloseGlobal closes the process-wide manager's writers.
func CloseGlobal() error {
	if globalManager != nil {
		return globalManager.Close()
	}
	return nil
}
