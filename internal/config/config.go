// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

// Package config loads the bridge host configuration from config.yaml,
// environment variables (TAURI_BRIDGE_*) and typed defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// AppConfig holds all bridge host configuration. It is instantiated by
// NewConfig() and passed to components that need it.
type AppConfig struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Asset   AssetConfig   `mapstructure:"asset" yaml:"asset"`
	Bridge  BridgeConfig  `mapstructure:"bridge" yaml:"bridge"`
	Tracing TracingConfig `mapstructure:"tracing" yaml:"tracing"`
}

// ServerConfig holds the IPC server configuration.
type ServerConfig struct {
	Host           string   `mapstructure:"host" yaml:"host"`
	Port           int      `mapstructure:"port" yaml:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"` // Empty = allow all (development)
	MaxClients     int      `mapstructure:"max_clients" yaml:"max_clients"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level         string            `mapstructure:"level" yaml:"level"`
	Format        string            `mapstructure:"format" yaml:"format"` // "json" or "console"
	Output        []LogOutputConfig `mapstructure:"output" yaml:"output"`
	Levels        map[string]string `mapstructure:"levels" yaml:"levels"`
	IncludeCaller bool              `mapstructure:"include_caller" yaml:"include_caller"`
}

// LogOutputConfig defines where logs are written.
type LogOutputConfig struct {
	Type    string          `mapstructure:"type" yaml:"type"` // "file" or "console"
	Enabled bool            `mapstructure:"enabled" yaml:"enabled"`
	Path    string          `mapstructure:"path" yaml:"path"`
	Rotate  LogRotateConfig `mapstructure:"rotate" yaml:"rotate"`
}

// LogRotateConfig defines log rotation settings.
type LogRotateConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool `mapstructure:"compress" yaml:"compress"`
}

// AssetConfig holds the asset protocol configuration. Scope is a list of
// glob patterns; a local file is only served when its cleaned absolute
// path matches at least one pattern.
type AssetConfig struct {
	Protocol string   `mapstructure:"protocol" yaml:"protocol"`
	Scope    []string `mapstructure:"scope" yaml:"scope"`
}

// BridgeConfig holds bridge runtime settings, including the labels of the
// main window and webview registered at startup.
type BridgeConfig struct {
	MainWindow     string `mapstructure:"main_window" yaml:"main_window"`
	MainWebview    string `mapstructure:"main_webview" yaml:"main_webview"`
	SendBufferSize int    `mapstructure:"send_buffer_size" yaml:"send_buffer_size"`
}

// TracingConfig holds OpenTelemetry settings. Tracing is opt-in: with an
// empty endpoint no provider is registered.
type TracingConfig struct {
	Endpoint    string `mapstructure:"endpoint" yaml:"endpoint"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
}

// NewConfig creates a new AppConfig by reading from a file, environment
// variables, and applying defaults.
func NewConfig(configPath string) (*AppConfig, error) {
	cfg := Default()

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/tauri-bridge/")
		v.AddConfigPath("$HOME/.tauri-bridge")
	}

	v.SetEnvPrefix("TAURI_BRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Missing config file is fine; defaults and env cover it.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns an AppConfig with default values. Typed defaults are
// easier to audit than a pile of viper.SetDefault calls.
func Default() AppConfig {
	return AppConfig{
		Server: ServerConfig{
			Host:       "127.0.0.1",
			Port:       8350,
			MaxClients: 64,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			Output: []LogOutputConfig{
				{Type: "console", Enabled: true},
				{
					Type:    "file",
					Enabled: false,
					Path:    "./logs/bridge.log",
					Rotate: LogRotateConfig{
						MaxSizeMB:  50,
						MaxBackups: 5,
						MaxAgeDays: 14,
						Compress:   true,
					},
				},
			},
			Levels: map[string]string{
				"bridge":    "info",
				"dispatch":  "info",
				"events":    "info",
				"api":       "info",
				"asset":     "info",
				"transport": "info",
			},
			IncludeCaller: false,
		},
		Asset: AssetConfig{
			Protocol: "asset",
		},
		Bridge: BridgeConfig{
			MainWindow:     "main",
			MainWebview:    "main",
			SendBufferSize: 64,
		},
		Tracing: TracingConfig{
			ServiceName: "tauri-bridge",
		},
	}
}

func (c *AppConfig) validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.MaxClients <= 0 {
		return fmt.Errorf("server.max_clients must be positive")
	}
	if c.Asset.Protocol == "" {
		return fmt.Errorf("asset.protocol must not be empty")
	}
	if c.Bridge.MainWindow == "" || c.Bridge.MainWebview == "" {
		return fmt.Errorf("bridge.main_window and bridge.main_webview must be set")
	}
	if c.Bridge.SendBufferSize <= 0 {
		return fmt.Errorf("bridge.send_buffer_size must be positive")
	}
	return nil
}
