// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8350, cfg.Server.Port)
	assert.Equal(t, "asset", cfg.Asset.Protocol)
	assert.Equal(t, "main", cfg.Bridge.MainWindow)
	assert.Equal(t, 64, cfg.Bridge.SendBufferSize)
}

func TestNewConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: 0.0.0.0
  port: 9000
  allowed_origins:
    - http://localhost:1420
asset:
  protocol: media
  scope:
    - /srv/app/assets/*
bridge:
  main_window: shell
  main_webview: shell
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := NewConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:1420"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "media", cfg.Asset.Protocol)
	assert.Equal(t, []string{"/srv/app/assets/*"}, cfg.Asset.Scope)
	assert.Equal(t, "shell", cfg.Bridge.MainWindow)
	// Defaults survive partial files.
	assert.Equal(t, 64, cfg.Bridge.SendBufferSize)
}

func TestNewConfig_Validation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 700000\n"), 0o644))

	_, err := NewConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, WriteDefault(path))
	assert.FileExists(t, path)

	// Round-trips through NewConfig.
	cfg, err := NewConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Port, cfg.Server.Port)

	// Refuses to overwrite.
	assert.Error(t, WriteDefault(path))
}
