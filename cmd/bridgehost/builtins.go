// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"runtime"
	"time"

	"github.com/CodeEditorLand/tauri/internal/bridge/dispatch"
	"github.com/CodeEditorLand/tauri/internal/bridge/topology"
)

// registerBuiltins installs the commands every host answers regardless of
// application handlers.
func registerBuiltins(d *dispatch.Dispatcher, store *topology.Store) error {
	if err := d.RegisterFunc("ping", func(ctx context.Context, payload any) (any, error) {
		return "pong", nil
	}); err != nil {
		return err
	}

	if err := d.RegisterFunc("host_info", func(ctx context.Context, payload any) (any, error) {
		return map[string]any{
			"os":   runtime.GOOS,
			"arch": runtime.GOARCH,
			"time": time.Now().UTC().Format(time.RFC3339),
		}, nil
	}); err != nil {
		return err
	}

	return d.RegisterFunc("window_labels", func(ctx context.Context, payload any) (any, error) {
		return store.Snapshot().WindowLabels(), nil
	})
}
