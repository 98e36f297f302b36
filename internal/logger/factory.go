// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

package logger

import "github.com/rs/zerolog"

// Static logger getters that map directly to config.yaml log.levels.
// These keep component names consistent across the codebase.

// GetBridgeLogger returns a logger for the embedded runtime surface.
func GetBridgeLogger() zerolog.Logger {
	return GetLogger("bridge")
}

// GetDispatchLogger returns a logger for command dispatch.
func GetDispatchLogger() zerolog.Logger {
	return GetLogger("dispatch")
}

// GetEventsLogger returns a logger for the event bus.
func GetEventsLogger() zerolog.Logger {
	return GetLogger("events")
}

// GetAPILogger returns a logger for the IPC server.
func GetAPILogger() zerolog.Logger {
	return GetLogger("api")
}

// GetTransportLogger returns a logger for the wire transports.
func GetTransportLogger() zerolog.Logger {
	return GetLogger("transport")
}

// GetAssetLogger returns a logger for the asset protocol handler.
func GetAssetLogger() zerolog.Logger {
	return GetLogger("asset")
}
