// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

package topology

import (
	"runtime"

	"github.com/CodeEditorLand/tauri/internal/protocol"
)

// DefaultPathConfig returns the native path conventions for the current
// platform. The result is constant for the process lifetime.
func DefaultPathConfig() protocol.PathConfig {
	return pathConfigFor(runtime.GOOS)
}

func pathConfigFor(goos string) protocol.PathConfig {
	if goos == "windows" {
		return protocol.PathConfig{Separator: `\`, Delimiter: ";"}
	}
	return protocol.PathConfig{Separator: "/", Delimiter: ":"}
}
