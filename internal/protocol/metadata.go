// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

package protocol

// WindowDescriptor identifies a native window. Labels are unique among
// windows for the lifetime of the process.
type WindowDescriptor struct {
	Label string `cbor:"label"`
}

// WebviewDescriptor identifies a webview and records the label of the
// window that hosts it. The back-reference is lookup-only: the descriptor
// never owns the window, so teardown order is independent.
type WebviewDescriptor struct {
	Label       string `cbor:"label"`
	WindowLabel string `cbor:"windowLabel"`
}

// PathConfig carries the native filesystem path conventions. Immutable for
// the process lifetime.
type PathConfig struct {
	Separator string `cbor:"sep"`
	Delimiter string `cbor:"delimiter"`
}

// MetadataBlock is the static metadata surface pushed to the embedded side
// before any command can run. All reads against it are synchronous; no
// round trip is ever required to answer topology or path questions.
type MetadataBlock struct {
	Windows        []WindowDescriptor  `cbor:"windows"`
	Webviews       []WebviewDescriptor `cbor:"webviews"`
	CurrentWindow  WindowDescriptor    `cbor:"currentWindow"`
	CurrentWebview WebviewDescriptor   `cbor:"currentWebview"`
	Paths          PathConfig          `cbor:"paths"`
	AssetProtocol  string              `cbor:"assetProtocol,omitempty"`
}
