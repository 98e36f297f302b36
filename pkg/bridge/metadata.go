// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

package bridge

import (
	"github.com/CodeEditorLand/tauri/internal/bridge/asset"
	"github.com/CodeEditorLand/tauri/internal/protocol"
)

// metadata returns the current metadata block. The block is pushed by the
// host before Connect returns and replaced wholesale on topology changes,
// so every read here is synchronous.
func (r *Runtime) metadata() *protocol.MetadataBlock {
	r.metaMu.RLock()
	defer r.metaMu.RUnlock()
	return r.meta
}

// CurrentWindow returns the descriptor of the window hosting this runtime.
func (r *Runtime) CurrentWindow() protocol.WindowDescriptor {
	return r.metadata().CurrentWindow
}

// CurrentWebview returns the descriptor of this runtime's webview.
func (r *Runtime) CurrentWebview() protocol.WebviewDescriptor {
	return r.metadata().CurrentWebview
}

// Windows lists every live window known to the host at the last push.
func (r *Runtime) Windows() []protocol.WindowDescriptor {
	meta := r.metadata()
	out := make([]protocol.WindowDescriptor, len(meta.Windows))
	copy(out, meta.Windows)
	return out
}

// Webviews lists every live webview known to the host at the last push.
func (r *Runtime) Webviews() []protocol.WebviewDescriptor {
	meta := r.metadata()
	out := make([]protocol.WebviewDescriptor, len(meta.Webviews))
	copy(out, meta.Webviews)
	return out
}

// PathSeparator returns the host's path component separator.
func (r *Runtime) PathSeparator() string { return r.metadata().Paths.Separator }

// PathDelimiter returns the host's path list delimiter.
func (r *Runtime) PathDelimiter() string { return r.metadata().Paths.Delimiter }

// ConvertFileSrc rewrites an absolute native path into a URL the webview
// can load through the host's asset protocol. Purely syntactic: no
// filesystem access, no round trip.
func (r *Runtime) ConvertFileSrc(filePath string, proto ...string) string {
	scheme := r.metadata().AssetProtocol
	if scheme == "" {
		scheme = asset.DefaultProtocol
	}
	if len(proto) > 0 && proto[0] != "" {
		scheme = proto[0]
	}
	return asset.ConvertFileSrc(filePath, scheme)
}
