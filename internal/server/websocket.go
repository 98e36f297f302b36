// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

package server

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/CodeEditorLand/tauri/pkg/bridge/transport"
)

// newUpgrader builds a WebSocket upgrader honoring the configured allowed
// origins. An empty list accepts any origin, which fits the local
// development case where the webview's origin is a loopback scheme.
func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true
			}
			_, ok := allowed[r.Header.Get("Origin")]
			return ok
		},
	}
}

// HandleIPC upgrades the connection and runs a session on it until the
// client disconnects. The webview label comes from the query string; a
// client that names no webview is attached to the main one.
func HandleIPC(deps Deps, registry *SessionRegistry, allowedOrigins []string, defaultWebview string, sendBuffer int) http.HandlerFunc {
	upgrader := newUpgrader(allowedOrigins)

	return func(w http.ResponseWriter, r *http.Request) {
		label := r.URL.Query().Get("webview")
		if label == "" {
			label = defaultWebview
		}
		if _, ok := deps.Topology.Snapshot().Webview(label); !ok {
			getLog().Warn().Str("webview", label).Msg("IPC connection for unknown webview")
			http.Error(w, "unknown webview", http.StatusNotFound)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			getLog().Error().Err(err).Msg("WebSocket upgrade failed")
			return
		}

		tr := transport.NewWebSocket(conn, sendBuffer)
		session := NewSession(deps, tr, label)
		if !registry.add(session) {
			getLog().Warn().Msg("Session limit reached")
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too many connections"))
			_ = tr.Close()
			return
		}
		getLog().Info().Str("remote", r.RemoteAddr).Str("webview", label).Msg("IPC client connected")

		defer registry.remove(session)
		session.Run(r.Context())
	}
}
