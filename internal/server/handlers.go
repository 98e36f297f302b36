// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

package server

import (
	"encoding/json"
	"net/http"
)

// healthResponse is the diagnostics snapshot served at /healthz.
type healthResponse struct {
	Status   string   `json:"status"`
	Sessions int      `json:"sessions"`
	Windows  []string `json:"windows"`
	Webviews []string `json:"webviews"`
}

// commandsResponse lists the registered command names.
type commandsResponse struct {
	Commands []string `json:"commands"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		getLog().Error().Err(err).Msg("Failed to write JSON response")
	}
}

// HandleHealth reports liveness plus the current session count and
// topology labels. The diagnostics surface is JSON even though the
// bridge itself speaks CBOR: these endpoints are for humans and curl.
func HandleHealth(deps Deps, registry *SessionRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := deps.Topology.Snapshot()
		writeJSON(w, http.StatusOK, healthResponse{
			Status:   "ok",
			Sessions: registry.Len(),
			Windows:  snap.WindowLabels(),
			Webviews: snap.WebviewLabels(),
		})
	}
}

// HandleCommands lists the registered command names in stable order.
func HandleCommands(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, commandsResponse{
			Commands: deps.Dispatcher.Commands(),
		})
	}
}
