// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

package asset

import (
	"net/http"
	"net/url"
	"path/filepath"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/CodeEditorLand/tauri/internal/config"
	"github.com/CodeEditorLand/tauri/internal/logger"
)

var (
	log     *zerolog.Logger
	logOnce sync.Once
)

func getLog() *zerolog.Logger {
	logOnce.Do(func() {
		l := logger.GetAssetLogger()
		log = &l
	})
	return log
}

// Handler serves the asset protocol. The webview addresses files through
// URLs produced by ConvertFileSrc; this handler decodes the path, applies
// the scope, and streams the file.
type Handler struct {
	scope *Scope
}

// NewHandler builds a handler from the asset configuration.
func NewHandler(cfg config.AssetConfig) *Handler {
	return &Handler{scope: NewScope(cfg.Scope)}
}

// ServeHTTP handles GET {prefix}/{encoded-path}. Translation only: a path
// outside the scope is 403 regardless of whether it exists.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	encoded := chi.URLParam(r, "*")
	if encoded == "" {
		http.Error(w, "missing asset path", http.StatusBadRequest)
		return
	}

	// chi leaves the wildcard percent-encoded; the whole path travels as
	// one segment.
	path, err := url.PathUnescape(encoded)
	if err != nil {
		http.Error(w, "malformed asset path", http.StatusBadRequest)
		return
	}

	path = filepath.Clean(path)
	if !filepath.IsAbs(path) {
		http.Error(w, "asset path must be absolute", http.StatusBadRequest)
		return
	}

	if !h.scope.Allows(path) {
		getLog().Warn().Str("path", path).Msg("Asset request outside scope")
		http.Error(w, "asset not in scope", http.StatusForbidden)
		return
	}

	getLog().Debug().Str("path", path).Msg("Serving asset")
	http.ServeFile(w, r, path)
}
