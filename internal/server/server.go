// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

// Package server exposes the host side of the bridge: an IPC endpoint
// that runs one session per connected webview, the asset protocol
// endpoint, and a small diagnostics surface.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/CodeEditorLand/tauri/internal/bridge/asset"
	"github.com/CodeEditorLand/tauri/internal/config"
	"github.com/CodeEditorLand/tauri/internal/logger"
	"github.com/CodeEditorLand/tauri/pkg/bridge/transport"
)

var (
	log     *zerolog.Logger
	logOnce sync.Once
)

func getLog() *zerolog.Logger {
	logOnce.Do(func() {
		l := logger.GetAPILogger()
		log = &l
	})
	return log
}

// Server is the IPC + asset HTTP server.
type Server struct {
	httpServer *http.Server
	deps       Deps
	registry   *SessionRegistry
}

// New wires up the server. It does NOT start listening — call Run() for
// that.
func New(cfg *config.AppConfig, deps Deps) *Server {
	registry := NewSessionRegistry(deps.Topology, cfg.Server.MaxClients)
	assets := asset.NewHandler(cfg.Asset)

	r := chi.NewRouter()

	// Global middleware
	r.Use(Recovery)
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(CORS(cfg.Server.AllowedOrigins))
	r.Use(MaxBodySize(1 << 20)) // 1 MB default

	r.Get("/ipc", HandleIPC(deps, registry, cfg.Server.AllowedOrigins,
		cfg.Bridge.MainWebview, cfg.Bridge.SendBufferSize))
	r.Get("/asset/*", assets.ServeHTTP)
	r.Get("/healthz", HandleHealth(deps, registry))
	r.Get("/commands", HandleCommands(deps))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		deps:     deps,
		registry: registry,
	}
}

// ServeTransport runs a session directly over an in-process transport,
// for hosts that embed their webview runtime in the same process instead
// of connecting over WebSocket. Blocks until the session ends.
func (s *Server) ServeTransport(ctx context.Context, tr transport.Transport, webviewLabel string) error {
	session := NewSession(s.deps, tr, webviewLabel)
	if !s.registry.add(session) {
		_ = tr.Close()
		return fmt.Errorf("session limit reached")
	}
	defer s.registry.remove(session)
	session.Run(ctx)
	return nil
}

// Run starts the HTTP server. Blocks until Shutdown or a listen error.
func (s *Server) Run(ctx context.Context) error {
	getLog().Info().Str("addr", s.httpServer.Addr).Msg("Bridge host listening")
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops accepting connections, waits for in-flight handlers,
// then closes the event bus so no delivery is dropped mid-write.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.deps.Dispatcher.Wait()
	s.deps.Bus.Close()
	return err
}
