// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CodeEditorLand/tauri/internal/bridge/dispatch"
	"github.com/CodeEditorLand/tauri/internal/bridge/event"
	"github.com/CodeEditorLand/tauri/internal/bridge/topology"
	"github.com/CodeEditorLand/tauri/internal/config"
	"github.com/CodeEditorLand/tauri/internal/logger"
	"github.com/CodeEditorLand/tauri/internal/server"
	"github.com/CodeEditorLand/tauri/internal/tracing"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the host configuration file")
	initConfig := flag.Bool("init", false, "write a default configuration file and exit")
	flag.Parse()

	if *initConfig {
		if err := config.WriteDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote default configuration to %s\n", *configPath)
		return
	}

	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.CloseGlobal()

	mainLog := logger.GetLogger("main")
	mainLog.Info().Msg("Starting bridge host")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	traceShutdown, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		mainLog.Error().Err(err).Msg("Error initializing tracing")
		os.Exit(1)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := traceShutdown(flushCtx); err != nil {
			mainLog.Error().Err(err).Msg("Error flushing traces")
		}
	}()

	store := topology.NewStore()
	if err := store.AddWindow(cfg.Bridge.MainWindow); err != nil {
		mainLog.Error().Err(err).Msg("Error registering main window")
		os.Exit(1)
	}
	if err := store.AddWebview(cfg.Bridge.MainWebview, cfg.Bridge.MainWindow); err != nil {
		mainLog.Error().Err(err).Msg("Error registering main webview")
		os.Exit(1)
	}

	dispatcher := dispatch.New()
	if err := registerBuiltins(dispatcher, store); err != nil {
		mainLog.Error().Err(err).Msg("Error registering built-in commands")
		os.Exit(1)
	}

	deps := server.Deps{
		Dispatcher:    dispatcher,
		Bus:           event.New(),
		Topology:      store,
		Paths:         topology.DefaultPathConfig(),
		AssetProtocol: cfg.Asset.Protocol,
	}
	srv := server.New(cfg, deps)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- srv.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		mainLog.Info().Msgf("Received signal %v, shutting down...", sig)
	case err := <-serverErrChan:
		if err != nil {
			mainLog.Error().Err(err).Msg("Server error")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		mainLog.Error().Err(err).Msg("Error shutting down server")
	}
	mainLog.Info().Msg("Bridge host shut down")
}
