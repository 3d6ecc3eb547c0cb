// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AleutianAI/AleutianCircuit/services/circuit"
	"github.com/AleutianAI/AleutianCircuit/services/circuit/snapshot"
	storage "github.com/AleutianAI/AleutianCircuit/services/circuit/storage/badger"
	"github.com/AleutianAI/AleutianCircuit/services/circuit/telemetry"
	"github.com/AleutianAI/AleutianCircuit/services/circuit/watch"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// runServe starts the HTTP API and, when enabled, the file watcher. Both
// stop on SIGINT or SIGTERM.
func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Init(ctx, telemetryConfig(false))
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	db, err := openStorage()
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := snapshot.NewStore(db, slog.Default())
	if err != nil {
		return err
	}

	svc, err := circuit.NewService(circuit.ServiceConfig{
		Logger:     slog.Default(),
		Registerer: prometheus.DefaultRegisterer,
		Store:      store,
	})
	if err != nil {
		return err
	}

	hasInput := false
	if cfg.Input != "" {
		if _, err := os.Stat(cfg.Input); err == nil {
			if _, err := svc.LoadFile(ctx, cfg.Input); err != nil {
				slog.Warn("initial load failed, serving an empty board",
					slog.String("source", cfg.Input), slog.String("error", err.Error()))
			}
			hasInput = true
		} else {
			slog.Warn("instruction file not found, serving an empty board", slog.String("source", cfg.Input))
		}
	}

	metrics := telemetry.MetricsHandler()
	if metrics == nil {
		metrics = promhttp.Handler()
	}

	gin.SetMode(gin.ReleaseMode)
	router := circuit.NewRouter(circuit.NewHandlers(svc, slog.Default()), circuit.RouterConfig{
		ServiceName: "circuit-service",
		RateLimit:   cfg.Server.RateLimit,
		Burst:       cfg.Server.Burst,
		Metrics:     metrics,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting circuit server", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down circuit server")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(sctx)
	})

	if cfg.Watch.Enabled && hasInput {
		w, err := watch.New(cfg.Input, svc.Reload, watch.Options{
			Debounce: cfg.Watch.Debounce,
			Logger:   slog.Default(),
		})
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		g.Go(func() error {
			return w.Run(gctx)
		})
	}

	return g.Wait()
}

func openStorage() (*storage.DB, error) {
	if cfg.Storage.InMemory {
		return storage.OpenInMemory()
	}
	sc := storage.DefaultConfig(cfg.Storage.Path)
	sc.Logger = slog.Default()
	return storage.Open(sc)
}
