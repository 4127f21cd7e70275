package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/recera/quadplot/internal/config"
	"github.com/recera/quadplot/internal/discovery"
	"github.com/recera/quadplot/internal/telemetry"
	"github.com/recera/quadplot/pkg/equation"
	"github.com/recera/quadplot/pkg/live"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var listen string
	var path string
	var advertise bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the equation peer",
		Long:  `Serves calculate requests over a websocket, answering each with an equation and its sample points.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			// CLI takes precedence
			if cmd.Flags().Changed("listen") {
				cfg.Server.Listen = listen
			}
			if cmd.Flags().Changed("path") {
				cfg.Server.Path = path
			}
			if cmd.Flags().Changed("advertise") {
				cfg.Server.Advertise = advertise
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", ":4000", "Address to listen on")
	cmd.Flags().StringVar(&path, "path", "/", "Websocket path")
	cmd.Flags().BoolVar(&advertise, "advertise", false, "Announce the peer over mDNS")

	return cmd
}

func runServe(cfg *config.Config) error {
	logger, err := config.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	meter, shutdownMetrics, err := telemetry.Setup(ctx, cfg.Metrics, "quadplot", logger)
	if err != nil {
		return err
	}

	liveServer, err := live.NewServer(
		equation.NewService(cfg.Server.MaxInvolutions, logger),
		live.ServerOptions{
			RateLimit: cfg.Server.RateLimit,
			RateBurst: cfg.Server.RateBurst,
			Logger:    logger,
			Meter:     meter,
		},
	)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Server.Path, liveServer)

	ln, err := net.Listen("tcp", cfg.Server.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Listen, err)
	}

	if cfg.Server.Advertise {
		port := ln.Addr().(*net.TCPAddr).Port
		adv, err := discovery.Advertise(cfg.Server.Instance, port, cfg.Server.Path, logger)
		if err != nil {
			logger.Warn("mDNS advertisement unavailable", "error", err)
		} else {
			defer adv.Close()
		}
	}

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info("peer listening", "addr", ln.Addr().String(), "path", cfg.Server.Path)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown.
	liveServer.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	return shutdownMetrics(shutdownCtx)
}
