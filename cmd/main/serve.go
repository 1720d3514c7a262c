package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"auction-predictor/src/grpc_control"
	"auction-predictor/src/server"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const cleanupInterval = 24 * time.Hour

// -----------------------------------------------------------------------------

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, websocket feed and gRPC service",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

// -----------------------------------------------------------------------------

func serve(ctx context.Context) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	p, err := a.newPipeline(ctx)
	if err != nil {
		return err
	}
	a.log.Info("Loaded %d model artifacts (data source: %s)", len(p.Models()), a.cfg.DataSource.Mode)

	srv := server.NewAPIServer(a.cfg.MConfig, a.log.WithName("APIServer"))
	p.AttachFeed(srv)
	srv.AttachPredictor(p)

	g, gctx := errgroup.WithContext(ctx)

	// 1. HTTP API + websocket hub
	g.Go(func() error {
		return srv.Run(gctx)
	})

	// 2. gRPC Prediction Server
	g.Go(func() error {
		addr := fmt.Sprintf("%s:%d", a.cfg.GrpcHost, a.cfg.GrpcPort)
		svc := grpc_control.NewPredictionService(p, a.log.WithName("PredictionService"))
		return grpc_control.Serve(gctx, addr, svc, a.log.WithName("gRPC"))
	})

	// 3. Market refresh, live mode only
	if a.cfg.DataSource.Mode == "live" {
		g.Go(func() error {
			interval := time.Duration(a.cfg.MarketData.RefreshIntervalMinutes) * time.Minute
			return a.newMarketSync().Run(gctx, interval)
		})
	}

	// 4. Prediction log retention
	g.Go(func() error {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			if err := a.db.CleanupOldData(gctx); err != nil && gctx.Err() == nil {
				a.log.Warning("Cleanup failed: %v", err)
			}
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	err = g.Wait()
	a.log.Info("Shutting down...")
	return err
}
