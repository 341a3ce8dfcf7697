package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fushengyk/binance-stream/internal/collector"
	"github.com/fushengyk/binance-stream/internal/config"
	"github.com/fushengyk/binance-stream/internal/domain"
	"github.com/fushengyk/binance-stream/internal/metrics"
	"github.com/fushengyk/binance-stream/internal/natsutil"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the collector: every configured subscription is published to NATS JetStream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCollector(cmd.Context(), *configPath)
		},
	}
}

func runCollector(parent context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateCollector(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	sugar.Infof("📡 Starting Stream Collector %s...", version)

	// NATS
	nc, err := nats.Connect(cfg.NATS.URL,
		nats.Name("Binance Stream Collector"),
		nats.ReconnectWait(cfg.NATS.ReconnectWait),
		nats.MaxReconnects(cfg.NATS.MaxReconnects),
	)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer nc.Close()

	js, err := nc.JetStream()
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}
	sugar.Info("✅ Connected to NATS JetStream")

	if err := natsutil.EnsureStream(js, domain.StreamMarket, domain.StreamMarketSubjects, cfg.NATS.StreamMaxAge, sugar); err != nil {
		return err
	}

	rec := metrics.NewRecorder()
	svc, err := collector.NewService(cfg, js, rec, sugar)
	if err != nil {
		return fmt.Errorf("create collector service: %w", err)
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Addr != "" {
		srv := metrics.NewServer(cfg.Metrics.Addr, rec.Registry(), sugar)
		g.Go(func() error { return srv.Start(gctx) })
	}

	g.Go(func() error {
		if err := svc.Start(); err != nil {
			return fmt.Errorf("start collector: %w", err)
		}
		<-gctx.Done()
		sugar.Info("🛑 Shutting down Stream Collector...")
		svc.Stop()
		return nil
	})

	return g.Wait()
}
