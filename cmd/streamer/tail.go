package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fushengyk/binance-stream/internal/config"
	"github.com/fushengyk/binance-stream/internal/domain"
	"github.com/fushengyk/binance-stream/pkg/events"
	"github.com/fushengyk/binance-stream/pkg/stream"
	"github.com/spf13/cobra"
)

type tailOptions struct {
	market      string
	customBase  string
	readTimeout time.Duration
	limit       int
}

func newTailCmd(configPath *string) *cobra.Command {
	opts := &tailOptions{}
	cmd := &cobra.Command{
		Use:   "tail [flags] topic...",
		Short: "Open one stream session and print every event it classifies",
		Example: `  streamer tail btcusdt@aggTrade
  streamer tail --market usdm btcusdt@markPrice ethusdt@markPrice
  streamer tail --custom-base ws://127.0.0.1:8080 bnbbtc@trade`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runTail(ctx, cmd, *configPath, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.market, "market", "spot", "Market: spot, usdm, coinm or vanilla")
	cmd.Flags().StringVar(&opts.customBase, "custom-base", "", "Connect to this base URL instead of the configured endpoint")
	cmd.Flags().DurationVar(&opts.readTimeout, "read-timeout", 0, "Override the per-read liveness timeout")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Stop after this many events (0 = unlimited)")
	return cmd
}

func runTail(parent context.Context, cmd *cobra.Command, configPath string, opts *tailOptions, topics []string) error {
	market, err := stream.ParseMarket(opts.market)
	if err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	out := cmd.OutOrStdout()
	seen := 0
	handler := stream.HandlerFunc(func(ev events.Event) error {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\t%s\t%s\n", ev.Kind(), domain.EventSymbol(ev), data)
		seen++
		if opts.limit > 0 && seen >= opts.limit {
			cancel()
		}
		return nil
	})

	sessionOpts := append(cfg.SessionOptions(market), stream.WithLogger(sugar))
	if opts.readTimeout > 0 {
		sessionOpts = append(sessionOpts, stream.WithReadTimeout(opts.readTimeout))
	}
	session := stream.NewSession(market, handler, sessionOpts...)

	switch {
	case opts.customBase != "":
		err = session.ConnectCustom(ctx, opts.customBase, topics...)
	case len(topics) == 1:
		err = session.Connect(ctx, topics[0])
	default:
		err = session.ConnectMultiple(ctx, topics)
	}
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Disconnect(); err != nil {
			sugar.Debugf("[Tail] %v", err)
		}
	}()

	err = session.Run(ctx)
	if stream.IsStopped(err) {
		sugar.Infof("[Tail] Stopped after %d events", seen)
		return nil
	}
	return fmt.Errorf("session ended after %d events (%s): %w", seen, stream.Reason(err), err)
}
