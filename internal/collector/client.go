package collector

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fushengyk/binance-stream/internal/config"
	"github.com/fushengyk/binance-stream/internal/metrics"
	"github.com/fushengyk/binance-stream/pkg/stream"
	"go.uber.org/zap"
)

// wsClient keeps one stream session alive, reconnecting with exponential
// backoff whenever Run ends for any reason other than Stop.
type wsClient struct {
	name    string
	market  stream.Market
	streams []string
	handler stream.Handler
	opts    []stream.Option
	wsCfg   config.WebSocketConfig
	rec     *metrics.Recorder
	logger  *zap.SugaredLogger

	ctx     context.Context
	cancel  context.CancelFunc
	started atomic.Bool
	done    chan struct{}
}

func newWSClient(parent context.Context, name string, market stream.Market, streams []string, handler stream.Handler,
	opts []stream.Option, wsCfg config.WebSocketConfig, rec *metrics.Recorder, logger *zap.SugaredLogger) *wsClient {
	ctx, cancel := context.WithCancel(parent)
	return &wsClient{
		name:    name,
		market:  market,
		streams: streams,
		handler: handler,
		opts:    opts,
		wsCfg:   wsCfg,
		rec:     rec,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

func (c *wsClient) Start() {
	if c.started.CompareAndSwap(false, true) {
		go c.run()
	}
}

// Stop cancels the client and waits for its goroutine, if it was started.
func (c *wsClient) Stop() {
	c.cancel()
	if c.started.Load() {
		<-c.done
	}
}

func (c *wsClient) run() {
	defer close(c.done)

	b := c.getBackoff()
	notify := func(err error, wait time.Duration) {
		if c.rec != nil {
			c.rec.IncReconnect(c.market)
		}
		c.logger.Warnf("[%s] Disconnected (%s): %v. Retry in %v", c.name, stream.Reason(err), err, wait.Round(time.Millisecond))
	}

	err := backoff.RetryNotify(func() error {
		started := time.Now()
		err := c.connectAndRun()
		if c.rec != nil {
			c.rec.IncSessionError(c.market, err)
		}
		if stream.IsStopped(err) || c.ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		// A session that stayed up longer than the longest delay starts over
		// from the initial delay.
		if time.Since(started) > b.MaxInterval {
			b.Reset()
		}
		return err
	}, backoff.WithContext(b, c.ctx), notify)

	if err != nil && !stream.IsStopped(err) && c.ctx.Err() == nil {
		c.logger.Errorf("[%s] Giving up: %v", c.name, err)
	}
}

func (c *wsClient) getBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.wsCfg.ReconnectDelay
	if b.InitialInterval <= 0 {
		b.InitialInterval = time.Second
	}
	b.MaxInterval = c.wsCfg.MaxReconnectDelay
	if b.MaxInterval <= 0 {
		b.MaxInterval = 30 * time.Second
	}
	b.Multiplier = 2
	b.RandomizationFactor = 0.2
	b.MaxElapsedTime = 0 // never give up
	b.Reset()
	return b
}

// connectAndRun opens a fresh session and runs it until it ends.
func (c *wsClient) connectAndRun() error {
	session := stream.NewSession(c.market, c.handler, c.opts...)
	if err := session.ConnectMultiple(c.ctx, c.streams); err != nil {
		return err
	}
	defer func() {
		if err := session.Disconnect(); err != nil {
			c.logger.Debugf("[%s] Disconnect: %v", c.name, err)
		}
	}()
	return session.Run(c.ctx)
}
