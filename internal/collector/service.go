package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fushengyk/binance-stream/internal/config"
	"github.com/fushengyk/binance-stream/internal/metrics"
	"github.com/fushengyk/binance-stream/pkg/stream"
	"go.uber.org/zap"
)

// Service runs one supervised stream session per chunk of every
// configured subscription and publishes what they receive.
type Service struct {
	cfg    *config.Config
	pub    Publisher
	rec    *metrics.Recorder
	logger *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	clients []*wsClient
	wg      sync.WaitGroup

	statsInterval time.Duration
	stats         collectorStats
}

// NewService creates a new collector service. rec may be nil.
func NewService(cfg *config.Config, pub Publisher, rec *metrics.Recorder, logger *zap.SugaredLogger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("collector: nil config")
	}
	if pub == nil {
		return nil, errors.New("collector: nil publisher")
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		cfg:           cfg,
		pub:           pub,
		rec:           rec,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
		statsInterval: time.Minute,
	}, nil
}

// Start builds the clients and connects them with the configured stagger.
// It returns once every client has been started.
func (s *Service) Start() error {
	s.logger.Info("📊 Starting Collector Service...")

	clients, err := s.createClients()
	if err != nil {
		return err
	}
	if len(clients) == 0 {
		s.logger.Warn("[Collector] No subscriptions configured")
	}

	s.mu.Lock()
	s.clients = clients
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runStatsLogger()
	}()

	s.startClients(clients)
	s.logger.Infof("✅ Started %d stream clients", len(clients))
	return nil
}

// Stop cancels every client and waits for them to exit
func (s *Service) Stop() {
	s.logger.Info("🛑 Stopping Collector Service...")
	s.cancel()

	s.mu.RLock()
	clients := s.clients
	s.mu.RUnlock()

	for _, client := range clients {
		client.Stop()
	}
	s.wg.Wait()
}

// Clients returns the number of stream clients.
func (s *Service) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// createClients creates one client per chunk of max_streams_per_conn topics
func (s *Service) createClients() ([]*wsClient, error) {
	var clients []*wsClient
	maxStreams := s.cfg.Binance.WebSocket.MaxStreamsPerConn
	if maxStreams <= 0 {
		maxStreams = 50
	}

	for _, sub := range s.cfg.Subscriptions {
		market, err := stream.ParseMarket(sub.Market)
		if err != nil {
			return nil, fmt.Errorf("subscription %s: %w", sub.Name, err)
		}
		handler := s.newHandler(market)
		opts := append(s.cfg.SessionOptions(market), stream.WithLogger(s.logger))

		for i, chunk := range chunkTopics(sub.Topics, maxStreams) {
			name := fmt.Sprintf("%s-%d", sub.Name, i)
			clients = append(clients, newWSClient(s.ctx, name, market, chunk, handler, opts, s.cfg.Binance.WebSocket, s.rec, s.logger))
		}
	}
	return clients, nil
}

// startClients starts clients with staggered connections
func (s *Service) startClients(clients []*wsClient) {
	stagger := s.cfg.Binance.WebSocket.ConnectStagger

	for i, client := range clients {
		if i > 0 && stagger > 0 {
			select {
			case <-time.After(stagger):
			case <-s.ctx.Done():
				return
			}
		}
		client.Start()

		if (i+1)%10 == 0 {
			s.logger.Infof("[Collector] Started %d/%d clients", i+1, len(clients))
		}
	}
}

func (s *Service) newHandler(market stream.Market) stream.Handler {
	h := &natsHandler{
		pub:    s.pub,
		market: market,
		stats:  &s.stats,
		rec:    s.rec,
		logger: s.logger,
		now:    time.Now,
	}
	if s.rec == nil {
		return h
	}
	return s.rec.Instrument(market, h)
}

// chunkTopics splits topics into groups of at most size, skipping blanks.
func chunkTopics(topics []string, size int) [][]string {
	var clean []string
	for _, t := range topics {
		if t != "" {
			clean = append(clean, t)
		}
	}

	var chunks [][]string
	for i := 0; i < len(clean); i += size {
		end := min(i+size, len(clean))
		chunks = append(chunks, clean[i:end])
	}
	return chunks
}
