package collector

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/fushengyk/binance-stream/pkg/stream"
)

// collectorStats tracks message statistics
type collectorStats struct {
	msgRecv       atomic.Uint64
	msgPublished  atomic.Uint64
	msgFailed     atomic.Uint64
	lastRecv      uint64
	lastPublished uint64
	lastFailed    uint64

	mu      sync.Mutex
	symbols map[stream.Market]map[string]bool
}

func (s *collectorStats) recordSymbol(market stream.Market, symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.symbols == nil {
		s.symbols = make(map[stream.Market]map[string]bool)
	}
	if s.symbols[market] == nil {
		s.symbols[market] = make(map[string]bool)
	}
	s.symbols[market][symbol] = true
}

// statsSnapshot is one interval worth of counters
type statsSnapshot struct {
	recv, published, failed uint64
	symbols map[stream.Market]int
}

// snapshot returns the deltas since the previous call and resets the
// symbol sets.
func (s *collectorStats) snapshot() statsSnapshot {
	recv := s.msgRecv.Load()
	published := s.msgPublished.Load()
	failed := s.msgFailed.Load()

	snap := statsSnapshot{
		recv:      recv - s.lastRecv,
		published: published - s.lastPublished,
		failed:    failed - s.lastFailed,
		symbols:   make(map[stream.Market]int),
	}
	s.lastRecv, s.lastPublished, s.lastFailed = recv, published, failed

	s.mu.Lock()
	for m, set := range s.symbols {
		snap.symbols[m] = len(set)
	}
	s.symbols = nil
	s.mu.Unlock()
	return snap
}

func (s *Service) runStatsLogger() {
	ticker := time.NewTicker(s.statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.logStats()
		}
	}
}

func (s *Service) logStats() {
	snap := s.stats.snapshot()

	s.mu.RLock()
	clientCount := len(s.clients)
	subs := make(map[stream.Market]int)
	for _, client := range s.clients {
		subs[client.market] += len(client.streams)
	}
	s.mu.RUnlock()

	s.logger.Infof("[Binance 1min] Clients: %d | Events: %d (published %d, failed %d)",
		clientCount, snap.recv, snap.published, snap.failed)
	for _, m := range stream.Markets {
		if subs[m] == 0 {
			continue
		}
		s.logger.Infof("[Binance 1min] %-7s streams=%d symbols=%d", m, subs[m], snap.symbols[m])
	}
}
