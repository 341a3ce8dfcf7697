package collector

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fushengyk/binance-stream/internal/domain"
	"github.com/fushengyk/binance-stream/internal/metrics"
	"github.com/fushengyk/binance-stream/pkg/events"
	"github.com/fushengyk/binance-stream/pkg/stream"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Publisher is the JetStream publish call natsHandler needs
type Publisher interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// natsHandler publishes market events to NATS
type natsHandler struct {
	pub    Publisher
	market stream.Market
	stats  *collectorStats
	rec    *metrics.Recorder
	logger *zap.SugaredLogger
	now    func() time.Time
}

// Handle publishes ev. A failed publish is counted but does not end the
// session; only an event that cannot be encoded does.
func (h *natsHandler) Handle(ev events.Event) error {
	h.stats.msgRecv.Add(1)

	me, err := domain.NewMarketEvent(h.market, ev, h.now().UnixMilli())
	if err != nil {
		h.stats.msgFailed.Add(1)
		return fmt.Errorf("encode %s: %w", ev.Kind(), err)
	}
	data, err := json.Marshal(me)
	if err != nil {
		h.stats.msgFailed.Add(1)
		return fmt.Errorf("encode %s envelope: %w", ev.Kind(), err)
	}

	subject := domain.SubjectFor(me)
	if _, err := h.pub.Publish(subject, data); err != nil {
		h.stats.msgFailed.Add(1)
		if h.rec != nil {
			h.rec.IncPublishError(h.market)
		}
		h.logger.Debugf("[Collector] Publish %s failed: %v", subject, err)
		return nil
	}

	h.stats.msgPublished.Add(1)
	h.stats.recordSymbol(h.market, me.Symbol)
	return nil
}
