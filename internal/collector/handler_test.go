package collector

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/fushengyk/binance-stream/internal/collector/mocks"
	"github.com/fushengyk/binance-stream/internal/metrics"
	"github.com/fushengyk/binance-stream/pkg/events"
	"github.com/fushengyk/binance-stream/pkg/stream"
	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// envelopeOf matches published payloads by their kind and symbol.
type envelopeOf struct {
	kind   events.Kind
	symbol string
	recv   int64
}

func (m envelopeOf) Matches(x interface{}) bool {
	data, ok := x.([]byte)
	if !ok {
		return false
	}
	var env struct {
		Ex   string          `json:"ex"`
		Kind string          `json:"kind"`
		S    string          `json:"s"`
		Recv int64           `json:"recv"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return false
	}
	return env.Ex == "binance" && env.Kind == string(m.kind) && env.S == m.symbol && env.Recv == m.recv && len(env.Data) > 0
}

func (m envelopeOf) String() string {
	return fmt.Sprintf("envelope of %s %s", m.kind, m.symbol)
}

func newTestHandler(pub Publisher, market stream.Market, rec *metrics.Recorder) (*natsHandler, *collectorStats) {
	stats := &collectorStats{}
	return &natsHandler{
		pub:    pub,
		market: market,
		stats:  stats,
		rec:    rec,
		logger: zap.NewNop().Sugar(),
		now:    func() time.Time { return time.UnixMilli(1700000000000) },
	}, stats
}

func TestNatsHandler_Publishes(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)

	gomock.InOrder(
		pub.EXPECT().
			Publish("market.binance.spot.trade.bnbbtc", envelopeOf{events.KindTrade, "BNBBTC", 1700000000000}).
			Return(nil, nil),
		pub.EXPECT().
			Publish("market.binance.spot.day_ticker_all.all", envelopeOf{events.KindDayTickerAll, "all", 1700000000000}).
			Return(nil, nil),
	)

	h, stats := newTestHandler(pub, stream.Spot, nil)
	require.NoError(t, h.Handle(events.TradeEvent{EventType: "trade", Symbol: "BNBBTC"}))
	require.NoError(t, h.Handle(events.DayTickerAll{{Symbol: "BTCUSDT"}}))

	assert.Equal(t, uint64(2), stats.msgRecv.Load())
	assert.Equal(t, uint64(2), stats.msgPublished.Load())
	assert.Zero(t, stats.msgFailed.Load())
}

func TestNatsHandler_PublishErrorIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)
	pub.EXPECT().Publish("market.binance.usdm.mark_price.btcusdt", gomock.Any()).Return(nil, errors.New("no responders"))

	rec := metrics.NewRecorder()
	h, stats := newTestHandler(pub, stream.USDM, rec)

	assert.NoError(t, h.Handle(events.MarkPriceEvent{Symbol: "BTCUSDT"}))
	assert.Equal(t, uint64(1), stats.msgFailed.Load())
	assert.Zero(t, stats.msgPublished.Load())

	expected := `
# HELP binance_stream_publish_errors_total Events that could not be published to NATS
# TYPE binance_stream_publish_errors_total counter
binance_stream_publish_errors_total{market="usdm"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected), "binance_stream_publish_errors_total"))
}

func TestNatsHandler_ThroughSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)
	pub.EXPECT().
		Publish("market.binance.spot.order_book.bnbbtc", envelopeOf{events.KindOrderBook, "BNBBTC", 1700000000000}).
		Return(nil, nil)

	h, _ := newTestHandler(pub, stream.Spot, nil)
	s := stream.NewSession(stream.Spot, h)
	require.NoError(t, s.InjectMessage([]byte(`{"stream":"bnbbtc@depth5","data":{"lastUpdateId":1,"bids":[["1","2"]],"asks":[]}}`)))
}
