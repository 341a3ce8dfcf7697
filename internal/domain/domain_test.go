package domain

import (
	"encoding/json"
	"testing"

	"github.com/fushengyk/binance-stream/pkg/events"
	"github.com/fushengyk/binance-stream/pkg/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectEvent(t *testing.T) {
	assert.Equal(t, "market.binance.spot.trade.bnbbtc", SubjectEvent(ExchangeBinance, stream.Spot, events.KindTrade, "BNBBTC"))
	assert.Equal(t, "market.binance.usdm.mark_price_all.all", SubjectEvent(ExchangeBinance, stream.USDM, events.KindMarkPriceAll, SymbolAll))
	assert.Equal(t, "market.binance.vanilla.kline.btc-250101-c_1", SubjectEvent(ExchangeBinance, stream.Vanilla, events.KindKline, "BTC-250101-C.1"))
	assert.Equal(t, "market.binance.coinm.trade.unknown", SubjectEvent(ExchangeBinance, stream.COINM, events.KindTrade, ""))

	assert.Equal(t, "market.binance.>", SubjectPatternAllMarket(ExchangeBinance))
	assert.Equal(t, "market.binance.spot.kline.*", SubjectPatternKind(ExchangeBinance, stream.Spot, events.KindKline))
}

func TestEventSymbol(t *testing.T) {
	tests := []struct {
		name string
		ev   events.Event
		want string
	}{
		{"trade", events.TradeEvent{Symbol: "BNBBTC"}, "BNBBTC"},
		{"order book lower case", events.OrderBook{Symbol: "btcusdt"}, "BTCUSDT"},
		{"book ticker", events.BookTickerEvent{Symbol: "ETHUSDT"}, "ETHUSDT"},
		{"index price pair", events.IndexPriceEvent{Pair: "BTCUSD"}, "BTCUSD"},
		{"continuous kline pair", events.ContinuousKlineEvent{Pair: "BTCUSDT"}, "BTCUSDT"},
		{"liquidation", events.LiquidationEvent{Order: events.LiquidationOrder{Symbol: "XRPUSDT"}}, "XRPUSDT"},
		{"array", events.MarkPriceAll{{Symbol: "BTCUSDT"}}, SymbolAll},
		{"user data", events.BalanceUpdateEvent{}, SymbolUser},
		{"listen key", events.ListenKeyExpiredEvent{}, SymbolUser},
		{"missing symbol", events.KlineEvent{}, SymbolUnknown},
		{"raw partial depth", events.OrderBook{LastUpdateID: 160}, SymbolUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EventSymbol(tt.ev))
		})
	}
}

func TestNewMarketEvent(t *testing.T) {
	ev := events.TradeEvent{EventType: "trade", Symbol: "BNBBTC", TradeID: 12345}
	me, err := NewMarketEvent(stream.Spot, ev, 1700000000000)
	require.NoError(t, err)

	assert.Equal(t, ExchangeBinance, me.Exchange)
	assert.Equal(t, events.KindTrade, me.Kind)
	assert.Equal(t, "BNBBTC", me.Symbol)
	assert.Equal(t, "market.binance.spot.trade.bnbbtc", SubjectFor(me))

	raw, err := json.Marshal(me)
	require.NoError(t, err)
	var decoded struct {
		Ex   string `json:"ex"`
		M    string `json:"m"`
		Kind string `json:"kind"`
		Recv int64  `json:"recv"`
		Data struct {
			S         string `json:"s"`
			T         int64  `json:"t"`
			TradeTime int64  `json:"T"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "binance", decoded.Ex)
	assert.Equal(t, "spot", decoded.M)
	assert.Equal(t, "trade", decoded.Kind)
	assert.Equal(t, int64(1700000000000), decoded.Recv)
	assert.Equal(t, "BNBBTC", decoded.Data.S)
	assert.Equal(t, int64(12345), decoded.Data.T)
}
