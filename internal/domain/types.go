package domain

import (
	"encoding/json"
	"strings"

	"github.com/fushengyk/binance-stream/pkg/events"
	"github.com/fushengyk/binance-stream/pkg/stream"
)

// ExchangeID represents a supported exchange
type ExchangeID string

const (
	ExchangeBinance ExchangeID = "binance"
)

// Symbol placeholders for events that are not about one instrument.
// SymbolUnknown marks a single-instrument event whose payload carries no
// symbol, such as a partial depth snapshot read from a raw stream.
const (
	SymbolAll     = "all"
	SymbolUser    = "user"
	SymbolUnknown = "unknown"
)

// MarketEvent is the envelope every classified event is published in
type MarketEvent struct {
	Exchange ExchangeID      `json:"ex"`
	Market   stream.Market   `json:"m"`
	Kind     events.Kind     `json:"kind"`
	Symbol   string          `json:"s"`
	Recv     int64           `json:"recv"` // Local receive time (ms)
	Data     json.RawMessage `json:"data"`
}

// NewMarketEvent wraps ev for publishing.
func NewMarketEvent(market stream.Market, ev events.Event, recv int64) (MarketEvent, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return MarketEvent{}, err
	}
	return MarketEvent{
		Exchange: ExchangeBinance,
		Market:   market,
		Kind:     ev.Kind(),
		Symbol:   EventSymbol(ev),
		Recv:     recv,
		Data:     data,
	}, nil
}

// EventSymbol returns the upper case instrument an event refers to. Array
// events map to SymbolAll, user-data events to SymbolUser and anything else
// without a symbol to SymbolUnknown.
func EventSymbol(ev events.Event) string {
	var sym string
	switch e := ev.(type) {
	case events.TradeEvent:
		sym = e.Symbol
	case events.AggTradeEvent:
		sym = e.Symbol
	case events.OrderBook:
		sym = e.Symbol
	case events.DepthOrderBookEvent:
		sym = e.Symbol
	case events.BookTickerEvent:
		sym = e.Symbol
	case events.DayTickerEvent:
		sym = e.Symbol
	case events.MiniTickerEvent:
		sym = e.Symbol
	case events.KlineEvent:
		sym = e.Symbol
	case events.MarkPriceEvent:
		sym = e.Symbol
	case events.IndexPriceEvent:
		sym = e.Pair
	case events.ContinuousKlineEvent:
		sym = e.Pair
	case events.IndexKlineEvent:
		sym = e.Pair
	case events.LiquidationEvent:
		sym = e.Order.Symbol
	case events.DayTickerAll, events.MiniTickerAll, events.MarkPriceAll:
		return SymbolAll
	case events.AccountPositionEvent, events.BalanceUpdateEvent, events.OrderTradeEvent,
		events.AccountUpdateEvent, events.FuturesOrderTradeEvent, events.ListenKeyExpiredEvent:
		return SymbolUser
	}
	if sym == "" {
		return SymbolUnknown
	}
	return strings.ToUpper(sym)
}
