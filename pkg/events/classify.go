package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed is returned by Classify when the payload is not valid JSON.
var ErrMalformed = errors.New("malformed json payload")

// shape describes one candidate of the untagged union. A payload matches when
// its "e" field equals tag (if set), every key in keys is present, and the
// full decode succeeds.
type shape struct {
	kind   Kind
	tag    string
	keys   []string
	array  bool
	decode func([]byte) (Event, error)
}

// Classifier maps a raw JSON payload onto the first matching event variant.
// Candidates are tried in a fixed order; a payload that matches none of them
// is reported as not matched, which callers treat as a silent drop.
type Classifier struct {
	name   string
	shapes []shape
}

func decodeAs[T Event](raw []byte) (Event, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// SpotClassifier recognises spot market and spot user-data payloads.
func SpotClassifier() *Classifier {
	return &Classifier{
		name: "spot",
		shapes: []shape{
			{kind: KindDayTickerAll, tag: "24hrTicker", array: true, decode: decodeAs[DayTickerAll]},
			{kind: KindMiniTickerAll, tag: "24hrMiniTicker", array: true, decode: decodeAs[MiniTickerAll]},
			{kind: KindAccountPosition, tag: "outboundAccountPosition", keys: []string{"B"}, decode: decodeAs[AccountPositionEvent]},
			{kind: KindBalanceUpdate, tag: "balanceUpdate", keys: []string{"a", "d"}, decode: decodeAs[BalanceUpdateEvent]},
			{kind: KindOrderTrade, tag: "executionReport", keys: []string{"s", "i"}, decode: decodeAs[OrderTradeEvent]},
			{kind: KindAggTrade, tag: "aggTrade", keys: []string{"s", "a", "p", "q"}, decode: decodeAs[AggTradeEvent]},
			{kind: KindTrade, tag: "trade", keys: []string{"s", "t", "p", "q"}, decode: decodeAs[TradeEvent]},
			{kind: KindDayTicker, tag: "24hrTicker", keys: []string{"s"}, decode: decodeAs[DayTickerEvent]},
			{kind: KindMiniTicker, tag: "24hrMiniTicker", keys: []string{"s"}, decode: decodeAs[MiniTickerEvent]},
			{kind: KindKline, tag: "kline", keys: []string{"s", "k"}, decode: decodeAs[KlineEvent]},
			{kind: KindDepthOrderBook, tag: "depthUpdate", keys: []string{"s", "U", "u"}, decode: decodeAs[DepthOrderBookEvent]},
			{kind: KindListenKeyExpired, tag: "listenKeyExpired", decode: decodeAs[ListenKeyExpiredEvent]},
			{kind: KindBookTicker, keys: []string{"u", "s", "b", "B", "a", "A"}, decode: decodeAs[BookTickerEvent]},
			{kind: KindOrderBook, keys: []string{"lastUpdateId", "bids", "asks"}, decode: decodeAs[OrderBook]},
		},
	}
}

// FuturesClassifier recognises USD-M, COIN-M and options payloads, including
// derivatives user-data events.
func FuturesClassifier() *Classifier {
	return &Classifier{
		name: "futures",
		shapes: []shape{
			{kind: KindDayTickerAll, tag: "24hrTicker", array: true, decode: decodeAs[DayTickerAll]},
			{kind: KindMiniTickerAll, tag: "24hrMiniTicker", array: true, decode: decodeAs[MiniTickerAll]},
			{kind: KindMarkPriceAll, tag: "markPriceUpdate", array: true, decode: decodeAs[MarkPriceAll]},
			{kind: KindDayTicker, tag: "24hrTicker", keys: []string{"s"}, decode: decodeAs[DayTickerEvent]},
			{kind: KindMiniTicker, tag: "24hrMiniTicker", keys: []string{"s"}, decode: decodeAs[MiniTickerEvent]},
			{kind: KindAccountUpdate, tag: "ACCOUNT_UPDATE", keys: []string{"a"}, decode: decodeAs[AccountUpdateEvent]},
			{kind: KindFuturesOrderTrade, tag: "ORDER_TRADE_UPDATE", keys: []string{"o"}, decode: decodeAs[FuturesOrderTradeEvent]},
			{kind: KindAggTrade, tag: "aggTrade", keys: []string{"s", "a", "p", "q"}, decode: decodeAs[AggTradeEvent]},
			{kind: KindIndexPrice, tag: "indexPriceUpdate", keys: []string{"i", "p"}, decode: decodeAs[IndexPriceEvent]},
			{kind: KindMarkPrice, tag: "markPriceUpdate", keys: []string{"s", "p"}, decode: decodeAs[MarkPriceEvent]},
			{kind: KindTrade, tag: "trade", keys: []string{"s", "t", "p", "q"}, decode: decodeAs[TradeEvent]},
			{kind: KindKline, tag: "kline", keys: []string{"s", "k"}, decode: decodeAs[KlineEvent]},
			{kind: KindContinuousKline, tag: "continuous_kline", keys: []string{"ps", "ct", "k"}, decode: decodeAs[ContinuousKlineEvent]},
			{kind: KindIndexKline, tag: "indexPrice_kline", keys: []string{"ps", "k"}, decode: decodeAs[IndexKlineEvent]},
			{kind: KindLiquidation, tag: "forceOrder", keys: []string{"o"}, decode: decodeAs[LiquidationEvent]},
			{kind: KindDepthOrderBook, tag: "depthUpdate", keys: []string{"s", "U", "u"}, decode: decodeAs[DepthOrderBookEvent]},
			{kind: KindListenKeyExpired, tag: "listenKeyExpired", decode: decodeAs[ListenKeyExpiredEvent]},
			{kind: KindBookTicker, keys: []string{"u", "s", "b", "B", "a", "A"}, decode: decodeAs[BookTickerEvent]},
			{kind: KindOrderBook, keys: []string{"lastUpdateId", "bids", "asks"}, decode: decodeAs[OrderBook]},
		},
	}
}

// Name returns the classifier's market family ("spot" or "futures").
func (c *Classifier) Name() string { return c.name }

// Kinds lists the variants in the order they are tried.
func (c *Classifier) Kinds() []Kind {
	out := make([]Kind, 0, len(c.shapes))
	for _, s := range c.shapes {
		out = append(out, s.kind)
	}
	return out
}

// Classify returns the first variant raw decodes into. ok is false when no
// variant matches. err is non-nil only for payloads that are not valid JSON.
func (c *Classifier) Classify(raw []byte) (ev Event, ok bool, err error) {
	raw = bytes.TrimSpace(raw)
	if !json.Valid(raw) {
		return nil, false, ErrMalformed
	}

	probe, isArray, err := probeKeys(raw)
	if err != nil || probe == nil {
		return nil, false, nil
	}

	for _, s := range c.shapes {
		if s.array != isArray || !s.matches(probe) {
			continue
		}
		ev, err := s.decode(raw)
		if err != nil {
			continue
		}
		return ev, true, nil
	}
	return nil, false, nil
}

func (s shape) matches(probe map[string]json.RawMessage) bool {
	if s.tag != "" {
		var tag string
		if err := json.Unmarshal(probe["e"], &tag); err != nil || tag != s.tag {
			return false
		}
	}
	for _, k := range s.keys {
		if _, ok := probe[k]; !ok {
			return false
		}
	}
	return true
}

// probeKeys decodes the top-level keys of an object, or of the first element
// of an array. It returns a nil map for scalars and empty arrays.
func probeKeys(raw []byte) (map[string]json.RawMessage, bool, error) {
	switch raw[0] {
	case '{':
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil, false, err
		}
		return probe, false, nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, true, err
		}
		if len(items) == 0 {
			return nil, true, nil
		}
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(items[0], &probe); err != nil {
			return nil, true, fmt.Errorf("array element: %w", err)
		}
		return probe, true, nil
	default:
		return nil, false, nil
	}
}
