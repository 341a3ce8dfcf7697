// Package events defines the typed payloads delivered by Binance market and
// user-data streams, and the classifier that maps raw JSON onto them.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind identifies one member of the closed set of stream events
type Kind string

const (
	KindAccountUpdate     Kind = "account_update"
	KindAccountPosition   Kind = "account_position"
	KindBalanceUpdate     Kind = "balance_update"
	KindOrderTrade        Kind = "order_trade"
	KindFuturesOrderTrade Kind = "futures_order_trade"
	KindAggTrade          Kind = "agg_trade"
	KindTrade             Kind = "trade"
	KindOrderBook         Kind = "order_book"
	KindBookTicker        Kind = "book_ticker"
	KindDayTicker         Kind = "day_ticker"
	KindDayTickerAll      Kind = "day_ticker_all"
	KindMiniTicker        Kind = "mini_ticker"
	KindMiniTickerAll     Kind = "mini_ticker_all"
	KindKline             Kind = "kline"
	KindContinuousKline   Kind = "continuous_kline"
	KindIndexKline        Kind = "index_kline"
	KindMarkPrice         Kind = "mark_price"
	KindMarkPriceAll      Kind = "mark_price_all"
	KindIndexPrice        Kind = "index_price"
	KindLiquidation       Kind = "liquidation"
	KindDepthOrderBook    Kind = "depth_order_book"
	KindListenKeyExpired  Kind = "listen_key_expired"
)

// Event is implemented by every stream payload type in this package.
type Event interface {
	Kind() Kind
}

// PriceLevel is one [price, quantity] entry of an order book side.
type PriceLevel struct {
	Price decimal.Decimal
	Qty   decimal.Decimal
}

// UnmarshalJSON decodes the ["price","qty"] wire pair.
func (l *PriceLevel) UnmarshalJSON(data []byte) error {
	var pair []decimal.Decimal
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) < 2 {
		return fmt.Errorf("price level: want 2 elements, got %d", len(pair))
	}
	l.Price, l.Qty = pair[0], pair[1]
	return nil
}

// MarshalJSON encodes the level back into its wire pair.
func (l PriceLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]decimal.Decimal{l.Price, l.Qty})
}

// OptionalDecimal is a decimal field Binance may send as "", such as the
// funding rate of COIN-M delivery contracts. Valid is false for "" and null,
// and an invalid value encodes back to "".
type OptionalDecimal struct {
	decimal.NullDecimal
}

func (d *OptionalDecimal) UnmarshalJSON(data []byte) error {
	if s := string(data); s == `""` || s == "null" {
		d.NullDecimal = decimal.NullDecimal{}
		return nil
	}
	return d.NullDecimal.UnmarshalJSON(data)
}

func (d OptionalDecimal) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte(`""`), nil
	}
	return d.Decimal.MarshalJSON()
}

// TradeEvent is a raw trade (<symbol>@trade)
type TradeEvent struct {
	EventType     string          `json:"e"`
	EventTime     int64           `json:"E"`
	Symbol        string          `json:"s"`
	TradeID       int64           `json:"t"`
	Price         decimal.Decimal `json:"p"`
	Qty           decimal.Decimal `json:"q"`
	BuyerOrderID  int64           `json:"b"`
	SellerOrderID int64           `json:"a"`
	TradeTime     int64           `json:"T"`
	IsBuyerMaker  bool            `json:"m"`
	Ignore        bool            `json:"M"`
}

func (TradeEvent) Kind() Kind { return KindTrade }

// AggTradeEvent is an aggregate trade (<symbol>@aggTrade)
type AggTradeEvent struct {
	EventType    string          `json:"e"`
	EventTime    int64           `json:"E"`
	Symbol       string          `json:"s"`
	AggTradeID   int64           `json:"a"`
	Price        decimal.Decimal `json:"p"`
	Qty          decimal.Decimal `json:"q"`
	FirstTradeID int64           `json:"f"`
	LastTradeID  int64           `json:"l"`
	TradeTime    int64           `json:"T"`
	IsBuyerMaker bool            `json:"m"`
	Ignore       bool            `json:"M"`
}

func (AggTradeEvent) Kind() Kind { return KindAggTrade }

// OrderBook is a partial book depth snapshot (<symbol>@depth<levels>).
// The wire payload carries no symbol; Symbol is filled from the stream name
// when the message arrives through a combined stream.
type OrderBook struct {
	LastUpdateID int64        `json:"lastUpdateId"`
	Bids         []PriceLevel `json:"bids"`
	Asks         []PriceLevel `json:"asks"`
	Symbol       string       `json:"symbol,omitempty"`
}

func (OrderBook) Kind() Kind { return KindOrderBook }

// DepthOrderBookEvent is a diff depth update (<symbol>@depth)
type DepthOrderBookEvent struct {
	EventType         string       `json:"e"`
	EventTime         int64        `json:"E"`
	TransactionTime   int64        `json:"T,omitempty"`
	Symbol            string       `json:"s"`
	FirstUpdateID     int64        `json:"U"`
	FinalUpdateID     int64        `json:"u"`
	PrevFinalUpdateID int64        `json:"pu,omitempty"`
	Bids              []PriceLevel `json:"b"`
	Asks              []PriceLevel `json:"a"`
}

func (DepthOrderBookEvent) Kind() Kind { return KindDepthOrderBook }

// BookTickerEvent is the best bid/ask update (<symbol>@bookTicker). Spot
// omits the event type and times.
type BookTickerEvent struct {
	EventType       string          `json:"e,omitempty"`
	UpdateID        int64           `json:"u"`
	EventTime       int64           `json:"E,omitempty"`
	TransactionTime int64           `json:"T,omitempty"`
	Symbol          string          `json:"s"`
	BestBid         decimal.Decimal `json:"b"`
	BestBidQty      decimal.Decimal `json:"B"`
	BestAsk         decimal.Decimal `json:"a"`
	BestAskQty      decimal.Decimal `json:"A"`
}

func (BookTickerEvent) Kind() Kind { return KindBookTicker }

// DayTickerEvent is the rolling 24h statistics (<symbol>@ticker)
type DayTickerEvent struct {
	EventType          string          `json:"e"`
	EventTime          int64           `json:"E"`
	Symbol             string          `json:"s"`
	PriceChange        decimal.Decimal `json:"p"`
	PriceChangePercent decimal.Decimal `json:"P"`
	WeightedAvgPrice   decimal.Decimal `json:"w"`
	FirstTradePrice    decimal.Decimal `json:"x"`
	LastPrice          decimal.Decimal `json:"c"`
	LastQty            decimal.Decimal `json:"Q"`
	BestBid            decimal.Decimal `json:"b"`
	BestBidQty         decimal.Decimal `json:"B"`
	BestAsk            decimal.Decimal `json:"a"`
	BestAskQty         decimal.Decimal `json:"A"`
	Open               decimal.Decimal `json:"o"`
	High               decimal.Decimal `json:"h"`
	Low                decimal.Decimal `json:"l"`
	Volume             decimal.Decimal `json:"v"`
	QuoteVolume        decimal.Decimal `json:"q"`
	OpenTime           int64           `json:"O"`
	CloseTime          int64           `json:"C"`
	FirstTradeID       int64           `json:"F"`
	LastTradeID        int64           `json:"L"`
	NumTrades          int64           `json:"n"`
}

func (DayTickerEvent) Kind() Kind { return KindDayTicker }

// DayTickerAll is the bulk form delivered by !ticker@arr
type DayTickerAll []DayTickerEvent

func (DayTickerAll) Kind() Kind { return KindDayTickerAll }

// MiniTickerEvent is the reduced 24h statistics (<symbol>@miniTicker)
type MiniTickerEvent struct {
	EventType   string          `json:"e"`
	EventTime   int64           `json:"E"`
	Symbol      string          `json:"s"`
	Close       decimal.Decimal `json:"c"`
	Open        decimal.Decimal `json:"o"`
	High        decimal.Decimal `json:"h"`
	Low         decimal.Decimal `json:"l"`
	Volume      decimal.Decimal `json:"v"`
	QuoteVolume decimal.Decimal `json:"q"`
}

func (MiniTickerEvent) Kind() Kind { return KindMiniTicker }

// MiniTickerAll is the bulk form delivered by !miniTicker@arr
type MiniTickerAll []MiniTickerEvent

func (MiniTickerAll) Kind() Kind { return KindMiniTickerAll }

// Kline is the candlestick body shared by all kline streams.
// Note: keys that differ only in case (l/L, v/V, q/Q) must all be declared,
// otherwise encoding/json folds them onto the same field.
type Kline struct {
	StartTime           int64           `json:"t"`
	CloseTime           int64           `json:"T"`
	Symbol              string          `json:"s,omitempty"`
	Interval            string          `json:"i"`
	FirstTradeID        int64           `json:"f"`
	LastTradeID         int64           `json:"L"`
	Open                decimal.Decimal `json:"o"`
	Close               decimal.Decimal `json:"c"`
	High                decimal.Decimal `json:"h"`
	Low                 decimal.Decimal `json:"l"`
	Volume              decimal.Decimal `json:"v"`
	NumTrades           int64           `json:"n"`
	IsClosed            bool            `json:"x"`
	QuoteVolume         decimal.Decimal `json:"q"`
	TakerBuyBaseVolume  decimal.Decimal `json:"V"`
	TakerBuyQuoteVolume decimal.Decimal `json:"Q"`
	Ignore              string          `json:"B"`
}

// KlineEvent is a candlestick update (<symbol>@kline_<interval>)
type KlineEvent struct {
	EventType string `json:"e"`
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	Kline     Kline  `json:"k"`
}

func (KlineEvent) Kind() Kind { return KindKline }

// EventBalance is one asset entry of outboundAccountPosition
type EventBalance struct {
	Asset  string          `json:"a"`
	Free   decimal.Decimal `json:"f"`
	Locked decimal.Decimal `json:"l"`
}

// AccountPositionEvent is the spot outboundAccountPosition user-data event
type AccountPositionEvent struct {
	EventType      string         `json:"e"`
	EventTime      int64          `json:"E"`
	LastUpdateTime int64          `json:"u"`
	Balances       []EventBalance `json:"B"`
}

func (AccountPositionEvent) Kind() Kind { return KindAccountPosition }

// BalanceUpdateEvent is the spot balanceUpdate user-data event
type BalanceUpdateEvent struct {
	EventType string          `json:"e"`
	EventTime int64           `json:"E"`
	Asset     string          `json:"a"`
	Delta     decimal.Decimal `json:"d"`
	ClearTime int64           `json:"T"`
}

func (BalanceUpdateEvent) Kind() Kind { return KindBalanceUpdate }

// OrderTradeEvent is the spot executionReport user-data event.
type OrderTradeEvent struct {
	EventType               string          `json:"e"`
	EventTime               int64           `json:"E"`
	Symbol                  string          `json:"s"`
	NewClientOrderID        string          `json:"c"`
	Side                    string          `json:"S"`
	OrderType               string          `json:"o"`
	TimeInForce             string          `json:"f"`
	Qty                     decimal.Decimal `json:"q"`
	Price                   decimal.Decimal `json:"p"`
	StopPrice               decimal.Decimal `json:"P"`
	IcebergQty              decimal.Decimal `json:"F"`
	OrderListID             int64           `json:"g"`
	OrigClientOrderID       string          `json:"C"`
	ExecutionType           string          `json:"x"`
	OrderStatus             string          `json:"X"`
	RejectReason            string          `json:"r"`
	OrderID                 int64           `json:"i"`
	LastExecutedQty         decimal.Decimal `json:"l"`
	CumulativeFilledQty     decimal.Decimal `json:"z"`
	LastExecutedPrice       decimal.Decimal `json:"L"`
	Commission              decimal.Decimal `json:"n"`
	CommissionAsset         string          `json:"N"`
	TransactionTime         int64           `json:"T"`
	TradeID                 int64           `json:"t"`
	PreventedMatchID        int64           `json:"v,omitempty"`
	Ignore                  int64           `json:"I"`
	IsOnBook                bool            `json:"w"`
	IsMaker                 bool            `json:"m"`
	Ignore2                 bool            `json:"M"`
	CreationTime            int64           `json:"O"`
	CumulativeQuoteQty      decimal.Decimal `json:"Z"`
	LastQuoteQty            decimal.Decimal `json:"Y"`
	QuoteOrderQty           decimal.Decimal `json:"Q"`
	WorkingTime             int64           `json:"W"`
	SelfTradePreventionMode string          `json:"V"`
}

func (OrderTradeEvent) Kind() Kind { return KindOrderTrade }

// ListenKeyExpiredEvent is sent on a user-data stream whose listen key lapsed
type ListenKeyExpiredEvent struct {
	EventType string `json:"e"`
	EventTime int64  `json:"E"`
	ListenKey string `json:"listenKey"`
}

func (ListenKeyExpiredEvent) Kind() Kind { return KindListenKeyExpired }
