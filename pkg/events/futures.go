package events

import "github.com/shopspring/decimal"

// MarkPriceEvent is the mark price and funding update (<symbol>@markPrice)
type MarkPriceEvent struct {
	EventType            string          `json:"e"`
	EventTime            int64           `json:"E"`
	Symbol               string          `json:"s"`
	MarkPrice            decimal.Decimal `json:"p"`
	IndexPrice           decimal.Decimal `json:"i"`
	EstimatedSettlePrice OptionalDecimal `json:"P"`
	FundingRate          OptionalDecimal `json:"r"` // "" on delivery contracts
	NextFundingTime      int64           `json:"T"`
}

func (MarkPriceEvent) Kind() Kind { return KindMarkPrice }

// MarkPriceAll is the bulk form delivered by !markPrice@arr
type MarkPriceAll []MarkPriceEvent

func (MarkPriceAll) Kind() Kind { return KindMarkPriceAll }

// IndexPriceEvent is the COIN-M index price update (<pair>@indexPrice)
type IndexPriceEvent struct {
	EventType  string          `json:"e"`
	EventTime  int64           `json:"E"`
	Pair       string          `json:"i"`
	IndexPrice decimal.Decimal `json:"p"`
}

func (IndexPriceEvent) Kind() Kind { return KindIndexPrice }

// ContinuousKlineEvent is a contract-type candlestick (<pair>_<type>@continuousKline_<interval>)
type ContinuousKlineEvent struct {
	EventType    string `json:"e"`
	EventTime    int64  `json:"E"`
	Pair         string `json:"ps"`
	ContractType string `json:"ct"`
	Kline        Kline  `json:"k"`
}

func (ContinuousKlineEvent) Kind() Kind { return KindContinuousKline }

// IndexKlineEvent is an index price candlestick (<pair>@indexPriceKline_<interval>)
type IndexKlineEvent struct {
	EventType string `json:"e"`
	EventTime int64  `json:"E"`
	Pair      string `json:"ps"`
	Kline     Kline  `json:"k"`
}

func (IndexKlineEvent) Kind() Kind { return KindIndexKline }

// LiquidationOrder is the order body of a forceOrder event
type LiquidationOrder struct {
	Symbol               string          `json:"s"`
	Side                 string          `json:"S"`
	OrderType            string          `json:"o"`
	TimeInForce          string          `json:"f"`
	OrigQty              decimal.Decimal `json:"q"`
	Price                decimal.Decimal `json:"p"`
	AvgPrice             decimal.Decimal `json:"ap"`
	OrderStatus          string          `json:"X"`
	LastFilledQty        decimal.Decimal `json:"l"`
	AccumulatedFilledQty decimal.Decimal `json:"z"`
	TradeTime            int64           `json:"T"`
}

// LiquidationEvent is a liquidation order snapshot (<symbol>@forceOrder)
type LiquidationEvent struct {
	EventType string           `json:"e"`
	EventTime int64            `json:"E"`
	Order     LiquidationOrder `json:"o"`
}

func (LiquidationEvent) Kind() Kind { return KindLiquidation }

// AccountBalance is a wallet entry of ACCOUNT_UPDATE
type AccountBalance struct {
	Asset              string          `json:"a"`
	WalletBalance      decimal.Decimal `json:"wb"`
	CrossWalletBalance decimal.Decimal `json:"cw"`
	BalanceChange      decimal.Decimal `json:"bc"`
}

// AccountPosition is a position entry of ACCOUNT_UPDATE
type AccountPosition struct {
	Symbol              string          `json:"s"`
	PositionAmount      decimal.Decimal `json:"pa"`
	EntryPrice          decimal.Decimal `json:"ep"`
	BreakevenPrice      decimal.Decimal `json:"bep"`
	AccumulatedRealized decimal.Decimal `json:"cr"`
	UnrealizedPnL       decimal.Decimal `json:"up"`
	MarginType          string          `json:"mt"`
	IsolatedWallet      decimal.Decimal `json:"iw"`
	PositionSide        string          `json:"ps"`
}

// AccountUpdateData groups the balances and positions of ACCOUNT_UPDATE
type AccountUpdateData struct {
	Reason    string            `json:"m"`
	Balances  []AccountBalance  `json:"B"`
	Positions []AccountPosition `json:"P"`
}

// AccountUpdateEvent is the derivatives ACCOUNT_UPDATE user-data event
type AccountUpdateEvent struct {
	EventType       string            `json:"e"`
	EventTime       int64             `json:"E"`
	TransactionTime int64             `json:"T"`
	Data            AccountUpdateData `json:"a"`
}

func (AccountUpdateEvent) Kind() Kind { return KindAccountUpdate }

// FuturesOrder is the order body of ORDER_TRADE_UPDATE.
// Note: ap/AP are declared together for the same case folding reason as Kline.
type FuturesOrder struct {
	Symbol               string          `json:"s"`
	ClientOrderID        string          `json:"c"`
	Side                 string          `json:"S"`
	OrderType            string          `json:"o"`
	TimeInForce          string          `json:"f"`
	OrigQty              decimal.Decimal `json:"q"`
	OrigPrice            decimal.Decimal `json:"p"`
	AvgPrice             decimal.Decimal `json:"ap"`
	StopPrice            decimal.Decimal `json:"sp"`
	ExecutionType        string          `json:"x"`
	OrderStatus          string          `json:"X"`
	OrderID              int64           `json:"i"`
	LastFilledQty        decimal.Decimal `json:"l"`
	AccumulatedFilledQty decimal.Decimal `json:"z"`
	LastFilledPrice      decimal.Decimal `json:"L"`
	CommissionAsset      string          `json:"N"`
	Commission           decimal.Decimal `json:"n"`
	TradeTime            int64           `json:"T"`
	TradeID              int64           `json:"t"`
	BidsNotional         decimal.Decimal `json:"b"`
	AsksNotional         decimal.Decimal `json:"a"`
	IsMaker              bool            `json:"m"`
	IsReduceOnly         bool            `json:"R"`
	WorkingType          string          `json:"wt"`
	OrigOrderType        string          `json:"ot"`
	PositionSide         string          `json:"ps"`
	IsClosePosition      bool            `json:"cp"`
	ActivationPrice      decimal.Decimal `json:"AP"`
	CallbackRate         decimal.Decimal `json:"cr"`
	PriceProtect         bool            `json:"pP"`
	RealizedProfit       decimal.Decimal `json:"rp"`
	SelfTradePrevention  string          `json:"V"`
	PriceMatch           string          `json:"pm"`
	GoodTillDate         int64           `json:"gtd"`
}

// FuturesOrderTradeEvent is the derivatives ORDER_TRADE_UPDATE user-data event
type FuturesOrderTradeEvent struct {
	EventType       string       `json:"e"`
	EventTime       int64        `json:"E"`
	TransactionTime int64        `json:"T"`
	Order           FuturesOrder `json:"o"`
}

func (FuturesOrderTradeEvent) Kind() Kind { return KindFuturesOrderTrade }
