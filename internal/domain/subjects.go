package domain

import (
	"fmt"
	"strings"

	"github.com/fushengyk/binance-stream/pkg/events"
	"github.com/fushengyk/binance-stream/pkg/stream"
)

// NATS Subject constants
const (
	SubjectPrefixMarket = "market"
)

// SubjectEvent is market.<exchange>.<market>.<kind>.<symbol>
func SubjectEvent(exchange ExchangeID, market stream.Market, kind events.Kind, symbol string) string {
	return fmt.Sprintf("%s.%s.%s.%s.%s", SubjectPrefixMarket, exchange, market, kind, subjectToken(symbol))
}

// SubjectFor returns the subject a MarketEvent is published on
func SubjectFor(ev MarketEvent) string {
	return SubjectEvent(ev.Exchange, ev.Market, ev.Kind, ev.Symbol)
}

// Subject wildcard patterns for subscriptions
func SubjectPatternAllMarket(exchange ExchangeID) string {
	return fmt.Sprintf("%s.%s.>", SubjectPrefixMarket, exchange)
}

func SubjectPatternKind(exchange ExchangeID, market stream.Market, kind events.Kind) string {
	return fmt.Sprintf("%s.%s.%s.%s.*", SubjectPrefixMarket, exchange, market, kind)
}

// subjectToken lower-cases s and replaces characters NATS reserves in tokens.
func subjectToken(s string) string {
	if s == "" {
		return SymbolUnknown
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t':
			return '_'
		}
		return r
	}, strings.ToLower(s))
}

// Stream names
const (
	StreamMarket = "MARKET"
)

// Stream subject patterns
var (
	StreamMarketSubjects = []string{"market.>"}
)
