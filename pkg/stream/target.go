// Package stream runs Binance websocket sessions: it connects to a stream
// endpoint, unwraps combined-stream envelopes, classifies each payload into an
// events.Event and hands it to a caller supplied Handler, while a watchdog
// probes the connection and ends the session once it stops answering.
package stream

import (
	"errors"
	"fmt"
	"strings"
)

// Market selects the stream host and the payload family of a session.
type Market string

const (
	Spot    Market = "spot"
	USDM    Market = "usdm"
	COINM   Market = "coinm"
	Vanilla Market = "vanilla"
)

// Markets lists every supported market.
var Markets = []Market{Spot, USDM, COINM, Vanilla}

// ParseMarket resolves a market name as used in config files and flags.
func ParseMarket(s string) (Market, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spot":
		return Spot, nil
	case "usdm", "futures", "um":
		return USDM, nil
	case "coinm", "delivery", "cm":
		return COINM, nil
	case "vanilla", "options", "eoptions":
		return Vanilla, nil
	}
	return "", fmt.Errorf("unknown market %q", s)
}

// Derivatives reports whether the market uses the derivatives payload family.
func (m Market) Derivatives() bool { return m != Spot }

// Endpoints holds the websocket base URL of each market. Empty fields fall
// back to the public Binance hosts.
type Endpoints struct {
	Spot    string
	USDM    string
	COINM   string
	Vanilla string
}

// DefaultEndpoints returns the public Binance stream hosts.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Spot:    "wss://stream.binance.com:9443",
		USDM:    "wss://fstream.binance.com",
		COINM:   "wss://dstream.binance.com",
		Vanilla: "wss://vstream.binance.com",
	}
}

// Base returns the base URL for m, without a trailing slash.
func (e Endpoints) Base(m Market) string {
	def := DefaultEndpoints()
	pick := func(v, fallback string) string {
		if v == "" {
			v = fallback
		}
		return strings.TrimRight(v, "/")
	}
	switch m {
	case USDM:
		return pick(e.USDM, def.USDM)
	case COINM:
		return pick(e.COINM, def.COINM)
	case Vanilla:
		return pick(e.Vanilla, def.Vanilla)
	default:
		return pick(e.Spot, def.Spot)
	}
}

// Mode is the addressing mode of a Target.
type Mode int

const (
	// ModeDefault addresses one raw stream: <base>/ws/<topic>
	ModeDefault Mode = iota
	// ModeMultiStream addresses a combined stream: <base>/stream?streams=a/b
	ModeMultiStream
	// ModeCustom uses a caller supplied base; one topic is addressed as a raw
	// stream and several as a combined stream.
	ModeCustom
)

func (m Mode) String() string {
	switch m {
	case ModeDefault:
		return "default"
	case ModeMultiStream:
		return "multi"
	case ModeCustom:
		return "custom"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Target describes what a session connects to.
type Target struct {
	Mode   Mode
	Base   string
	Topics []string
}

var errNoTopics = errors.New("no topics")

// DefaultTarget addresses a single raw stream on base.
func DefaultTarget(base, topic string) Target {
	return Target{Mode: ModeDefault, Base: base, Topics: []string{topic}}
}

// MultiStreamTarget addresses a combined stream of topics on base.
func MultiStreamTarget(base string, topics []string) Target {
	return Target{Mode: ModeMultiStream, Base: base, Topics: topics}
}

// CustomTarget addresses topics on a caller supplied base URL.
func CustomTarget(base string, topics ...string) Target {
	return Target{Mode: ModeCustom, Base: base, Topics: topics}
}

// URL builds the websocket URL of the target.
func (t Target) URL() (string, error) {
	base := strings.TrimRight(t.Base, "/")
	if base == "" {
		return "", errors.New("empty base url")
	}
	topics := make([]string, 0, len(t.Topics))
	for _, topic := range t.Topics {
		if topic = strings.TrimSpace(topic); topic != "" {
			topics = append(topics, topic)
		}
	}
	if len(topics) == 0 {
		return "", errNoTopics
	}

	switch t.Mode {
	case ModeDefault:
		if len(topics) > 1 {
			return "", fmt.Errorf("default target takes one topic, got %d", len(topics))
		}
		return fmt.Sprintf("%s/ws/%s", base, topics[0]), nil
	case ModeMultiStream:
		return fmt.Sprintf("%s/stream?streams=%s", base, strings.Join(topics, "/")), nil
	case ModeCustom:
		if len(topics) == 1 {
			return fmt.Sprintf("%s/ws/%s", base, topics[0]), nil
		}
		return fmt.Sprintf("%s/stream?streams=%s", base, strings.Join(topics, "/")), nil
	}
	return "", fmt.Errorf("unknown target mode %v", t.Mode)
}
