package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// maxEnvelopeDepth bounds how many nested {"data": ...} layers are peeled.
// Deeper messages are dropped.
const maxEnvelopeDepth = 4

var errMalformedJSON = errors.New("malformed json")

// Unwrapper strips stream envelopes from a raw message. A nil payload with a
// nil error means the message is dropped.
type Unwrapper func(raw []byte) ([]byte, error)

// SpotUnwrap peels combined-stream envelopes {"stream":"btcusdt@ticker","data":{...}}.
// When data is an object the upper-cased stream prefix is added to it as "symbol".
func SpotUnwrap(raw []byte) ([]byte, error) {
	return unwrap(raw, true, 0)
}

// FuturesUnwrap peels any {"data": ...} envelope without touching the payload.
func FuturesUnwrap(raw []byte) ([]byte, error) {
	return unwrap(raw, false, 0)
}

func unwrap(raw []byte, spot bool, depth int) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		if !json.Valid(raw) {
			return nil, errMalformedJSON
		}
		return raw, nil
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	data, ok := env["data"]
	if !ok {
		return raw, nil
	}

	if spot {
		var stream string
		if err := json.Unmarshal(env["stream"], &stream); err != nil {
			return raw, nil
		}
		if d := bytes.TrimSpace(data); len(d) > 0 && d[0] == '{' {
			injected, err := injectSymbol(d, streamSymbol(stream))
			if err != nil {
				return nil, err
			}
			data = injected
		}
	}

	if depth >= maxEnvelopeDepth {
		return nil, nil
	}
	return unwrap(data, spot, depth+1)
}

// streamSymbol returns the upper-cased part of a stream name before '@'.
func streamSymbol(stream string) string {
	symbol, _, _ := strings.Cut(stream, "@")
	return strings.ToUpper(symbol)
}

func injectSymbol(obj []byte, symbol string) ([]byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(obj, &fields); err != nil {
		return nil, err
	}
	quoted, err := json.Marshal(symbol)
	if err != nil {
		return nil, err
	}
	fields["symbol"] = quoted
	return json.Marshal(fields)
}
