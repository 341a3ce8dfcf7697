package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fushengyk/binance-stream/pkg/events"
	"github.com/fushengyk/binance-stream/pkg/stream"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counters(t *testing.T) {
	r := NewRecorder()

	r.IncEvent(stream.Spot, events.KindTrade)
	r.IncEvent(stream.Spot, events.KindTrade)
	r.IncEvent(stream.USDM, events.KindMarkPrice)
	r.IncPublishError(stream.USDM)
	r.IncReconnect(stream.Spot)
	r.IncSessionError(stream.Spot, &stream.LivenessError{Missed: 3, Threshold: 3, Err: stream.ErrReadTimeout})
	r.IncSessionError(stream.Spot, &stream.DisconnectedError{Code: 1001})

	assert.Equal(t, 2.0, testutil.ToFloat64(r.events.WithLabelValues("spot", "trade")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.events.WithLabelValues("usdm", "mark_price")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.publishErrors.WithLabelValues("usdm")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.reconnects.WithLabelValues("spot")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.sessionErrors.WithLabelValues("spot", "liveness")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.sessionErrors.WithLabelValues("spot", "disconnected")))
}

func TestRecorder_Instrument(t *testing.T) {
	r := NewRecorder()
	boom := errors.New("boom")
	calls := 0

	h := r.Instrument(stream.COINM, stream.HandlerFunc(func(events.Event) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	}))

	require.NoError(t, h.Handle(events.AggTradeEvent{}))
	assert.ErrorIs(t, h.Handle(events.AggTradeEvent{}), boom)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 2.0, testutil.ToFloat64(r.events.WithLabelValues("coinm", "agg_trade")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.handleSeconds))
}

func TestHandler(t *testing.T) {
	r := NewRecorder()
	r.IncEvent(stream.Spot, events.KindKline)

	srv := httptest.NewServer(Handler(r.Registry()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), `binance_stream_events_total{kind="kline",market="spot"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
