package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTarget_URL(t *testing.T) {
	tests := []struct {
		name    string
		target  Target
		want    string
		wantErr bool
	}{
		{"default", DefaultTarget("wss://stream.binance.com:9443", "bnbbtc@aggTrade"), "wss://stream.binance.com:9443/ws/bnbbtc@aggTrade", false},
		{"default trims slash", DefaultTarget("wss://fstream.binance.com/", "!markPrice@arr"), "wss://fstream.binance.com/ws/!markPrice@arr", false},
		{"multi", MultiStreamTarget("wss://fstream.binance.com", []string{"btcusdt@aggTrade", "btcusdt@markPrice"}), "wss://fstream.binance.com/stream?streams=btcusdt@aggTrade/btcusdt@markPrice", false},
		{"multi skips blanks", MultiStreamTarget("wss://x", []string{"a@trade", " ", "b@trade"}), "wss://x/stream?streams=a@trade/b@trade", false},
		{"custom one", CustomTarget("ws://127.0.0.1:8080", "a@trade"), "ws://127.0.0.1:8080/ws/a@trade", false},
		{"custom many", CustomTarget("ws://127.0.0.1:8080", "a@trade", "b@trade"), "ws://127.0.0.1:8080/stream?streams=a@trade/b@trade", false},
		{"no topics", MultiStreamTarget("wss://x", nil), "", true},
		{"empty base", DefaultTarget("", "a@trade"), "", true},
		{"default with two topics", Target{Mode: ModeDefault, Base: "wss://x", Topics: []string{"a", "b"}}, "", true},
		{"unknown mode", Target{Mode: Mode(9), Base: "wss://x", Topics: []string{"a"}}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.target.URL()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEndpoints_Base(t *testing.T) {
	def := DefaultEndpoints()
	assert.Equal(t, "wss://stream.binance.com:9443", def.Base(Spot))
	assert.Equal(t, "wss://fstream.binance.com", def.Base(USDM))
	assert.Equal(t, "wss://dstream.binance.com", def.Base(COINM))
	assert.Equal(t, "wss://vstream.binance.com", def.Base(Vanilla))

	var empty Endpoints
	assert.Equal(t, def.Base(COINM), empty.Base(COINM))

	custom := Endpoints{Spot: "wss://testnet.binance.vision/"}
	assert.Equal(t, "wss://testnet.binance.vision", custom.Base(Spot))
	assert.Equal(t, def.Base(USDM), custom.Base(USDM))
}

func TestParseMarket(t *testing.T) {
	tests := map[string]Market{
		"spot":     Spot,
		"SPOT":     Spot,
		"usdm":     USDM,
		"futures":  USDM,
		"coinm":    COINM,
		"delivery": COINM,
		"vanilla":  Vanilla,
		"options":  Vanilla,
	}
	for in, want := range tests {
		got, err := ParseMarket(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseMarket("margin")
	assert.Error(t, err)

	assert.False(t, Spot.Derivatives())
	assert.True(t, USDM.Derivatives())
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "default", ModeDefault.String())
	assert.Equal(t, "multi", ModeMultiStream.String())
	assert.Equal(t, "custom", ModeCustom.String())
}
