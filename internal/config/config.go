package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fushengyk/binance-stream/pkg/stream"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure
type Config struct {
	NATS          NATSConfig           `yaml:"nats"`
	Binance       BinanceConfig        `yaml:"binance"`
	Subscriptions []SubscriptionConfig `yaml:"subscriptions"`
	Metrics       MetricsConfig        `yaml:"metrics"`
	Log           LogConfig            `yaml:"log"`
}

// NATSConfig holds NATS connection settings
type NATSConfig struct {
	URL           string        `yaml:"url"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`
	MaxReconnects int           `yaml:"max_reconnects"`
	StreamMaxAge  time.Duration `yaml:"stream_max_age"`
}

// BinanceConfig holds the websocket base URL of every market
type BinanceConfig struct {
	WSBaseURL  string          `yaml:"ws_base_url"`
	FuturesWS  string          `yaml:"futures_ws_url"`
	DeliveryWS string          `yaml:"delivery_ws_url"`
	OptionsWS  string          `yaml:"options_ws_url"`
	WebSocket  WebSocketConfig `yaml:"websocket"`
}

// WebSocketConfig holds WebSocket connection settings
type WebSocketConfig struct {
	MaxStreamsPerConn int           `yaml:"max_streams_per_conn"`
	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
	MaxReconnectDelay time.Duration `yaml:"max_reconnect_delay"`
	ConnectStagger    time.Duration `yaml:"connect_stagger"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	HandshakeTimeout  time.Duration `yaml:"handshake_timeout"`

	// Consecutive missed reads before a session is declared dead
	SpotLivenessThreshold    int  `yaml:"spot_liveness_threshold"`
	FuturesLivenessThreshold int  `yaml:"futures_liveness_threshold"`
	PongWriteFatal           bool `yaml:"pong_write_fatal"`
}

// SubscriptionConfig is a named group of streams on one market
type SubscriptionConfig struct {
	Name   string   `yaml:"name"`
	Market string   `yaml:"market"` // spot, usdm, coinm, vanilla
	Topics []string `yaml:"topics"`
}

// MetricsConfig holds the Prometheus listener settings
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Load reads .env files, the YAML file at path and environment variables,
// in that order of increasing precedence.
func Load(path string, envFiles ...string) (*Config, error) {
	if err := loadDotEnv(envFiles...); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := defaultConfig()

	// Read YAML file if exists
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
	}
	return godotenv.Load(files...)
}

// defaultConfig returns configuration with sensible defaults
func defaultConfig() *Config {
	ep := stream.DefaultEndpoints()
	return &Config{
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			ReconnectWait: 2 * time.Second,
			MaxReconnects: 10,
			StreamMaxAge:  6 * time.Hour,
		},
		Binance: BinanceConfig{
			WSBaseURL:  ep.Spot,
			FuturesWS:  ep.USDM,
			DeliveryWS: ep.COINM,
			OptionsWS:  ep.Vanilla,
			WebSocket: WebSocketConfig{
				MaxStreamsPerConn:        50,
				ReconnectDelay:           time.Second,
				MaxReconnectDelay:        30 * time.Second,
				ConnectStagger:           200 * time.Millisecond,
				ReadTimeout:              stream.DefaultReadTimeout,
				HandshakeTimeout:         10 * time.Second,
				SpotLivenessThreshold:    stream.SpotLivenessThreshold,
				FuturesLivenessThreshold: stream.DerivativesLivenessThreshold,
				PongWriteFatal:           true,
			},
		},
		Metrics: MetricsConfig{Addr: ":9108"},
		Log:     LogConfig{Level: "info"},
	}
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("NATS_URL"); v != "" {
		c.NATS.URL = v
	}
	if v := os.Getenv("BINANCE_WS_BASE_URL"); v != "" {
		c.Binance.WSBaseURL = v
	}
	if v := os.Getenv("BINANCE_FUTURES_WS_URL"); v != "" {
		c.Binance.FuturesWS = v
	}
	if v := os.Getenv("BINANCE_DELIVERY_WS_URL"); v != "" {
		c.Binance.DeliveryWS = v
	}
	if v := os.Getenv("BINANCE_OPTIONS_WS_URL"); v != "" {
		c.Binance.OptionsWS = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks the settings every command depends on. NATS is checked
// separately by ValidateCollector since tail never publishes.
func (c *Config) Validate() error {
	var errs []error

	ws := c.Binance.WebSocket
	if ws.MaxStreamsPerConn <= 0 || ws.MaxStreamsPerConn > 1024 {
		errs = append(errs, fmt.Errorf("binance.websocket.max_streams_per_conn must be in 1..1024, got %d", ws.MaxStreamsPerConn))
	}
	if ws.ReadTimeout <= 0 {
		errs = append(errs, errors.New("binance.websocket.read_timeout must be positive"))
	}
	if ws.SpotLivenessThreshold < 1 || ws.FuturesLivenessThreshold < 1 {
		errs = append(errs, errors.New("binance.websocket liveness thresholds must be at least 1"))
	}
	if ws.MaxReconnectDelay < ws.ReconnectDelay {
		errs = append(errs, errors.New("binance.websocket.max_reconnect_delay is below reconnect_delay"))
	}

	seen := make(map[string]bool)
	for i, sub := range c.Subscriptions {
		label := sub.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		} else if seen[sub.Name] {
			errs = append(errs, fmt.Errorf("subscription %s: duplicate name", sub.Name))
		}
		seen[sub.Name] = true

		if _, err := stream.ParseMarket(sub.Market); err != nil {
			errs = append(errs, fmt.Errorf("subscription %s: %w", label, err))
		}
		if len(sub.Topics) == 0 {
			errs = append(errs, fmt.Errorf("subscription %s: no topics", label))
		}
	}

	if _, err := c.Log.ZapLevel(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ValidateCollector checks the extra settings the publishing collector needs.
func (c *Config) ValidateCollector() error {
	if c.NATS.URL == "" {
		return errors.New("invalid config: nats.url is required")
	}
	if len(c.Subscriptions) == 0 {
		return errors.New("invalid config: no subscriptions")
	}
	return nil
}

// Endpoints returns the configured websocket base URLs.
func (c *Config) Endpoints() stream.Endpoints {
	return stream.Endpoints{
		Spot:    c.Binance.WSBaseURL,
		USDM:    c.Binance.FuturesWS,
		COINM:   c.Binance.DeliveryWS,
		Vanilla: c.Binance.OptionsWS,
	}
}

// Policy returns the watchdog policy for sessions on market.
func (c *Config) Policy(market stream.Market) stream.Policy {
	ws := c.Binance.WebSocket
	threshold := ws.SpotLivenessThreshold
	if market.Derivatives() {
		threshold = ws.FuturesLivenessThreshold
	}
	return stream.Policy{
		LivenessThreshold: threshold,
		PongWriteFatal:    ws.PongWriteFatal,
		ReadTimeout:       ws.ReadTimeout,
	}
}

// SessionOptions turns the websocket settings into options for stream.NewSession.
func (c *Config) SessionOptions(market stream.Market) []stream.Option {
	connector := stream.NewConnector(
		stream.WithHandshakeTimeout(c.Binance.WebSocket.HandshakeTimeout),
	)
	return []stream.Option{
		stream.WithEndpoints(c.Endpoints()),
		stream.WithPolicy(c.Policy(market)),
		stream.WithConnector(connector),
	}
}

// ZapLevel parses Level. An empty level means info.
func (l LogConfig) ZapLevel() (zapcore.Level, error) {
	level := strings.TrimSpace(l.Level)
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return lvl, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}
