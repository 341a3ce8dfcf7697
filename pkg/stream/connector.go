package stream

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultDialTimeout      = 10 * time.Second
	defaultWriteTimeout     = 10 * time.Second
	defaultUserAgent        = "binance-stream/1.0"
)

// Connector opens websocket connections in three stages: TCP connect, TLS
// negotiation and the upgrade handshake. Each stage reports its own
// ConnectError. Nothing is retried.
type Connector struct {
	tlsConfig        *tls.Config
	dialTimeout      time.Duration
	handshakeTimeout time.Duration
	writeTimeout     time.Duration
	header           http.Header
}

// ConnectorOption configures a Connector.
type ConnectorOption func(*Connector)

// WithTLSConfig sets the TLS client configuration used for wss targets.
func WithTLSConfig(cfg *tls.Config) ConnectorOption {
	return func(c *Connector) { c.tlsConfig = cfg }
}

// WithDialTimeout bounds the TCP connect.
func WithDialTimeout(d time.Duration) ConnectorOption {
	return func(c *Connector) { c.dialTimeout = d }
}

// WithHandshakeTimeout bounds TLS negotiation plus the upgrade handshake.
func WithHandshakeTimeout(d time.Duration) ConnectorOption {
	return func(c *Connector) { c.handshakeTimeout = d }
}

// WithWriteTimeout bounds every frame write on connections opened by the Connector.
func WithWriteTimeout(d time.Duration) ConnectorOption {
	return func(c *Connector) { c.writeTimeout = d }
}

// WithHeader adds request headers to the upgrade request.
func WithHeader(h http.Header) ConnectorOption {
	return func(c *Connector) {
		for k, vs := range h {
			for _, v := range vs {
				c.header.Add(k, v)
			}
		}
	}
}

// NewConnector creates a Connector.
func NewConnector(opts ...ConnectorOption) *Connector {
	c := &Connector{
		dialTimeout:      defaultDialTimeout,
		handshakeTimeout: defaultHandshakeTimeout,
		writeTimeout:     defaultWriteTimeout,
		header:           http.Header{},
	}
	c.header.Set("User-Agent", defaultUserAgent)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial connects to rawURL and returns the upgraded connection.
func (c *Connector) Dial(ctx context.Context, rawURL string) (*websocket.Conn, *http.Response, error) {
	u, err := parseStreamURL(rawURL)
	if err != nil {
		return nil, nil, &ConnectError{Stage: StageURL, URL: rawURL, Err: err}
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: c.handshakeTimeout,
		NetDialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return c.dialTCP(ctx, network, addr, rawURL)
		},
		NetDialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			raw, err := c.dialTCP(ctx, network, addr, rawURL)
			if err != nil {
				return nil, err
			}
			return c.handshakeTLS(ctx, raw, u.Hostname(), rawURL)
		},
	}

	conn, resp, err := dialer.DialContext(ctx, rawURL, c.header)
	if err != nil {
		var connErr *ConnectError
		if errors.As(err, &connErr) {
			return nil, resp, connErr
		}
		status := ""
		if resp != nil {
			status = resp.Status
		}
		return nil, resp, &ConnectError{Stage: StageHandshake, URL: rawURL, Status: status, Err: err}
	}
	return conn, resp, nil
}

// Open dials rawURL and wraps the connection as a FrameConn.
func (c *Connector) Open(ctx context.Context, rawURL string) (FrameConn, error) {
	conn, _, err := c.Dial(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return NewFrameConn(conn, c.writeTimeout), nil
}

func (c *Connector) dialTCP(ctx context.Context, network, addr, rawURL string) (net.Conn, error) {
	d := net.Dialer{Timeout: c.dialTimeout, KeepAlive: 30 * time.Second}
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, &ConnectError{Stage: StageTCP, URL: rawURL, Err: err}
	}
	return conn, nil
}

func (c *Connector) handshakeTLS(ctx context.Context, raw net.Conn, host, rawURL string) (net.Conn, error) {
	cfg := &tls.Config{}
	if c.tlsConfig != nil {
		cfg = c.tlsConfig.Clone()
	}
	if cfg.ServerName == "" {
		cfg.ServerName = host
	}

	tlsConn := tls.Client(raw, cfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		_ = raw.Close()
		return nil, &ConnectError{Stage: StageTLS, URL: rawURL, Err: err}
	}
	return tlsConn, nil
}

// parseStreamURL validates a ws/wss URL. The dialer fills in port 443 for
// wss and 80 for ws when the URL has none.
func parseStreamURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, errors.New("missing host")
	}
	return u, nil
}
