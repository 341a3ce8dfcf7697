package stream

import (
	"context"
	"fmt"

	"github.com/fushengyk/binance-stream/pkg/events"
	"go.uber.org/zap"
)

// Handler consumes classified events. A returned error ends the session.
type Handler interface {
	Handle(ev events.Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ev events.Event) error

func (f HandlerFunc) Handle(ev events.Event) error { return f(ev) }

// Session is one websocket connection to a Binance stream endpoint plus the
// handler its events are delivered to. A Session is driven by a single
// goroutine: Connect, Run and Disconnect must not be called concurrently.
// It never reconnects on its own; callers restart it after Run returns.
type Session struct {
	market     Market
	handler    Handler
	unwrap     Unwrapper
	classifier *events.Classifier
	policy     Policy
	endpoints  Endpoints
	dial       DialFunc
	logger     *zap.SugaredLogger

	conn FrameConn
	url  string
}

// NewSession creates an idle session for market.
func NewSession(market Market, handler Handler, opts ...Option) *Session {
	s := &Session{
		market:     market,
		handler:    handler,
		unwrap:     FuturesUnwrap,
		classifier: events.FuturesClassifier(),
		policy:     DefaultPolicy(market),
		endpoints:  DefaultEndpoints(),
		dial:       NewConnector().Open,
		logger:     zap.NewNop().Sugar(),
	}
	if market == Spot {
		s.unwrap = SpotUnwrap
		s.classifier = events.SpotClassifier()
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.policy.ReadTimeout <= 0 {
		s.policy.ReadTimeout = DefaultReadTimeout
	}
	if s.policy.LivenessThreshold <= 0 {
		s.policy.LivenessThreshold = DefaultPolicy(market).LivenessThreshold
	}
	return s
}

// Market returns the market the session was created for.
func (s *Session) Market() Market { return s.market }

// Policy returns the effective watchdog policy.
func (s *Session) Policy() Policy { return s.policy }

// Connected reports whether the session holds a connection.
func (s *Session) Connected() bool { return s.conn != nil }

// URL returns the URL of the current connection, or "" when idle.
func (s *Session) URL() string { return s.url }

// Connect subscribes to a single raw stream, e.g. "btcusdt@aggTrade".
func (s *Session) Connect(ctx context.Context, topic string) error {
	return s.ConnectTarget(ctx, DefaultTarget(s.endpoints.Base(s.market), topic))
}

// ConnectMultiple subscribes to several streams over one combined-stream connection.
func (s *Session) ConnectMultiple(ctx context.Context, topics []string) error {
	return s.ConnectTarget(ctx, MultiStreamTarget(s.endpoints.Base(s.market), topics))
}

// ConnectWithConfig is Connect against the base URL configured in ep.
func (s *Session) ConnectWithConfig(ctx context.Context, topic string, ep Endpoints) error {
	return s.ConnectTarget(ctx, DefaultTarget(ep.Base(s.market), topic))
}

// ConnectCustom subscribes to topics on an arbitrary base URL.
func (s *Session) ConnectCustom(ctx context.Context, base string, topics ...string) error {
	return s.ConnectTarget(ctx, CustomTarget(base, topics...))
}

// ConnectTarget opens the connection described by t. A connection that is
// already open is replaced, not closed.
func (s *Session) ConnectTarget(ctx context.Context, t Target) error {
	rawURL, err := t.URL()
	if err != nil {
		return &ConnectError{Stage: StageURL, URL: t.Base, Err: err}
	}

	conn, err := s.dial(ctx, rawURL)
	if err != nil {
		return err
	}

	if s.conn != nil {
		s.logger.Warnf("[Session %s] Replacing open connection to %s", s.market, s.url)
	}
	s.conn, s.url = conn, rawURL
	s.logger.Infof("[Session %s] Connected: %s (%d streams)", s.market, rawURL, len(t.Topics))
	return nil
}

// Disconnect sends a close frame and drops the connection. It fails when
// the session holds no connection.
func (s *Session) Disconnect() error {
	if s.conn == nil {
		return fmt.Errorf("not able to close: %w", ErrNotConnected)
	}
	conn, rawURL := s.conn, s.url
	s.conn, s.url = nil, ""

	werr := conn.WriteFrame(Frame{Type: CloseFrame})
	cerr := conn.Close()
	s.logger.Infof("[Session %s] Disconnected: %s", s.market, rawURL)

	if werr != nil {
		return fmt.Errorf("send close frame: %w", werr)
	}
	if cerr != nil {
		return fmt.Errorf("close connection: %w", cerr)
	}
	return nil
}

// Run reads and dispatches frames until the connection fails, the handler
// fails, or ctx is cancelled. It always returns a non-nil error; cancellation
// yields an error matching ErrStopped.
func (s *Session) Run(ctx context.Context) error {
	if s.conn == nil {
		return ErrNotConnected
	}
	conn := s.conn
	threshold := s.policy.LivenessThreshold
	missed := 0

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrStopped, err)
		}

		f, err := conn.ReadFrame(ctx, s.policy.ReadTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			if werr := conn.WriteFrame(Frame{Type: PingFrame}); werr != nil {
				return &LivenessError{Missed: missed, Threshold: threshold, Err: fmt.Errorf("ping probe: %w (after read: %v)", werr, err)}
			}
			missed++
			if missed >= threshold {
				return &LivenessError{Missed: missed, Threshold: threshold, Err: err}
			}
			s.logger.Debugf("[Session %s] Read failed (%d/%d): %v", s.market, missed, threshold, err)
			continue
		}

		switch f.Type {
		case TextFrame:
			missed = 0
			if err := s.dispatch(f.Data); err != nil {
				return err
			}
		case PingFrame:
			if err := conn.WriteFrame(Frame{Type: PongFrame, Data: f.Data}); err != nil {
				if s.policy.PongWriteFatal {
					return &LivenessError{Missed: missed, Threshold: threshold, Err: fmt.Errorf("pong reply: %w", err)}
				}
				s.logger.Warnf("[Session %s] Pong reply failed: %v", s.market, err)
			}
		case PongFrame:
			missed = 0
		case BinaryFrame:
		case CloseFrame:
			return &DisconnectedError{Code: f.CloseCode, Reason: f.CloseText}
		}
	}
}

// InjectMessage runs raw through the unwrap, classify and dispatch pipeline
// as if it had arrived as a text frame. No connection is needed.
func (s *Session) InjectMessage(raw []byte) error {
	return s.dispatch(raw)
}

func (s *Session) dispatch(raw []byte) error {
	payload, err := s.unwrap(raw)
	if err != nil {
		return &DecodeError{Err: err}
	}
	if payload == nil {
		s.logger.Debugf("[Session %s] Dropped over-nested envelope", s.market)
		return nil
	}

	ev, ok, err := s.classifier.Classify(payload)
	if err != nil {
		return &DecodeError{Err: err}
	}
	if !ok {
		return nil
	}

	if err := s.handler.Handle(ev); err != nil {
		return &HandlerError{Kind: ev.Kind(), Err: err}
	}
	return nil
}
