package stream

import (
	"context"
	"time"

	"github.com/fushengyk/binance-stream/pkg/events"
	"go.uber.org/zap"
)

const (
	// DefaultReadTimeout is how long a read waits before the watchdog probes.
	DefaultReadTimeout = 10 * time.Second

	SpotLivenessThreshold        = 3
	DerivativesLivenessThreshold = 10
)

// Policy tunes the liveness watchdog of a session.
type Policy struct {
	// LivenessThreshold is the number of consecutive failed reads, each
	// followed by a ping probe, after which the session is declared dead.
	LivenessThreshold int
	// PongWriteFatal ends the session when replying to a server ping fails.
	PongWriteFatal bool
	ReadTimeout    time.Duration
}

// DefaultPolicy returns the watchdog settings for m.
func DefaultPolicy(m Market) Policy {
	p := Policy{
		LivenessThreshold: SpotLivenessThreshold,
		PongWriteFatal:    true,
		ReadTimeout:       DefaultReadTimeout,
	}
	if m.Derivatives() {
		p.LivenessThreshold = DerivativesLivenessThreshold
	}
	return p
}

// DialFunc opens the transport of a session.
type DialFunc func(ctx context.Context, rawURL string) (FrameConn, error)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. Sessions log nothing by default.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPolicy replaces the whole watchdog policy.
func WithPolicy(p Policy) Option {
	return func(s *Session) { s.policy = p }
}

// WithReadTimeout sets the per-read timeout.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Session) { s.policy.ReadTimeout = d }
}

// WithLivenessThreshold sets how many consecutive failed reads end the session.
func WithLivenessThreshold(n int) Option {
	return func(s *Session) { s.policy.LivenessThreshold = n }
}

// WithPongWriteFatal selects whether a failed pong reply ends the session.
func WithPongWriteFatal(fatal bool) Option {
	return func(s *Session) { s.policy.PongWriteFatal = fatal }
}

// WithConnector dials through c.
func WithConnector(c *Connector) Option {
	return func(s *Session) { s.dial = c.Open }
}

// WithDialFunc replaces the transport, mostly for tests.
func WithDialFunc(dial DialFunc) Option {
	return func(s *Session) { s.dial = dial }
}

// WithEndpoints overrides the base URLs used by Connect and ConnectMultiple.
func WithEndpoints(e Endpoints) Option {
	return func(s *Session) { s.endpoints = e }
}

// WithClassifier replaces the market's default classifier.
func WithClassifier(c *events.Classifier) Option {
	return func(s *Session) { s.classifier = c }
}
