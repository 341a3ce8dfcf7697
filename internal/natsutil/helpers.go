package natsutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// StreamManager is the part of nats.JetStreamContext EnsureStream needs
type StreamManager interface {
	StreamInfo(stream string, opts ...nats.JSOpt) (*nats.StreamInfo, error)
	AddStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error)
	UpdateStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error)
}

// DefaultMaxAge is used when EnsureStream is given a zero maxAge
const DefaultMaxAge = 6 * time.Hour

// EnsureStream creates or updates a NATS JetStream stream
func EnsureStream(js StreamManager, name string, subjects []string, maxAge time.Duration, logger *zap.SugaredLogger) error {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	config := &nats.StreamConfig{
		Name:     name,
		Subjects: subjects,
		Storage:  nats.FileStorage,
		Replicas: 1,
		MaxAge:   maxAge,          // Auto-cleanup old messages
		Discard:  nats.DiscardOld, // When limit reached, discard oldest messages
	}

	stream, err := js.StreamInfo(name)
	switch {
	case err == nil && stream != nil:
		// Stream exists, update its configuration
		if _, err := js.UpdateStream(config); err != nil {
			return fmt.Errorf("update stream %s: %w", name, err)
		}
		logger.Infof("✅ Updated stream: %s", name)
		return nil
	case err != nil && !errors.Is(err, nats.ErrStreamNotFound):
		return fmt.Errorf("stream info %s: %w", name, err)
	}

	// Stream doesn't exist, create it
	if _, err := js.AddStream(config); err != nil {
		return fmt.Errorf("create stream %s: %w", name, err)
	}
	logger.Infof("✅ Created stream: %s", name)
	return nil
}
