package natsutil

import (
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStreams struct {
	info    *nats.StreamInfo
	infoErr error
	addErr  error

	added   []*nats.StreamConfig
	updated []*nats.StreamConfig
}

func (f *fakeStreams) StreamInfo(string, ...nats.JSOpt) (*nats.StreamInfo, error) {
	return f.info, f.infoErr
}

func (f *fakeStreams) AddStream(cfg *nats.StreamConfig, _ ...nats.JSOpt) (*nats.StreamInfo, error) {
	f.added = append(f.added, cfg)
	if f.addErr != nil {
		return nil, f.addErr
	}
	return &nats.StreamInfo{Config: *cfg}, nil
}

func (f *fakeStreams) UpdateStream(cfg *nats.StreamConfig, _ ...nats.JSOpt) (*nats.StreamInfo, error) {
	f.updated = append(f.updated, cfg)
	return &nats.StreamInfo{Config: *cfg}, nil
}

var _ StreamManager = (nats.JetStreamContext)(nil)

func TestEnsureStream_Creates(t *testing.T) {
	js := &fakeStreams{infoErr: nats.ErrStreamNotFound}
	err := EnsureStream(js, "MARKET", []string{"market.>"}, time.Hour, zap.NewNop().Sugar())
	require.NoError(t, err)

	require.Len(t, js.added, 1)
	assert.Empty(t, js.updated)
	cfg := js.added[0]
	assert.Equal(t, "MARKET", cfg.Name)
	assert.Equal(t, []string{"market.>"}, cfg.Subjects)
	assert.Equal(t, time.Hour, cfg.MaxAge)
	assert.Equal(t, nats.DiscardOld, cfg.Discard)
	assert.Equal(t, nats.FileStorage, cfg.Storage)
}

func TestEnsureStream_Updates(t *testing.T) {
	js := &fakeStreams{info: &nats.StreamInfo{}}
	require.NoError(t, EnsureStream(js, "MARKET", []string{"market.>"}, 0, zap.NewNop().Sugar()))

	require.Len(t, js.updated, 1)
	assert.Empty(t, js.added)
	assert.Equal(t, DefaultMaxAge, js.updated[0].MaxAge)
}

func TestEnsureStream_Errors(t *testing.T) {
	boom := errors.New("boom")

	js := &fakeStreams{infoErr: boom}
	err := EnsureStream(js, "MARKET", nil, 0, zap.NewNop().Sugar())
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, js.added)

	js = &fakeStreams{infoErr: nats.ErrStreamNotFound, addErr: boom}
	err = EnsureStream(js, "MARKET", nil, 0, zap.NewNop().Sugar())
	assert.ErrorIs(t, err, boom)
}
