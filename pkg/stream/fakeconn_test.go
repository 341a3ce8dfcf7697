package stream

import (
	"context"
	"sync"
	"time"
)

// step is one scripted ReadFrame result.
type step struct {
	frame Frame
	err   error
}

func readTimeout() step          { return step{err: ErrReadTimeout} }
func readFrame(t FrameType) step { return step{frame: Frame{Type: t}} }
func readText(raw string) step   { return step{frame: Frame{Type: TextFrame, Data: []byte(raw)}} }

// fakeConn replays a script of reads and records every call. Once the script
// is used up ReadFrame blocks until ctx is done.
type fakeConn struct {
	mu        sync.Mutex
	script    []step
	writes    []Frame
	writeErrs map[FrameType]error
	calls     []string
	closed    bool

	drainOnce sync.Once
	drained   chan struct{}
}

func newFakeConn(script ...step) *fakeConn {
	return &fakeConn{
		script:    script,
		writeErrs: map[FrameType]error{},
		drained:   make(chan struct{}),
	}
}

func (c *fakeConn) failWrites(t FrameType, err error) *fakeConn {
	c.writeErrs[t] = err
	return c
}

func (c *fakeConn) ReadFrame(ctx context.Context, _ time.Duration) (Frame, error) {
	c.mu.Lock()
	if len(c.script) == 0 {
		c.mu.Unlock()
		c.drainOnce.Do(func() { close(c.drained) })
		<-ctx.Done()
		return Frame{}, ctx.Err()
	}
	s := c.script[0]
	c.script = c.script[1:]
	if s.err != nil {
		c.calls = append(c.calls, "read:error")
	} else {
		c.calls = append(c.calls, "read:"+s.frame.Type.String())
	}
	c.mu.Unlock()
	return s.frame, s.err
}

func (c *fakeConn) WriteFrame(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "write:"+f.Type.String())
	if err := c.writeErrs[f.Type]; err != nil {
		return err
	}
	c.writes = append(c.writes, f)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) written(t FrameType) []Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Frame
	for _, f := range c.writes {
		if f.Type == t {
			out = append(out, f)
		}
	}
	return out
}

func (c *fakeConn) callLog() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// dialer returns a DialFunc handing out conns in order and recording URLs.
type dialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	urls  []string
}

func (d *dialer) dial(_ context.Context, rawURL string) (FrameConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.urls = append(d.urls, rawURL)
	if len(d.conns) == 0 {
		return newFakeConn(), nil
	}
	c := d.conns[0]
	d.conns = d.conns[1:]
	return c, nil
}
