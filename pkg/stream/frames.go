package stream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// FrameType is the kind of a websocket frame seen by the session loop.
type FrameType int

const (
	TextFrame FrameType = iota + 1
	BinaryFrame
	PingFrame
	PongFrame
	CloseFrame
)

func (t FrameType) String() string {
	switch t {
	case TextFrame:
		return "text"
	case BinaryFrame:
		return "binary"
	case PingFrame:
		return "ping"
	case PongFrame:
		return "pong"
	case CloseFrame:
		return "close"
	}
	return fmt.Sprintf("FrameType(%d)", int(t))
}

// Frame is one websocket message or control frame.
type Frame struct {
	Type      FrameType
	Data      []byte
	CloseCode int
	CloseText string
}

// FrameConn is the transport a Session drives. ReadFrame blocks until a
// frame arrives, ctx is done, or timeout elapses (ErrReadTimeout). A timed
// out read leaves the connection usable.
type FrameConn interface {
	ReadFrame(ctx context.Context, timeout time.Duration) (Frame, error)
	WriteFrame(f Frame) error
	Close() error
}

// wsFrameConn adapts a gorilla connection. A single pump goroutine owns all
// reads; control frames are surfaced to the reader instead of being answered
// by gorilla's default handlers, so only the session loop ever writes.
type wsFrameConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	frames  chan Frame
	readErr error // set before frames is closed

	done      chan struct{}
	closeOnce sync.Once
}

// NewFrameConn starts the read pump on conn.
func NewFrameConn(conn *websocket.Conn, writeTimeout time.Duration) FrameConn {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	c := &wsFrameConn{
		conn:         conn,
		writeTimeout: writeTimeout,
		frames:       make(chan Frame),
		done:         make(chan struct{}),
	}

	conn.SetPingHandler(func(appData string) error {
		c.push(Frame{Type: PingFrame, Data: []byte(appData)})
		return nil
	})
	conn.SetPongHandler(func(appData string) error {
		c.push(Frame{Type: PongFrame, Data: []byte(appData)})
		return nil
	})
	// The close frame reaches the loop through the *websocket.CloseError
	// returned by ReadMessage.
	conn.SetCloseHandler(func(int, string) error { return nil })

	go c.pump()
	return c
}

func (c *wsFrameConn) pump() {
	defer close(c.frames)

	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				c.push(Frame{Type: CloseFrame, CloseCode: closeErr.Code, CloseText: closeErr.Text})
			}
			c.readErr = err
			return
		}
		switch mt {
		case websocket.TextMessage:
			c.push(Frame{Type: TextFrame, Data: data})
		case websocket.BinaryMessage:
			c.push(Frame{Type: BinaryFrame, Data: data})
		}
	}
}

func (c *wsFrameConn) push(f Frame) {
	select {
	case c.frames <- f:
	case <-c.done:
	}
}

func (c *wsFrameConn) ReadFrame(ctx context.Context, timeout time.Duration) (Frame, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case f, ok := <-c.frames:
		if !ok {
			return Frame{}, fmt.Errorf("read: %w", c.readErr)
		}
		return f, nil
	case <-expired:
		return Frame{}, ErrReadTimeout
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	case <-c.done:
		return Frame{}, net.ErrClosed
	}
}

func (c *wsFrameConn) WriteFrame(f Frame) error {
	deadline := time.Now().Add(c.writeTimeout)
	switch f.Type {
	case TextFrame, BinaryFrame:
		mt := websocket.TextMessage
		if f.Type == BinaryFrame {
			mt = websocket.BinaryMessage
		}
		if err := c.conn.SetWriteDeadline(deadline); err != nil {
			return err
		}
		return c.conn.WriteMessage(mt, f.Data)
	case PingFrame:
		return c.conn.WriteControl(websocket.PingMessage, f.Data, deadline)
	case PongFrame:
		return c.conn.WriteControl(websocket.PongMessage, f.Data, deadline)
	case CloseFrame:
		code := f.CloseCode
		if code == 0 {
			code = websocket.CloseNormalClosure
		}
		return c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, f.CloseText), deadline)
	}
	return fmt.Errorf("write: unsupported frame type %v", f.Type)
}

func (c *wsFrameConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}
