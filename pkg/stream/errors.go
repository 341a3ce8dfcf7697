package stream

import (
	"errors"
	"fmt"

	"github.com/fushengyk/binance-stream/pkg/events"
)

var (
	// ErrStopped is returned by Run when the caller cancelled its context.
	ErrStopped = errors.New("stopped by caller")
	// ErrNotConnected is returned when an operation needs an open connection.
	ErrNotConnected = errors.New("no open connection")
	// ErrLoopDead is matched by every LivenessError.
	ErrLoopDead = errors.New("loop is dead")
	// ErrReadTimeout is returned by FrameConn.ReadFrame when no frame arrived in time.
	ErrReadTimeout = errors.New("read timeout")
)

// Stage names the connect step that failed.
type Stage string

const (
	StageURL       Stage = "url"
	StageTCP       Stage = "tcp"
	StageTLS       Stage = "tls"
	StageHandshake Stage = "handshake"
)

// ConnectError reports a failed connect attempt and the stage it failed in.
type ConnectError struct {
	Stage  Stage
	URL    string
	Status string // HTTP status of a rejected upgrade, if any
	Err    error
}

func (e *ConnectError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("connect %s: %s: %v (status: %s)", e.URL, e.Stage, e.Err, e.Status)
	}
	return fmt.Sprintf("connect %s: %s: %v", e.URL, e.Stage, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// DecodeError reports a text frame that is not valid JSON.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode message: %v", e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }

// DisconnectedError reports a close frame sent by the server.
type DisconnectedError struct {
	Code   int
	Reason string
}

func (e *DisconnectedError) Error() string {
	return fmt.Sprintf("disconnected: code=%d reason=%q", e.Code, e.Reason)
}

// HandlerError wraps a failure returned by the caller's Handler.
type HandlerError struct {
	Kind events.Kind
	Err  error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handle %s event: %v", e.Kind, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// LivenessError is returned when the watchdog gives up on the connection:
// Threshold consecutive reads failed, or a probe/pong write failed.
type LivenessError struct {
	Missed    int
	Threshold int
	Err       error
}

func (e *LivenessError) Error() string {
	return fmt.Sprintf("%v after %d/%d missed reads: %v", ErrLoopDead, e.Missed, e.Threshold, e.Err)
}

func (e *LivenessError) Unwrap() []error { return []error{ErrLoopDead, e.Err} }

// IsStopped reports whether err ended a Run because the caller asked it to.
func IsStopped(err error) bool {
	return errors.Is(err, ErrStopped)
}

// Reason maps a terminal Run or connect error onto a short label for
// logging and metrics.
func Reason(err error) string {
	var (
		connErr *ConnectError
		decErr  *DecodeError
		discErr *DisconnectedError
		hdlErr  *HandlerError
		liveErr *LivenessError
	)
	switch {
	case err == nil:
		return "none"
	case IsStopped(err):
		return "stopped"
	case errors.As(err, &connErr):
		return "connect_" + string(connErr.Stage)
	case errors.As(err, &decErr):
		return "decode"
	case errors.As(err, &discErr):
		return "disconnected"
	case errors.As(err, &hdlErr):
		return "handler"
	case errors.As(err, &liveErr):
		return "liveness"
	case errors.Is(err, ErrNotConnected):
		return "not_connected"
	default:
		return "unknown"
	}
}
