package session

import "github.com/go-faster/errors"

// ErrKind classifies connection failures.
type ErrKind uint8

const (
	KindTransport ErrKind = iota + 1
	KindProtocol
	KindQuery
	KindTimeout
	KindHandshake
)

func (k ErrKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindQuery:
		return "query"
	case KindTimeout:
		return "timeout"
	case KindHandshake:
		return "handshake"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind ErrKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Kind.String() + " error: " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func wrapErr(kind ErrKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func IsKind(err error, kind ErrKind) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}

var (
	ErrNotReady         = errors.New("connection is not ready")
	ErrClosed           = errors.New("connection closed")
	ErrAlreadyStarted   = errors.New("connection already started")
	ErrStale            = errors.New("network generation changed")
	ErrNoHandshaker     = errors.New("auth key missing and no handshaker configured")
	ErrPingTimeout      = errors.New("too many unanswered pings")
	ErrSessionMismatch  = errors.New("packet for another session")
	ErrBadMsgID         = errors.New("message id is not a server id")
	ErrPayloadAlignment = errors.New("payload length is not a multiple of 4")
	ErrAuthKeyUnknown   = errors.New("server does not know the auth key")
)
