package handshake

import "github.com/go-faster/errors"

// ErrKind tells the orchestrator whether the exchange can go on.
type ErrKind uint8

const (
	// KindRecoverable means the message was rejected but the state machine
	// still waits for a valid one.
	KindRecoverable ErrKind = iota + 1
	KindStateMismatch
	KindNonceMismatch
)

func (k ErrKind) String() string {
	switch k {
	case KindRecoverable:
		return "recoverable"
	case KindStateMismatch:
		return "state mismatch"
	case KindNonceMismatch:
		return "nonce mismatch"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind  ErrKind
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Inner == nil {
		return e.Kind.String() + ": " + e.Msg
	}
	return e.Kind.String() + ": " + e.Msg + ": " + e.Inner.Error()
}

func (e *Error) Unwrap() error { return e.Inner }

func NewError(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func WrapError(kind ErrKind, msg string, inner error) *Error {
	return &Error{Kind: kind, Msg: msg, Inner: inner}
}

func IsKind(err error, kind ErrKind) bool {
	var he *Error
	if errors.As(err, &he) {
		return he.Kind == kind
	}
	return false
}

// Fatal reports errors that abort the exchange. Unclassified errors are
// treated as recoverable.
func Fatal(err error) bool {
	return IsKind(err, KindStateMismatch) || IsKind(err, KindNonceMismatch)
}
