// Package transport moves MTProto packets over a duplex byte stream.
package transport

import (
	"context"
	"strconv"
	"time"

	"github.com/go-faster/errors"
)

// Transport is a connectable duplex packet channel.
type Transport interface {
	Connect(ctx context.Context, addr string) error
	// Split returns independent read and write halves. The halves stay the
	// same for the lifetime of a connection.
	Split() (Reader, Writer)
	Close() error
}

type Reader interface {
	// ReadPacket waits up to timeout for the next frame, zero waits forever.
	ReadPacket(timeout time.Duration) (Packet, error)
}

type Writer interface {
	WritePacket(data []byte, opts WriteOptions) error
}

type PacketKind uint8

const (
	KindData PacketKind = iota
	// KindNop is an empty frame
	KindNop
	// KindQuickAck confirms receipt of a packet sent with QuickAck
	KindQuickAck
)

type Packet struct {
	Kind     PacketKind
	Data     []byte
	QuickAck uint32
}

type WriteOptions struct {
	QuickAck bool
}

var (
	ErrTimeout = errors.New("read timeout")
	ErrClosed  = errors.New("transport closed")
)

// CodeError is a transport level error sent by the server instead of a
// packet, -404 means the auth key is unknown.
type CodeError struct {
	Code int32
}

func (e *CodeError) Error() string {
	return "transport error code " + strconv.Itoa(int(e.Code))
}

const (
	CodeAuthKeyNotFound int32 = -404
	CodeFlood           int32 = -429
)

func IsCode(err error, code int32) bool {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}
