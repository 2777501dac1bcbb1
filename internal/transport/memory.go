package transport

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
)

// Memory is an in-process Transport. The other end is driven through Peer.
type Memory struct {
	mux       sync.Mutex
	addr      string
	connected bool
	refuse    map[string]bool
	toPeer    chan frame
	fromPeer  chan frame
	done      chan struct{}
	closeOnce sync.Once
}

func NewMemory() *Memory {
	return &Memory{
		refuse:   map[string]bool{},
		toPeer:   make(chan frame, 64),
		fromPeer: make(chan frame, 64),
		done:     make(chan struct{}),
	}
}

// Refuse makes Connect fail for addr.
func (m *Memory) Refuse(addr string) {
	m.mux.Lock()
	m.refuse[addr] = true
	m.mux.Unlock()
}

func (m *Memory) Connect(ctx context.Context, addr string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mux.Lock()
	defer m.mux.Unlock()
	if m.refuse[addr] {
		return errors.Errorf("connection to %s refused", addr)
	}
	select {
	case <-m.done:
		return ErrClosed
	default:
	}
	m.addr = addr
	m.connected = true
	return nil
}

// Addr returns the address of the last successful Connect.
func (m *Memory) Addr() string {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.addr
}

func (m *Memory) Split() (Reader, Writer) {
	m.mux.Lock()
	defer m.mux.Unlock()
	if !m.connected {
		return closedHalf{}, closedHalf{}
	}
	return memHalf{in: m.fromPeer, out: m.toPeer, done: m.done}, memHalf{in: m.fromPeer, out: m.toPeer, done: m.done}
}

func (m *Memory) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	return nil
}

func (m *Memory) Closed() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}

// Peer returns the remote end of the transport.
func (m *Memory) Peer() *Peer {
	return &Peer{half: memHalf{in: m.toPeer, out: m.fromPeer, done: m.done}}
}

type memHalf struct {
	in   chan frame
	out  chan frame
	done chan struct{}
}

func (h memHalf) ReadPacket(timeout time.Duration) (Packet, error) {
	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}
	select {
	case f := <-h.in:
		return f.p, f.err
	case <-timer:
		return Packet{}, ErrTimeout
	case <-h.done:
		return Packet{}, ErrClosed
	}
}

func (h memHalf) WritePacket(data []byte, _ WriteOptions) error {
	return h.send(frame{p: Packet{Kind: KindData, Data: append([]byte(nil), data...)}})
}

func (h memHalf) send(f frame) error {
	select {
	case <-h.done:
		return ErrClosed
	default:
	}
	select {
	case h.out <- f:
		return nil
	case <-h.done:
		return ErrClosed
	}
}

// Peer is the server side of a Memory transport.
type Peer struct {
	half memHalf
}

func (p *Peer) ReadPacket(timeout time.Duration) (Packet, error) {
	return p.half.ReadPacket(timeout)
}

func (p *Peer) WritePacket(data []byte, opts WriteOptions) error {
	return p.half.WritePacket(data, opts)
}

func (p *Peer) WriteQuickAck(token uint32) error {
	return p.half.send(frame{p: Packet{Kind: KindQuickAck, QuickAck: token}})
}

func (p *Peer) WriteNop() error {
	return p.half.send(frame{p: Packet{Kind: KindNop}})
}

func (p *Peer) WriteCode(code int32) error {
	return p.half.send(frame{err: &CodeError{Code: code}})
}
