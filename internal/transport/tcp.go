package transport

import (
	"context"
	"crypto/rand"
	"io"
	"net"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/geovex/tgsession/internal/tgcrypt"
)

type Options struct {
	// Protocol is one of tgcrypt.Abridged, Intermediate, Padded or Full
	Protocol  uint8
	Obfuscate bool
	// DC is written into the obfuscated2 header
	DC     int16
	Dialer Dialer
	Rand   io.Reader
	Logger *zap.Logger
}

func (o *Options) setDefaults() {
	if o.Dialer == nil {
		o.Dialer = NewDirectDialer(10 * time.Second)
	}
	if o.Rand == nil {
		o.Rand = rand.Reader
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// TCP is a Transport over a stream connection.
type TCP struct {
	opts Options
	log  *zap.Logger

	mux  sync.Mutex
	conn io.Closer
	r    *streamReader
	w    *streamWriter
}

func NewTCP(opts Options) *TCP {
	opts.setDefaults()
	return &TCP{opts: opts, log: opts.Logger.Named("transport")}
}

func (t *TCP) Connect(ctx context.Context, addr string) error {
	conn, err := t.opts.Dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "dial %s", addr)
	}
	setNoDelay(conn)
	if err := t.attach(conn); err != nil {
		_ = conn.Close()
		return err
	}
	t.log.Debug("Connected", zap.String("addr", addr))
	return nil
}

// attach starts framing over an established connection.
func (t *TCP) attach(conn io.ReadWriteCloser) error {
	t.mux.Lock()
	defer t.mux.Unlock()
	if t.conn != nil {
		return errors.New("already connected")
	}
	var sock dataStream
	if t.opts.Obfuscate {
		if t.opts.Protocol == tgcrypt.Full {
			return errors.New("full protocol can't be obfuscated")
		}
		obf, err := tgcrypt.NewObfuscated2(t.opts.Rand, t.opts.DC, t.opts.Protocol)
		if err != nil {
			return err
		}
		sock = newObfuscatedStream(conn, obf)
	} else {
		sock = newRawStream(conn, t.opts.Protocol)
	}
	if err := sock.Initiate(); err != nil {
		return errors.Wrap(err, "initiate")
	}
	ms := newMsgStream(sock, t.opts.Rand)
	t.conn = conn
	t.r = newStreamReader(ms)
	t.w = &streamWriter{stream: ms, done: t.r.done}
	go t.r.run()
	return nil
}

func (t *TCP) Split() (Reader, Writer) {
	t.mux.Lock()
	defer t.mux.Unlock()
	if t.conn == nil {
		return closedHalf{}, closedHalf{}
	}
	return t.r, t.w
}

func (t *TCP) Close() error {
	t.mux.Lock()
	defer t.mux.Unlock()
	if t.conn == nil {
		return nil
	}
	t.r.stop()
	err := t.conn.Close()
	t.conn = nil
	return err
}

type frame struct {
	p   Packet
	err error
}

// streamReader reads frames in its own goroutine so a read timeout never
// leaves a frame half consumed.
type streamReader struct {
	stream   *msgStream
	frames   chan frame
	done     chan struct{}
	stopOnce sync.Once
	failErr  error
}

func newStreamReader(s *msgStream) *streamReader {
	return &streamReader{
		stream: s,
		frames: make(chan frame, 16),
		done:   make(chan struct{}),
	}
}

func (r *streamReader) run() {
	for {
		p, err := r.stream.ReadMsg()
		var ce *CodeError
		if err != nil && !errors.As(err, &ce) {
			r.failErr = err
			close(r.frames)
			return
		}
		select {
		case r.frames <- frame{p: p, err: err}:
		case <-r.done:
			return
		}
	}
}

func (r *streamReader) stop() {
	r.stopOnce.Do(func() { close(r.done) })
}

func (r *streamReader) ReadPacket(timeout time.Duration) (Packet, error) {
	select {
	case <-r.done:
		return Packet{}, ErrClosed
	default:
	}
	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}
	select {
	case f, ok := <-r.frames:
		if !ok {
			return Packet{}, r.closedErr()
		}
		return f.p, f.err
	case <-timer:
		return Packet{}, ErrTimeout
	case <-r.done:
		return Packet{}, ErrClosed
	}
}

func (r *streamReader) closedErr() error {
	select {
	case <-r.done:
		return ErrClosed
	default:
	}
	if errors.Is(r.failErr, io.EOF) || errors.Is(r.failErr, net.ErrClosed) || errors.Is(r.failErr, io.ErrClosedPipe) {
		return errors.Wrap(ErrClosed, r.failErr.Error())
	}
	return errors.Wrap(r.failErr, "read")
}

type streamWriter struct {
	mux    sync.Mutex
	stream *msgStream
	done   chan struct{}
}

func (w *streamWriter) WritePacket(data []byte, opts WriteOptions) error {
	select {
	case <-w.done:
		return ErrClosed
	default:
	}
	w.mux.Lock()
	defer w.mux.Unlock()
	if err := w.stream.WriteMsg(data, opts); err != nil {
		return errors.Wrap(err, "write")
	}
	return nil
}

type closedHalf struct{}

func (closedHalf) ReadPacket(time.Duration) (Packet, error) {
	return Packet{}, ErrClosed
}

func (closedHalf) WritePacket([]byte, WriteOptions) error {
	return ErrClosed
}
