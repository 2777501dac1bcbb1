// Package session runs one encrypted MTProto session over a transport.
package session

import (
	"context"
	"encoding/binary"
	"io"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/geovex/tgsession/internal/auth"
	"github.com/geovex/tgsession/internal/dc"
	"github.com/geovex/tgsession/internal/handshake"
	"github.com/geovex/tgsession/internal/msgid"
	"github.com/geovex/tgsession/internal/ping"
	"github.com/geovex/tgsession/internal/query"
	"github.com/geovex/tgsession/internal/stats"
	"github.com/geovex/tgsession/internal/tgcrypt"
	"github.com/geovex/tgsession/internal/transport"
)

// Conn is a session connection to one datacenter.
type Conn struct {
	cfg       Config
	log       *zap.Logger
	auth      *auth.Data
	sessionID uint64
	msgID     *msgid.Generator
	cipher    tgcrypt.Cipher
	registry  *query.Registry
	queryIDs  query.IDSource
	scheduler *ping.Scheduler
	counters  *stats.Counters
	handle    *stats.Handle
	queue     *queue
	events    chan Event

	generation atomic.Uint64
	stopped    atomic.Bool

	stateMux sync.Mutex
	state    State

	mux       sync.Mutex
	transport transport.Transport
	cancel    context.CancelFunc
	loopsDone chan struct{}
	loopErr   error
	torn      bool

	timersMux sync.Mutex
	timers    map[int64]*time.Timer

	acksMux sync.Mutex
	acks    []int64
}

// New creates an idle connection sharing the given auth secret.
func New(cfg Config, data *auth.Data) (*Conn, error) {
	cfg.setDefaults()
	var id [8]byte
	if _, err := io.ReadFull(cfg.Rand, id[:]); err != nil {
		return nil, errors.Wrap(err, "session id")
	}
	sessionID := binary.LittleEndian.Uint64(id[:])
	c := &Conn{
		cfg:       cfg,
		auth:      data,
		sessionID: sessionID,
		msgID:     msgid.New(cfg.Clock),
		cipher:    tgcrypt.NewClientCipher(cfg.Rand),
		registry:  query.NewRegistry(),
		scheduler: ping.New(cfg.Ping),
		counters:  &stats.Counters{},
		queue:     newQueue(),
		events:    make(chan Event, cfg.EventBuffer),
		timers:    map[int64]*time.Timer{},
		log: cfg.Logger.Named("session").With(
			zap.Int("dc", cfg.DC),
			zap.Uint64("session_id", sessionID),
		),
	}
	if cfg.Stats != nil {
		c.handle = cfg.Stats.AllocSession(cfg.DC, sessionID, c.counters)
	}
	return c, nil
}

func (c *Conn) SessionID() uint64 { return c.sessionID }

func (c *Conn) DC() int { return c.cfg.DC }

func (c *Conn) Auth() *auth.Data { return c.auth }

func (c *Conn) NetworkGeneration() uint64 { return c.generation.Load() }

func (c *Conn) Events() <-chan Event { return c.events }

func (c *Conn) Statistics() stats.Snapshot { return c.counters.Snapshot() }

func (c *Conn) QueryStats() query.LifecycleStats { return c.registry.Lifecycle().Stats() }

func (c *Conn) State() State {
	c.stateMux.Lock()
	defer c.stateMux.Unlock()
	return c.state
}

// IsReady requires both the connection and its auth secret to be ready.
func (c *Conn) IsReady() bool {
	return c.State() == StateReady && c.auth.State() == auth.Ready
}

func (c *Conn) emit(e Event) {
	select {
	case c.events <- e:
	default:
		c.log.Debug("Event dropped", zap.Stringer("kind", e.Kind))
	}
}

// setState moves to s unless the connection is already closed.
func (c *Conn) setState(s State) {
	c.stateMux.Lock()
	if c.state == s || c.state == StateClosed {
		c.stateMux.Unlock()
		return
	}
	c.state = s
	c.stateMux.Unlock()
	c.stateChanged(s)
}

func (c *Conn) transition(from, to State) bool {
	c.stateMux.Lock()
	if c.state != from {
		c.stateMux.Unlock()
		return false
	}
	c.state = to
	c.stateMux.Unlock()
	c.stateChanged(to)
	return true
}

func (c *Conn) stateChanged(s State) {
	c.log.Info("State changed", zap.Stringer("state", s))
	if c.handle != nil {
		c.handle.SetState(s.String())
	}
	c.emit(Event{Kind: EventStateChanged, State: s})
}

// Start connects, negotiates an auth key if needed and spawns the network
// loops. ctx bounds connecting and the key exchange only; the loops run
// until Stop or a fatal error.
func (c *Conn) Start(ctx context.Context) error {
	if c.stopped.Load() {
		return ErrClosed
	}
	if !c.transition(StateEmpty, StateConnecting) {
		return errors.Wrapf(ErrAlreadyStarted, "state %s", c.State())
	}
	gen := c.generation.Inc()
	ctx, cancel := context.WithCancel(ctx)
	if !c.setCancel(cancel) {
		cancel()
		c.teardown(ErrClosed)
		return ErrClosed
	}
	if err := c.start(ctx, gen); err != nil {
		cancel()
		c.teardown(err)
		return err
	}
	return nil
}

// setCancel installs the cancel function of the current phase. It reports
// false if Stop was already called.
func (c *Conn) setCancel(cancel context.CancelFunc) bool {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.stopped.Load() {
		return false
	}
	c.cancel = cancel
	return true
}

func (c *Conn) current(gen uint64) error {
	if c.stopped.Load() {
		return ErrClosed
	}
	if c.generation.Load() != gen {
		return ErrStale
	}
	return nil
}

func (c *Conn) start(ctx context.Context, gen uint64) error {
	candidates := c.cfg.Options.Candidates(c.cfg.DC, c.cfg.AllowIPv6)
	if len(candidates) == 0 {
		return wrapErr(KindTransport, "connect", errors.Wrapf(dc.ErrUnknownDC, "%d", c.cfg.DC))
	}
	addrs := make([]string, 0, len(candidates))
	for _, opt := range candidates {
		addrs = append(addrs, opt.Addr)
	}
	t := c.cfg.Transport()
	c.mux.Lock()
	c.transport = t
	c.mux.Unlock()
	addr, err := transport.ConnectAny(ctx, t, addrs, c.cfg.Retry, c.log)
	if err != nil {
		return wrapErr(KindTransport, "connect", err)
	}
	c.log.Info("Connected", zap.String("addr", addr))
	r, w := t.Split()

	if c.auth.State() != auth.Ready {
		if err := c.exchangeKey(ctx, gen, optionFor(candidates, addr), r, w); err != nil {
			return err
		}
	}
	if err := c.current(gen); err != nil {
		return err
	}
	if c.cfg.UsePFS {
		c.log.Debug("PFS requested, using permanent key")
	}

	c.auth.ResetSeqNo()
	c.scheduler.Reset()
	loopCtx, cancel := context.WithCancel(context.Background())
	if !c.setCancel(cancel) {
		cancel()
		return ErrClosed
	}
	g, gctx := errgroup.WithContext(loopCtx)
	g.Go(func() error { return c.sendLoop(gctx, w) })
	g.Go(func() error { return c.receiveLoop(gctx, r) })
	g.Go(func() error { return c.pingLoop(gctx) })
	done := make(chan struct{})
	c.mux.Lock()
	c.loopsDone = done
	c.mux.Unlock()
	go func() {
		err := g.Wait()
		cancel()
		c.teardown(err)
		close(done)
	}()

	if !c.transition(StateConnecting, StateReady) {
		return ErrClosed
	}
	return nil
}

func optionFor(candidates []dc.Option, addr string) dc.Option {
	for _, opt := range candidates {
		if opt.Addr == addr {
			return opt
		}
	}
	return candidates[0]
}

func (c *Conn) exchangeKey(ctx context.Context, gen uint64, opt dc.Option, r transport.Reader, w transport.Writer) error {
	if c.cfg.Handshaker == nil {
		return wrapErr(KindHandshake, "start", ErrNoHandshaker)
	}
	c.auth.SetState(auth.Handshaking)
	c.emit(Event{Kind: EventAuthKeyChanged, AuthState: auth.Handshaking})
	hctx, cancel := context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
	defer cancel()
	o := handshake.Orchestrator{
		ReadTimeout: c.cfg.HandshakeTimeout,
		Logger:      c.log.Named("handshake"),
	}
	res, err := o.Run(hctx, c.cfg.Handshaker(opt, c.cfg.Keys), r, w)
	// a newer Start or Stop owns the connection now
	if genErr := c.current(gen); genErr != nil {
		c.abortHandshake()
		c.log.Info("Discarding handshake result", zap.Error(genErr))
		return genErr
	}
	if err != nil {
		c.abortHandshake()
		return wrapErr(KindHandshake, "key exchange", err)
	}
	c.auth.SetKey(res.Key, res.Salt)
	c.emit(Event{Kind: EventAuthKeyChanged, AuthState: auth.Ready})
	return nil
}

func (c *Conn) abortHandshake() {
	if c.auth.State() == auth.Handshaking {
		c.auth.SetState(auth.Empty)
		c.emit(Event{Kind: EventAuthKeyChanged, AuthState: auth.Empty})
	}
}

// Stop marks the connection stopped and closes it. Network loops notice on
// their next iteration; Wait blocks until they are gone.
func (c *Conn) Stop() {
	if !c.stopped.CompareAndSwap(false, true) {
		return
	}
	c.setState(StateClosing)
	c.mux.Lock()
	cancel := c.cancel
	running := c.loopsDone != nil
	c.mux.Unlock()
	if cancel != nil {
		cancel()
	}
	c.failUnsent(ErrClosed)
	c.setState(StateClosed)
	if !running {
		c.teardown(nil)
	}
}

// Wait blocks until the network loops exit and returns their error.
func (c *Conn) Wait() error {
	c.mux.Lock()
	done := c.loopsDone
	c.mux.Unlock()
	if done != nil {
		<-done
	}
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.loopErr
}

// teardown releases the transport and fails everything in flight. Only the
// first call has an effect.
func (c *Conn) teardown(cause error) {
	c.mux.Lock()
	if c.torn {
		c.mux.Unlock()
		return
	}
	c.torn = true
	t := c.transport
	c.transport = nil
	c.mux.Unlock()

	var closeErr error
	if t != nil {
		closeErr = t.Close()
	}
	drainErr := cause
	if drainErr == nil || c.stopped.Load() {
		drainErr = ErrClosed
	}
	c.failUnsent(drainErr)
	for i := c.registry.Drain(drainErr); i > 0; i-- {
		c.counters.QueryFailed()
	}
	c.stopTimers()
	c.setState(StateClosed)
	if c.handle != nil {
		c.handle.Close()
	}
	if cause != nil && !c.stopped.Load() && !errors.Is(cause, ErrClosed) {
		c.log.Error("Connection failed", zap.Error(cause))
		c.emit(Event{Kind: EventError, Err: cause})
	}
	c.mux.Lock()
	c.loopErr = multierr.Append(cause, closeErr)
	c.mux.Unlock()
}

// failUnsent fails queries that never left the queue.
func (c *Conn) failUnsent(err error) {
	for _, it := range c.queue.close() {
		if it.query != nil {
			c.failQuery(it.query, err)
		}
	}
}
