// Package ping decides when keepalive probes are due and measures their
// round trip. It never touches the network itself.
package ping

import (
	"sync"
	"time"
)

type Config struct {
	Interval time.Duration
	// Timeout after which an unanswered probe counts as failed
	Timeout   time.Duration
	MaxFailed int
	// DisconnectDelay is asked from the server with every probe, zero sends
	// plain pings
	DisconnectDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interval:        15 * time.Second,
		Timeout:         10 * time.Second,
		MaxFailed:       3,
		DisconnectDelay: 75 * time.Second,
	}
}

type Probe struct {
	ID     int64
	SentAt time.Time
}

type Scheduler struct {
	mux         sync.Mutex
	cfg         Config
	lastID      int64
	outstanding *Probe
	lastSent    time.Time
	failed      int
	rtt         time.Duration
}

func New(cfg Config) *Scheduler {
	return &Scheduler{cfg: cfg}
}

func (s *Scheduler) Config() Config {
	return s.cfg
}

// Due returns a fresh probe if none is outstanding and the interval has
// passed since the previous one.
func (s *Scheduler) Due(now time.Time) (Probe, bool) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.outstanding != nil {
		return Probe{}, false
	}
	if !s.lastSent.IsZero() && now.Sub(s.lastSent) < s.cfg.Interval {
		return Probe{}, false
	}
	s.lastID++
	p := Probe{ID: s.lastID, SentAt: now}
	s.outstanding = &p
	s.lastSent = now
	return p, true
}

// OnPong matches a pong against the outstanding probe.
func (s *Scheduler) OnPong(id int64, now time.Time) (time.Duration, bool) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.outstanding == nil || s.outstanding.ID != id {
		return 0, false
	}
	s.rtt = now.Sub(s.outstanding.SentAt)
	s.outstanding = nil
	s.failed = 0
	return s.rtt, true
}

// Expire drops an outstanding probe older than the timeout and counts it as
// failed.
func (s *Scheduler) Expire(now time.Time) bool {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.outstanding == nil || now.Sub(s.outstanding.SentAt) < s.cfg.Timeout {
		return false
	}
	s.outstanding = nil
	s.failed++
	return true
}

func (s *Scheduler) ShouldDisconnect() bool {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.cfg.MaxFailed > 0 && s.failed >= s.cfg.MaxFailed
}

func (s *Scheduler) RTT() time.Duration {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.rtt
}

func (s *Scheduler) Failed() int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.failed
}

func (s *Scheduler) Reset() {
	s.mux.Lock()
	s.outstanding = nil
	s.lastSent = time.Time{}
	s.failed = 0
	s.mux.Unlock()
}
