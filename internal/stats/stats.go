package stats

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-faster/jx"
)

// Session is a registered connection.
type Session struct {
	DC        int
	SessionID uint64
	state     string
	counters  *Counters
}

type Stats struct {
	lock     sync.RWMutex
	sessions []*Session
}

func New() *Stats {
	return &Stats{
		sessions: []*Session{},
	}
}

// Handle lets a connection update its own record.
type Handle struct {
	stats   *Stats
	session *Session
}

func (s *Stats) AllocSession(dc int, sessionID uint64, counters *Counters) *Handle {
	s.lock.Lock()
	defer s.lock.Unlock()
	session := &Session{
		DC:        dc,
		SessionID: sessionID,
		state:     "empty",
		counters:  counters,
	}
	s.sessions = append(s.sessions, session)
	return &Handle{
		session: session,
		stats:   s,
	}
}

func (s *Stats) removeSession(session *Session) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for i, c := range s.sessions {
		if c == session {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			break
		}
	}
}

func (h *Handle) Close() {
	h.stats.removeSession(h.session)
}

func (h *Handle) SetState(state string) {
	h.stats.lock.Lock()
	h.session.state = state
	h.stats.lock.Unlock()
}

type sessionView struct {
	dc    int
	id    uint64
	state string
	snap  Snapshot
}

func (s *Stats) view(dc int) []sessionView {
	s.lock.RLock()
	defer s.lock.RUnlock()
	r := make([]sessionView, 0, len(s.sessions))
	for _, c := range s.sessions {
		if dc != 0 && c.DC != dc {
			continue
		}
		r = append(r, sessionView{dc: c.DC, id: c.SessionID, state: c.state, snap: c.counters.Snapshot()})
	}
	return r
}

func (s *Stats) AsString() string {
	sessions := s.view(0)
	perDC := map[int]int{}
	var total Snapshot
	for _, c := range sessions {
		perDC[c.dc]++
		total.PacketsSent += c.snap.PacketsSent
		total.PacketsReceived += c.snap.PacketsReceived
		total.SuccessfulQueries += c.snap.SuccessfulQueries
		total.FailedQueries += c.snap.FailedQueries
	}
	dcs := make([]int, 0, len(perDC))
	for dc := range perDC {
		dcs = append(dcs, dc)
	}
	sort.Ints(dcs)
	b := &strings.Builder{}
	fmt.Fprintf(b, "Sessions:\nTotal: %d\n\n", len(sessions))
	for _, dc := range dcs {
		fmt.Fprintf(b, "dc%d: %d\n", dc, perDC[dc])
	}
	fmt.Fprintf(b, "\npackets: %d sent, %d received\n", total.PacketsSent, total.PacketsReceived)
	fmt.Fprintf(b, "queries: %d ok, %d failed\n", total.SuccessfulQueries, total.FailedQueries)
	return b.String()
}

// EncodeJSON writes sessions of dc, or all sessions when dc is 0.
func (s *Stats) EncodeJSON(e *jx.Encoder, dc int) {
	sessions := s.view(dc)
	e.Obj(func(e *jx.Encoder) {
		e.Field("total", func(e *jx.Encoder) { e.Int(len(sessions)) })
		e.Field("sessions", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, c := range sessions {
					encodeSession(e, c)
				}
			})
		})
	})
}

func encodeSession(e *jx.Encoder, c sessionView) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("dc", func(e *jx.Encoder) { e.Int(c.dc) })
		e.Field("session_id", func(e *jx.Encoder) { e.UInt64(c.id) })
		e.Field("state", func(e *jx.Encoder) { e.Str(c.state) })
		e.Field("packets_sent", func(e *jx.Encoder) { e.UInt64(c.snap.PacketsSent) })
		e.Field("packets_received", func(e *jx.Encoder) { e.UInt64(c.snap.PacketsReceived) })
		e.Field("bytes_sent", func(e *jx.Encoder) { e.UInt64(c.snap.BytesSent) })
		e.Field("bytes_received", func(e *jx.Encoder) { e.UInt64(c.snap.BytesReceived) })
		e.Field("successful_queries", func(e *jx.Encoder) { e.UInt64(c.snap.SuccessfulQueries) })
		e.Field("failed_queries", func(e *jx.Encoder) { e.UInt64(c.snap.FailedQueries) })
		e.Field("last_rtt_ms", func(e *jx.Encoder) { e.Int64(c.snap.LastRTT.Milliseconds()) })
	})
}
