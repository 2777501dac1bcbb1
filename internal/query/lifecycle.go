package query

import "sync"

type State uint8

const (
	Pending State = iota
	InFlight
	Completed
	Failed
	TimedOut
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case InFlight:
		return "in_flight"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

type LifecycleStats struct {
	Total      uint64
	Successful uint64
	Failed     uint64
	TimedOut   uint64
	Retried    uint64
}

// Lifecycle indexes unfinished queries by the message ids they were sent
// under. Finished queries are dropped and only counted.
type Lifecycle struct {
	mux    sync.Mutex
	states map[int64]State
	byMsg  map[int64]int64
	msgs   map[int64][]int64
	stats  LifecycleStats
}

func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		states: map[int64]State{},
		byMsg:  map[int64]int64{},
		msgs:   map[int64][]int64{},
	}
}

func (l *Lifecycle) Track(queryID int64) {
	l.mux.Lock()
	defer l.mux.Unlock()
	l.track(queryID)
}

func (l *Lifecycle) track(queryID int64) {
	if _, ok := l.states[queryID]; ok {
		return
	}
	l.states[queryID] = Pending
	l.stats.Total++
}

// Sent records a transmission; a second message id for the same query is a
// retry.
func (l *Lifecycle) Sent(queryID, msgID int64) {
	l.mux.Lock()
	defer l.mux.Unlock()
	l.track(queryID)
	if len(l.msgs[queryID]) > 0 {
		l.stats.Retried++
	}
	l.states[queryID] = InFlight
	l.byMsg[msgID] = queryID
	l.msgs[queryID] = append(l.msgs[queryID], msgID)
}

// Finish moves a query to a terminal state.
func (l *Lifecycle) Finish(queryID int64, s State) {
	l.mux.Lock()
	defer l.mux.Unlock()
	if _, ok := l.states[queryID]; !ok {
		// never tracked, e.g. timed out before being sent
		l.stats.Total++
	}
	for _, id := range l.msgs[queryID] {
		delete(l.byMsg, id)
	}
	delete(l.msgs, queryID)
	delete(l.states, queryID)
	switch s {
	case Completed:
		l.stats.Successful++
	case TimedOut:
		l.stats.TimedOut++
		l.stats.Failed++
	default:
		l.stats.Failed++
	}
}

func (l *Lifecycle) QueryOf(msgID int64) (int64, bool) {
	l.mux.Lock()
	defer l.mux.Unlock()
	id, ok := l.byMsg[msgID]
	return id, ok
}

// MsgIDs lists message ids a query was sent under.
func (l *Lifecycle) MsgIDs(queryID int64) []int64 {
	l.mux.Lock()
	defer l.mux.Unlock()
	return append([]int64(nil), l.msgs[queryID]...)
}

func (l *Lifecycle) State(queryID int64) (State, bool) {
	l.mux.Lock()
	defer l.mux.Unlock()
	s, ok := l.states[queryID]
	return s, ok
}

func (l *Lifecycle) Stats() LifecycleStats {
	l.mux.Lock()
	defer l.mux.Unlock()
	return l.stats
}
