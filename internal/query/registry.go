package query

import (
	"sync"

	"github.com/go-faster/errors"
)

// Registry maps outstanding message ids to queries. Completion by message id
// and timeout are both resolved through the query itself, so whichever path
// runs first wins and the other is a no-op.
type Registry struct {
	mux   sync.Mutex
	byMsg map[int64]*Query
	life  *Lifecycle
}

func NewRegistry() *Registry {
	return &Registry{
		byMsg: map[int64]*Query{},
		life:  NewLifecycle(),
	}
}

func (r *Registry) Lifecycle() *Lifecycle {
	return r.life
}

// Register associates msgID with q. An existing entry is kept.
func (r *Registry) Register(msgID int64, q *Query) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	if _, ok := r.byMsg[msgID]; ok {
		return errors.Wrapf(ErrDuplicate, "%d", msgID)
	}
	if q.Resolved() {
		return errors.Errorf("query %d already resolved", q.ID)
	}
	r.byMsg[msgID] = q
	r.life.Sent(q.ID, msgID)
	return nil
}

// Complete resolves the query registered under msgID. It returns the query
// only if this call delivered the result.
func (r *Registry) Complete(msgID int64, data []byte, err error) (*Query, bool) {
	r.mux.Lock()
	q, ok := r.byMsg[msgID]
	if ok {
		delete(r.byMsg, msgID)
	}
	r.mux.Unlock()
	if !ok || !q.resolve(data, err) {
		return nil, false
	}
	if err != nil {
		r.life.Finish(q.ID, Failed)
	} else {
		r.life.Finish(q.ID, Completed)
	}
	return q, true
}

// Take removes msgID without resolving the query, used before resending it.
func (r *Registry) Take(msgID int64) (*Query, bool) {
	r.mux.Lock()
	defer r.mux.Unlock()
	q, ok := r.byMsg[msgID]
	if ok {
		delete(r.byMsg, msgID)
	}
	return q, ok && !q.Resolved()
}

// Timeout fails q with ErrTimeout whether or not it was registered.
func (r *Registry) Timeout(q *Query) bool {
	return r.finish(q, ErrTimeout, TimedOut)
}

// Fail resolves q with err, e.g. when it could not be sent.
func (r *Registry) Fail(q *Query, err error) bool {
	return r.finish(q, err, Failed)
}

func (r *Registry) finish(q *Query, err error, s State) bool {
	r.mux.Lock()
	for _, id := range r.life.MsgIDs(q.ID) {
		if r.byMsg[id] == q {
			delete(r.byMsg, id)
		}
	}
	r.mux.Unlock()
	if !q.resolve(nil, err) {
		return false
	}
	r.life.Finish(q.ID, s)
	return true
}

// Drain fails every registered query and returns how many were resolved.
func (r *Registry) Drain(err error) int {
	r.mux.Lock()
	pending := r.byMsg
	r.byMsg = map[int64]*Query{}
	r.mux.Unlock()
	n := 0
	for _, q := range pending {
		if q.resolve(nil, err) {
			r.life.Finish(q.ID, Failed)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mux.Lock()
	defer r.mux.Unlock()
	return len(r.byMsg)
}
