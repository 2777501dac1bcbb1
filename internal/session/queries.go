package session

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/geovex/tgsession/internal/query"
)

// NewQuery wraps a serialized request with a fresh query id.
func (c *Conn) NewQuery(payload []byte) *query.Query {
	return query.New(c.queryIDs.Next(), payload)
}

// SendQuery queues q for sending. The query fails on its own timeout or
// when the connection goes down.
func (c *Conn) SendQuery(q *query.Query) error {
	if c.State() != StateReady {
		return wrapErr(KindQuery, "send", errors.Wrapf(ErrNotReady, "state %s", c.State()))
	}
	if len(q.Payload)%4 != 0 {
		return wrapErr(KindQuery, "send", ErrPayloadAlignment)
	}
	c.registry.Lifecycle().Track(q.ID)
	c.armTimer(q)
	if !c.queue.push(outgoing{query: q, contentRelated: true}) {
		c.failQuery(q, ErrClosed)
		return wrapErr(KindQuery, "send", ErrClosed)
	}
	return nil
}

// Invoke sends payload and waits for the result.
func (c *Conn) Invoke(ctx context.Context, payload []byte) ([]byte, error) {
	q := c.NewQuery(payload)
	if err := c.SendQuery(q); err != nil {
		return nil, err
	}
	data, err := q.Wait(ctx)
	if ctx.Err() != nil && !q.Resolved() {
		c.failQuery(q, ctx.Err())
	}
	return data, err
}

// RegisterQuery maps a sent message id to q.
func (c *Conn) RegisterQuery(msgID int64, q *query.Query) error {
	if err := c.registry.Register(msgID, q); err != nil {
		return wrapErr(KindQuery, "register", err)
	}
	return nil
}

// CompleteQuery resolves the query sent as msgID. A response nobody waits
// for is only logged.
func (c *Conn) CompleteQuery(msgID int64, data []byte, err error) bool {
	q, ok := c.registry.Complete(msgID, data, err)
	if !ok {
		c.log.Debug("No query for response", zap.Int64("msg_id", msgID))
		return false
	}
	c.stopTimer(q.ID)
	if err != nil {
		c.counters.QueryFailed()
	} else {
		c.counters.QuerySucceeded()
	}
	c.emit(Event{Kind: EventQueryCompleted, QueryID: q.ID, Err: err})
	return true
}

// OnQueryTimeout fails q, registered or not, unless it already resolved.
func (c *Conn) OnQueryTimeout(q *query.Query) {
	if !c.registry.Timeout(q) {
		return
	}
	c.stopTimer(q.ID)
	c.counters.QueryFailed()
	c.log.Debug("Query timed out", zap.Int64("query_id", q.ID))
	c.emit(Event{Kind: EventQueryCompleted, QueryID: q.ID, Err: query.ErrTimeout})
}

func (c *Conn) failQuery(q *query.Query, err error) {
	if !c.registry.Fail(q, err) {
		return
	}
	c.stopTimer(q.ID)
	c.counters.QueryFailed()
	c.emit(Event{Kind: EventQueryCompleted, QueryID: q.ID, Err: err})
}

func (c *Conn) armTimer(q *query.Query) {
	timeout := q.Timeout
	if timeout <= 0 {
		timeout = c.cfg.QueryTimeout
	}
	if timeout <= 0 {
		return
	}
	t := time.AfterFunc(timeout, func() { c.OnQueryTimeout(q) })
	c.timersMux.Lock()
	c.timers[q.ID] = t
	c.timersMux.Unlock()
}

func (c *Conn) stopTimer(queryID int64) {
	c.timersMux.Lock()
	t, ok := c.timers[queryID]
	delete(c.timers, queryID)
	c.timersMux.Unlock()
	if ok {
		t.Stop()
	}
}

func (c *Conn) stopTimers() {
	c.timersMux.Lock()
	timers := c.timers
	c.timers = map[int64]*time.Timer{}
	c.timersMux.Unlock()
	for _, t := range timers {
		t.Stop()
	}
}
