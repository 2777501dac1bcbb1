package session

import (
	"context"
	"sync"

	"github.com/geovex/tgsession/internal/proto"
	"github.com/geovex/tgsession/internal/query"
)

// outgoing is a query or a prepared service message.
type outgoing struct {
	query          *query.Query
	body           []byte
	contentRelated bool
}

// service wraps a prepared service message; acks and containers take an even
// sequence number.
func service(body []byte) outgoing {
	id, err := proto.TypeOf(body)
	return outgoing{body: body, contentRelated: err == nil && proto.ContentRelated(id)}
}

func (o outgoing) payload() []byte {
	if o.query != nil {
		return o.query.Payload
	}
	return o.body
}

// queue is an unbounded FIFO of outgoing messages.
type queue struct {
	mux    sync.Mutex
	items  []outgoing
	closed bool
	notify chan struct{}
}

func newQueue() *queue {
	return &queue{notify: make(chan struct{}, 1)}
}

func (q *queue) push(it outgoing) bool {
	q.mux.Lock()
	if q.closed {
		q.mux.Unlock()
		return false
	}
	q.items = append(q.items, it)
	q.mux.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

// wait blocks until items are queued and takes all of them. It returns
// false once the queue is closed or ctx is done.
func (q *queue) wait(ctx context.Context) ([]outgoing, bool) {
	for {
		q.mux.Lock()
		if q.closed {
			q.mux.Unlock()
			return nil, false
		}
		if len(q.items) > 0 {
			items := q.items
			q.items = nil
			q.mux.Unlock()
			return items, true
		}
		q.mux.Unlock()
		select {
		case <-q.notify:
		case <-ctx.Done():
			return nil, false
		}
	}
}

// close rejects further pushes and returns what was never sent.
func (q *queue) close() []outgoing {
	q.mux.Lock()
	defer q.mux.Unlock()
	q.closed = true
	items := q.items
	q.items = nil
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return items
}
