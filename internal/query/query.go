// Package query tracks requests waiting for a server response.
package query

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/atomic"
)

var (
	ErrTimeout   = errors.New("query timed out")
	ErrPending   = errors.New("query is not resolved")
	ErrDuplicate = errors.New("message id already registered")
)

// Query is an opaque request payload with a result that is set at most once.
type Query struct {
	ID      int64
	Payload []byte
	// Timeout overrides the connection default when positive
	Timeout time.Duration

	resolved atomic.Bool
	done     chan struct{}
	result   []byte
	err      error
}

func New(id int64, payload []byte) *Query {
	return &Query{
		ID:      id,
		Payload: payload,
		done:    make(chan struct{}),
	}
}

// resolve stores the outcome; only the first call wins.
func (q *Query) resolve(data []byte, err error) bool {
	if !q.resolved.CompareAndSwap(false, true) {
		return false
	}
	q.result = data
	q.err = err
	close(q.done)
	return true
}

func (q *Query) Done() <-chan struct{} {
	return q.done
}

func (q *Query) Resolved() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

// Result returns the outcome or ErrPending.
func (q *Query) Result() ([]byte, error) {
	select {
	case <-q.done:
		return q.result, q.err
	default:
		return nil, ErrPending
	}
}

func (q *Query) Wait(ctx context.Context) ([]byte, error) {
	select {
	case <-q.done:
		return q.result, q.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// IDSource hands out query ids, starting from 1.
type IDSource struct {
	last atomic.Int64
}

func (s *IDSource) Next() int64 {
	return s.last.Inc()
}
