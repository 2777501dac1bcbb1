package query

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRegisterComplete(t *testing.T) {
	r := NewRegistry()
	q := New(1, []byte("req"))
	if err := r.Register(42, q); err != nil {
		t.Fatal(err)
	}
	if _, ok := r.Complete(42, []byte("resp"), nil); !ok {
		t.Fatal("first complete did not resolve")
	}
	data, err := q.Result()
	if err != nil || !bytes.Equal(data, []byte("resp")) {
		t.Errorf("wrong result %q %v", data, err)
	}
	if _, ok := r.Complete(42, []byte("other"), nil); ok {
		t.Errorf("second complete resolved")
	}
	data, _ = q.Result()
	if !bytes.Equal(data, []byte("resp")) {
		t.Errorf("result changed to %q", data)
	}
	if st := r.Lifecycle().Stats(); st.Total != 1 || st.Successful != 1 {
		t.Errorf("wrong stats %+v", st)
	}
}

func TestTimeoutUnregistered(t *testing.T) {
	r := NewRegistry()
	q := New(7, nil)
	if !r.Timeout(q) {
		t.Fatal("timeout did not resolve")
	}
	if _, err := q.Result(); !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
	if r.Timeout(q) {
		t.Errorf("second timeout resolved")
	}
	if st := r.Lifecycle().Stats(); st.TimedOut != 1 || st.Failed != 1 {
		t.Errorf("wrong stats %+v", st)
	}
}

func TestTimeoutThenComplete(t *testing.T) {
	r := NewRegistry()
	q := New(1, nil)
	_ = r.Register(10, q)
	r.Timeout(q)
	if r.Len() != 0 {
		t.Errorf("timed out query still registered")
	}
	if _, ok := r.Complete(10, []byte("late"), nil); ok {
		t.Errorf("late response resolved a timed out query")
	}
}

func TestDuplicateRegister(t *testing.T) {
	r := NewRegistry()
	a, b := New(1, nil), New(2, nil)
	_ = r.Register(5, a)
	if err := r.Register(5, b); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	if q, _ := r.Complete(5, nil, nil); q != a {
		t.Errorf("original entry replaced")
	}
}

func TestResendTake(t *testing.T) {
	r := NewRegistry()
	q := New(3, nil)
	_ = r.Register(100, q)
	got, ok := r.Take(100)
	if !ok || got != q {
		t.Fatal("take failed")
	}
	_ = r.Register(104, q)
	if id, ok := r.Lifecycle().QueryOf(104); !ok || id != 3 {
		t.Errorf("lifecycle does not map new msg id")
	}
	if st := r.Lifecycle().Stats(); st.Retried != 1 {
		t.Errorf("retry not counted: %+v", st)
	}
	if _, ok := r.Complete(104, []byte{1}, nil); !ok {
		t.Errorf("resent query not completed")
	}
}

func TestCompleteRace(t *testing.T) {
	for i := 0; i < 100; i++ {
		r := NewRegistry()
		q := New(int64(i), nil)
		_ = r.Register(int64(i*4), q)
		var (
			wg   sync.WaitGroup
			wins = make(chan string, 3)
		)
		wg.Add(3)
		go func() {
			defer wg.Done()
			if _, ok := r.Complete(int64(i*4), []byte("a"), nil); ok {
				wins <- "complete"
			}
		}()
		go func() {
			defer wg.Done()
			if _, ok := r.Complete(int64(i*4), []byte("b"), nil); ok {
				wins <- "complete"
			}
		}()
		go func() {
			defer wg.Done()
			if r.Timeout(q) {
				wins <- "timeout"
			}
		}()
		wg.Wait()
		close(wins)
		n := 0
		for range wins {
			n++
		}
		if n != 1 {
			t.Fatalf("query resolved %d times", n)
		}
	}
}

func TestDrainAndWait(t *testing.T) {
	r := NewRegistry()
	q := New(1, nil)
	_ = r.Register(8, q)
	go r.Drain(errors.New("closed"))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := q.Wait(ctx); err == nil || err.Error() != "closed" {
		t.Errorf("expected closed, got %v", err)
	}
	pending := New(2, nil)
	if _, err := pending.Result(); !errors.Is(err, ErrPending) {
		t.Errorf("expected ErrPending, got %v", err)
	}
}

func TestIDSource(t *testing.T) {
	var s IDSource
	if s.Next() != 1 || s.Next() != 2 {
		t.Errorf("ids not sequential")
	}
}
