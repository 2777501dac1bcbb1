package handshake

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/geovex/tgsession/internal/tgcrypt"
	"github.com/geovex/tgsession/internal/transport"
)

// scripted answers every server message with the next scripted step.
type scripted struct {
	start Action
	steps []step
	seen  [][]byte
}

type step struct {
	action Action
	err    error
}

func (s *scripted) Start() Action { return s.start }

func (s *scripted) OnMessage(data []byte) (Action, error) {
	s.seen = append(s.seen, data)
	st := s.steps[0]
	s.steps = s.steps[1:]
	return st.action, st.err
}

func connected(t *testing.T) (*transport.Memory, *transport.Peer) {
	t.Helper()
	m := transport.NewMemory()
	if err := m.Connect(context.Background(), "dc"); err != nil {
		t.Fatal(err)
	}
	return m, m.Peer()
}

func orchestrator(t *testing.T) Orchestrator {
	return Orchestrator{ReadTimeout: time.Second, Logger: zaptest.NewLogger(t)}
}

func TestRunComplete(t *testing.T) {
	m, peer := connected(t)
	key := bytes.Repeat([]byte{7}, tgcrypt.AuthKeySize)
	h := &scripted{
		start: Send([]byte("req_pq")),
		steps: []step{
			{action: Send([]byte("req_dh"))},
			{err: errors.New("bad padding")},
			{action: Wait()},
			{action: Complete(key, 99)},
		},
	}
	_ = peer.WriteNop()
	for _, answer := range []string{"res_pq", "garbage", "dh_params", "dh_gen_ok"} {
		_ = peer.WritePacket([]byte(answer), transport.WriteOptions{})
	}
	r, w := m.Split()
	res, err := orchestrator(t).Run(context.Background(), h, r, w)
	if err != nil {
		t.Fatal(err)
	}
	if res.Salt != 99 || !bytes.Equal(res.Key.Value[:], key) {
		t.Errorf("wrong result salt %d", res.Salt)
	}
	if len(h.seen) != 4 {
		t.Errorf("handshaker saw %d messages", len(h.seen))
	}
	for _, want := range []string{"req_pq", "req_dh"} {
		p, err := peer.ReadPacket(time.Second)
		if err != nil || string(p.Data) != want {
			t.Errorf("server got %q %v, want %q", p.Data, err, want)
		}
	}
}

func TestRunStartMustSend(t *testing.T) {
	m, _ := connected(t)
	r, w := m.Split()
	_, err := orchestrator(t).Run(context.Background(), &scripted{start: Wait()}, r, w)
	if !errors.Is(err, ErrUnexpectedAction) {
		t.Errorf("expected ErrUnexpectedAction, got %v", err)
	}
}

func TestRunFatal(t *testing.T) {
	for _, kind := range []ErrKind{KindStateMismatch, KindNonceMismatch} {
		m, peer := connected(t)
		h := &scripted{
			start: Send([]byte("req_pq")),
			steps: []step{{err: NewError(kind, "server nonce differs")}},
		}
		_ = peer.WritePacket([]byte("res_pq"), transport.WriteOptions{})
		r, w := m.Split()
		_, err := orchestrator(t).Run(context.Background(), h, r, w)
		if !IsKind(err, kind) {
			t.Errorf("expected %s, got %v", kind, err)
		}
	}
}

func TestRunTransportFailure(t *testing.T) {
	m, _ := connected(t)
	r, w := m.Split()
	o := orchestrator(t)
	o.ReadTimeout = 10 * time.Millisecond
	_, err := o.Run(context.Background(), &scripted{start: Send([]byte("req_pq"))}, r, w)
	if !errors.Is(err, transport.ErrTimeout) {
		t.Errorf("expected timeout, got %v", err)
	}
	_ = m.Close()
	_, err = o.Run(context.Background(), &scripted{start: Send([]byte("req_pq"))}, r, w)
	if !errors.Is(err, transport.ErrClosed) {
		t.Errorf("expected closed, got %v", err)
	}
}

func TestRunBadKey(t *testing.T) {
	m, peer := connected(t)
	h := &scripted{
		start: Send([]byte("req_pq")),
		steps: []step{{action: Complete([]byte{1, 2, 3}, 0)}},
	}
	_ = peer.WritePacket([]byte("res_pq"), transport.WriteOptions{})
	r, w := m.Split()
	if _, err := orchestrator(t).Run(context.Background(), h, r, w); !errors.Is(err, tgcrypt.ErrAuthKeySize) {
		t.Errorf("expected ErrAuthKeySize, got %v", err)
	}
}
