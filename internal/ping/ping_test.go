package ping

import (
	"testing"
	"time"
)

func TestDueOnlyWithoutOutstanding(t *testing.T) {
	s := New(Config{Interval: time.Second, Timeout: 500 * time.Millisecond, MaxFailed: 2})
	now := time.Unix(1000, 0)
	p, ok := s.Due(now)
	if !ok {
		t.Fatal("first probe not due")
	}
	if _, ok := s.Due(now.Add(5 * time.Second)); ok {
		t.Errorf("second probe created while one is outstanding")
	}
	rtt, ok := s.OnPong(p.ID, now.Add(120*time.Millisecond))
	if !ok || rtt != 120*time.Millisecond {
		t.Errorf("wrong rtt %v", rtt)
	}
	if _, ok := s.OnPong(p.ID, now); ok {
		t.Errorf("pong matched twice")
	}
	if _, ok := s.Due(now.Add(500 * time.Millisecond)); ok {
		t.Errorf("probe due before interval")
	}
	p2, ok := s.Due(now.Add(time.Second))
	if !ok || p2.ID == p.ID {
		t.Errorf("probe not due after interval or id reused")
	}
}

func TestExpireAndDisconnect(t *testing.T) {
	s := New(Config{Interval: time.Second, Timeout: 500 * time.Millisecond, MaxFailed: 2})
	now := time.Unix(1000, 0)
	for i := 0; i < 2; i++ {
		if _, ok := s.Due(now); !ok {
			t.Fatalf("probe %d not due", i)
		}
		if s.Expire(now.Add(100 * time.Millisecond)) {
			t.Errorf("probe expired early")
		}
		if !s.Expire(now.Add(500 * time.Millisecond)) {
			t.Errorf("probe not expired")
		}
		now = now.Add(time.Second)
	}
	if !s.ShouldDisconnect() || s.Failed() != 2 {
		t.Errorf("expected disconnect after %d failures", s.Failed())
	}
	s.Reset()
	if s.ShouldDisconnect() {
		t.Errorf("reset kept failures")
	}
}

func TestPongResetsFailures(t *testing.T) {
	s := New(DefaultConfig())
	now := time.Unix(1000, 0)
	s.Due(now)
	s.Expire(now.Add(time.Minute))
	p, _ := s.Due(now.Add(time.Minute))
	s.OnPong(p.ID, now.Add(time.Minute+time.Second))
	if s.Failed() != 0 || s.RTT() != time.Second {
		t.Errorf("failed %d rtt %v", s.Failed(), s.RTT())
	}
}
