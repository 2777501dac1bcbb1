package msgid

import (
	"sync"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNextMonotonic(t *testing.T) {
	now := time.Unix(1700000000, 500)
	g := New(fixedClock(now))
	prev := int64(0)
	for i := 0; i < 1000; i++ {
		id := g.Next(Client)
		if id <= prev {
			t.Fatalf("id %d not greater than %d", id, prev)
		}
		if !IsClient(id) {
			t.Fatalf("id %d not divisible by 4", id)
		}
		prev = id
	}
	if Time(prev).Unix() != now.Unix() {
		t.Errorf("id time drifted: %v", Time(prev))
	}
}

func TestNextServerParity(t *testing.T) {
	g := New(nil)
	for _, k := range []Kind{ServerResponse, ServerUpdate} {
		id := g.Next(k)
		if !IsServer(id) || IsClient(id) {
			t.Errorf("kind %d produced %d", k, id)
		}
		if id%4 != int64(k) {
			t.Errorf("kind %d produced residue %d", k, id%4)
		}
	}
}

func TestNextConcurrent(t *testing.T) {
	g := New(fixedClock(time.Unix(1700000000, 0)))
	var (
		mu   sync.Mutex
		seen = map[int64]bool{}
		wg   sync.WaitGroup
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				id := g.Next(Client)
				mu.Lock()
				if seen[id] {
					t.Errorf("duplicate id %d", id)
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}

func TestSyncWith(t *testing.T) {
	now := time.Unix(1700000000, 0)
	g := New(fixedClock(now))
	server := New(fixedClock(now.Add(30 * time.Second)))
	g.SyncWith(server.Next(ServerResponse))
	if g.TimeOffset() != 30 {
		t.Errorf("offset %d, want 30", g.TimeOffset())
	}
	if got := Time(g.Next(Client)).Unix(); got != now.Unix()+30 {
		t.Errorf("synced id time %d", got)
	}
}
