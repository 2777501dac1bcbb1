package stats

import (
	"sync"
	"time"
)

// Counters are the traffic and query statistics of one connection.
type Counters struct {
	lock sync.RWMutex
	s    Snapshot
}

type Snapshot struct {
	PacketsSent       uint64
	PacketsReceived   uint64
	BytesSent         uint64
	BytesReceived     uint64
	SuccessfulQueries uint64
	FailedQueries     uint64
	LastRTT           time.Duration
}

func (c *Counters) Sent(bytes int) {
	c.lock.Lock()
	c.s.PacketsSent++
	c.s.BytesSent += uint64(bytes)
	c.lock.Unlock()
}

func (c *Counters) Received(bytes int) {
	c.lock.Lock()
	c.s.PacketsReceived++
	c.s.BytesReceived += uint64(bytes)
	c.lock.Unlock()
}

func (c *Counters) QuerySucceeded() {
	c.lock.Lock()
	c.s.SuccessfulQueries++
	c.lock.Unlock()
}

func (c *Counters) QueryFailed() {
	c.lock.Lock()
	c.s.FailedQueries++
	c.lock.Unlock()
}

func (c *Counters) SetRTT(d time.Duration) {
	c.lock.Lock()
	c.s.LastRTT = d
	c.lock.Unlock()
}

func (c *Counters) Snapshot() Snapshot {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.s
}
