// Package msgid generates MTProto message identifiers.
package msgid

import (
	"time"

	"go.uber.org/atomic"
)

// Kind is the residue of a message id modulo 4.
type Kind int64

const (
	Client         Kind = 0
	ServerResponse Kind = 1
	ServerUpdate   Kind = 3
)

// Generator produces strictly increasing ids close to unixtime*2^32.
type Generator struct {
	now    func() time.Time
	offset atomic.Int64 // seconds to add to local clock
	last   atomic.Int64
}

func New(now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{now: now}
}

func (g *Generator) SetTimeOffset(seconds int64) {
	g.offset.Store(seconds)
}

func (g *Generator) TimeOffset() int64 {
	return g.offset.Load()
}

// SyncWith adjusts the offset so local ids match the server clock.
func (g *Generator) SyncWith(serverMsgID int64) {
	g.offset.Store(Time(serverMsgID).Unix() - g.now().Unix())
}

func (g *Generator) Next(kind Kind) int64 {
	t := g.now().Add(time.Duration(g.offset.Load()) * time.Second)
	frac := (int64(t.Nanosecond()) << 32) / int64(time.Second)
	id := (t.Unix()<<32 | frac) &^ 3
	id |= int64(kind)
	for {
		last := g.last.Load()
		if id <= last {
			id = ((last &^ 3) + 4) | int64(kind)
		}
		if g.last.CompareAndSwap(last, id) {
			return id
		}
	}
}

func Time(id int64) time.Time {
	return time.Unix(id>>32, 0)
}

func IsClient(id int64) bool {
	return id&3 == 0
}

func IsServer(id int64) bool {
	return id&1 == 1
}
