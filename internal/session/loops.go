package session

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/geovex/tgsession/internal/auth"
	"github.com/geovex/tgsession/internal/msgid"
	"github.com/geovex/tgsession/internal/proto"
	"github.com/geovex/tgsession/internal/tgcrypt"
	"github.com/geovex/tgsession/internal/transport"
)

func (c *Conn) sendLoop(ctx context.Context, w transport.Writer) error {
	for {
		items, ok := c.queue.wait(ctx)
		if !ok || c.stopped.Load() {
			return nil
		}
		for _, it := range items {
			if err := c.send(w, it); err != nil {
				return wrapErr(KindTransport, "write", err)
			}
		}
	}
}

// send encrypts and writes one message. Only transport errors are returned,
// anything else fails the query alone.
func (c *Conn) send(w transport.Writer, it outgoing) error {
	if it.query != nil && it.query.Resolved() {
		// timed out while queued
		return nil
	}
	key, err := c.auth.Key()
	if err != nil {
		c.dropOutgoing(it, err)
		return nil
	}
	payload := it.payload()
	if len(payload)%4 != 0 {
		c.dropOutgoing(it, ErrPayloadAlignment)
		return nil
	}
	id := c.msgID.Next(msgid.Client)
	seq := c.auth.NextSeqNo(it.contentRelated)
	if it.query != nil {
		if err := c.registry.Register(id, it.query); err != nil {
			c.dropOutgoing(it, err)
			return nil
		}
	}
	plain := tgcrypt.BuildPacket(tgcrypt.PacketInfo{
		Salt:      c.auth.Salt(),
		SessionID: c.sessionID,
		MsgID:     id,
		SeqNo:     seq,
	}, payload)
	enc, err := c.cipher.Encrypt(&key, plain)
	if err != nil {
		c.dropOutgoing(it, err)
		return nil
	}
	if err := w.WritePacket(enc, c.cfg.WriteOptions); err != nil {
		return err
	}
	c.counters.Sent(len(enc))
	if ce := c.log.Check(zap.DebugLevel, "Sent"); ce != nil {
		ce.Write(zap.Int64("msg_id", id), zap.Int32("seq_no", seq), zap.Int("bytes", len(enc)))
	}
	return nil
}

func (c *Conn) dropOutgoing(it outgoing, err error) {
	if it.query != nil {
		c.failQuery(it.query, wrapErr(KindQuery, "send", err))
		return
	}
	c.log.Warn("Service message dropped", zap.Error(err))
}

func (c *Conn) receiveLoop(ctx context.Context, r transport.Reader) error {
	for {
		if ctx.Err() != nil || c.stopped.Load() {
			return nil
		}
		p, err := r.ReadPacket(c.cfg.ReadTimeout)
		switch {
		case err == nil:
		case errors.Is(err, transport.ErrTimeout):
			continue
		case transport.IsCode(err, transport.CodeAuthKeyNotFound):
			c.auth.Clear()
			c.emit(Event{Kind: EventAuthKeyChanged, AuthState: auth.Empty})
			return wrapErr(KindTransport, "read", ErrAuthKeyUnknown)
		case transport.IsCode(err, transport.CodeFlood):
			c.log.Warn("Transport flood", zap.Error(err))
			c.emit(Event{Kind: EventError, Err: err})
			continue
		default:
			if ctx.Err() != nil || c.stopped.Load() {
				return nil
			}
			return wrapErr(KindTransport, "read", err)
		}
		switch p.Kind {
		case transport.KindNop:
			continue
		case transport.KindQuickAck:
			c.log.Debug("Quick ack", zap.Uint32("token", p.QuickAck))
			continue
		}
		c.counters.Received(len(p.Data))
		if err := c.handlePacket(p.Data); err != nil {
			c.log.Warn("Packet dropped", zap.Error(err))
			c.emit(Event{Kind: EventError, Err: err})
		}
		c.flushAcks()
	}
}

func (c *Conn) pingLoop(ctx context.Context) error {
	cfg := c.scheduler.Config()
	if cfg.Interval <= 0 {
		return nil
	}
	tick := cfg.Interval
	if cfg.Timeout > 0 && cfg.Timeout < tick {
		tick = cfg.Timeout
	}
	tick /= 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		if c.stopped.Load() {
			return nil
		}
		now := c.cfg.Clock()
		if c.scheduler.Expire(now) {
			c.log.Warn("Ping timed out", zap.Int("failed", c.scheduler.Failed()))
		}
		if c.scheduler.ShouldDisconnect() {
			return wrapErr(KindTimeout, "ping", ErrPingTimeout)
		}
		if p, ok := c.scheduler.Due(now); ok {
			c.queue.push(service(c.pingBody(p.ID)))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (c *Conn) pingBody(id int64) []byte {
	var obj proto.Object = &proto.Ping{PingID: id}
	if d := c.scheduler.Config().DisconnectDelay; d > 0 {
		obj = &proto.PingDelayDisconnect{PingID: id, DisconnectDelay: int32(d / time.Second)}
	}
	b, _ := proto.Encode(obj)
	return b
}
