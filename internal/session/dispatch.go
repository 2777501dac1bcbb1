package session

import (
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/geovex/tgsession/internal/msgid"
	"github.com/geovex/tgsession/internal/proto"
	"github.com/geovex/tgsession/internal/tgcrypt"
)

func (c *Conn) handlePacket(data []byte) error {
	key, err := c.auth.Key()
	if err != nil {
		return wrapErr(KindProtocol, "decrypt", err)
	}
	plain, err := c.cipher.Decrypt(&key, data)
	if err != nil {
		return wrapErr(KindProtocol, "decrypt", err)
	}
	info, body, err := tgcrypt.ParsePacketInfo(plain)
	if err != nil {
		return wrapErr(KindProtocol, "parse", err)
	}
	if info.SessionID != c.sessionID {
		return wrapErr(KindProtocol, "parse", errors.Wrapf(ErrSessionMismatch, "%x", info.SessionID))
	}
	if !msgid.IsServer(info.MsgID) {
		return wrapErr(KindProtocol, "parse", errors.Wrapf(ErrBadMsgID, "%d", info.MsgID))
	}
	return c.handleMessage(proto.Message{ID: info.MsgID, SeqNo: info.SeqNo, Body: body})
}

func (c *Conn) handleMessage(msg proto.Message) error {
	c.auth.ObserveIncoming(msg.SeqNo)
	if msg.SeqNo&1 == 1 {
		c.ack(msg.ID)
	}
	return c.handleBody(msg)
}

func (c *Conn) handleBody(msg proto.Message) error {
	obj, ok, err := proto.Decode(msg.Body)
	if err != nil {
		return wrapErr(KindProtocol, "decode", err)
	}
	if !ok {
		c.onUpdate(msg)
		return nil
	}
	switch v := obj.(type) {
	case *proto.MsgContainer:
		for _, inner := range v.Messages {
			if err := c.handleMessage(inner); err != nil {
				c.log.Warn("Container message dropped", zap.Int64("msg_id", inner.ID), zap.Error(err))
			}
		}
	case *proto.GZIPPacked:
		return c.handleBody(proto.Message{ID: msg.ID, SeqNo: msg.SeqNo, Body: v.Data})
	case *proto.RPCResult:
		data, err := proto.UnpackResult(v.Result)
		var rpcErr *proto.RPCError
		if err != nil && !errors.As(err, &rpcErr) {
			err = wrapErr(KindProtocol, "rpc_result", err)
		}
		c.CompleteQuery(v.ReqMsgID, data, err)
	case *proto.Pong:
		if rtt, ok := c.scheduler.OnPong(v.PingID, c.cfg.Clock()); ok {
			c.counters.SetRTT(rtt)
			c.log.Debug("Pong", zap.Duration("rtt", rtt))
		}
	case *proto.NewSessionCreated:
		c.auth.SetSalt(uint64(v.ServerSalt))
		c.log.Info("New session created", zap.Int64("first_msg_id", v.FirstMsgID))
	case *proto.BadServerSalt:
		c.auth.SetSalt(uint64(v.NewSalt))
		c.log.Debug("Server salt updated", zap.Int64("bad_msg_id", v.BadMsgID))
		c.resend(v.BadMsgID)
	case *proto.BadMsgNotification:
		c.onBadMsg(msg.ID, v)
	case *proto.MsgsAck:
		c.log.Debug("Acknowledged", zap.Int64s("msg_ids", v.MsgIDs))
	case *proto.MsgDetailedInfo:
		c.ack(v.AnswerMsgID)
	case *proto.MsgNewDetailedInfo:
		c.ack(v.AnswerMsgID)
	default:
		c.log.Debug("Service message ignored", zap.Uint32("type", obj.TypeID()))
	}
	return nil
}

func (c *Conn) onBadMsg(serverMsgID int64, v *proto.BadMsgNotification) {
	switch v.Code {
	case proto.BadMsgIDTooLow, proto.BadMsgIDTooHigh:
		c.msgID.SyncWith(serverMsgID)
		c.log.Info("Time offset adjusted", zap.Int64("offset", c.msgID.TimeOffset()))
		c.resend(v.BadMsgID)
	default:
		err := wrapErr(KindProtocol, "bad_msg_notification", errors.Errorf("code %d", v.Code))
		if q, ok := c.registry.Take(v.BadMsgID); ok {
			c.failQuery(q, err)
			return
		}
		c.log.Warn("Bad message notification", zap.Int64("bad_msg_id", v.BadMsgID), zap.Int32("code", v.Code))
	}
}

// resend queues the query sent as msgID again under a new message id.
func (c *Conn) resend(msgID int64) {
	q, ok := c.registry.Take(msgID)
	if !ok {
		return
	}
	if !c.queue.push(outgoing{query: q, contentRelated: true}) {
		c.failQuery(q, ErrClosed)
	}
}

func (c *Conn) onUpdate(msg proto.Message) {
	if c.cfg.UpdateHandler != nil {
		c.cfg.UpdateHandler(msg.ID, msg.Body)
		return
	}
	typeID, _ := proto.TypeOf(msg.Body)
	c.log.Debug("Unmatched message", zap.Int64("msg_id", msg.ID), zap.Uint32("type", typeID))
}

func (c *Conn) ack(msgID int64) {
	c.acksMux.Lock()
	c.acks = append(c.acks, msgID)
	c.acksMux.Unlock()
}

func (c *Conn) flushAcks() {
	c.acksMux.Lock()
	ids := c.acks
	c.acks = nil
	c.acksMux.Unlock()
	if len(ids) == 0 {
		return
	}
	body, err := proto.Encode(&proto.MsgsAck{MsgIDs: ids})
	if err != nil {
		c.log.Warn("Ack not encoded", zap.Error(err))
		return
	}
	c.queue.push(service(body))
}
