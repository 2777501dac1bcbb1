package proto

import (
	"github.com/go-faster/errors"
	"github.com/gotd/td/bin"
)

// Message is an element of a container.
type Message struct {
	ID    int64
	SeqNo int32
	Body  []byte
}

// MsgContainer#73f1f8dc messages:vector<%Message>
type MsgContainer struct {
	Messages []Message
}

func (*MsgContainer) TypeID() uint32 { return MsgContainerTypeID }

func (m *MsgContainer) Encode(b *bin.Buffer) error {
	b.PutID(MsgContainerTypeID)
	b.PutInt(len(m.Messages))
	for _, msg := range m.Messages {
		if len(msg.Body)%4 != 0 {
			return errors.Errorf("message %d body not aligned", msg.ID)
		}
		b.PutLong(msg.ID)
		b.PutInt32(msg.SeqNo)
		b.PutInt(len(msg.Body))
		b.Put(msg.Body)
	}
	return nil
}

func (m *MsgContainer) Decode(b *bin.Buffer) error {
	if err := consumeID(b, MsgContainerTypeID); err != nil {
		return err
	}
	n, err := b.Int()
	if err != nil {
		return err
	}
	if n < 0 || n > 1024 {
		return errors.Errorf("bad container size %d", n)
	}
	m.Messages = make([]Message, 0, n)
	for i := 0; i < n; i++ {
		var msg Message
		if msg.ID, err = b.Long(); err != nil {
			return err
		}
		if msg.SeqNo, err = b.Int32(); err != nil {
			return err
		}
		size, err := b.Int()
		if err != nil {
			return err
		}
		if size < 0 || size > b.Len() {
			return errors.Errorf("message %d: bad length %d", msg.ID, size)
		}
		msg.Body = append([]byte(nil), b.Buf[:size]...)
		b.Buf = b.Buf[size:]
		m.Messages = append(m.Messages, msg)
	}
	return nil
}

// MsgsAck#62d6b459 msg_ids:Vector<long>
type MsgsAck struct {
	MsgIDs []int64
}

func (*MsgsAck) TypeID() uint32 { return MsgsAckTypeID }

func (m *MsgsAck) Encode(b *bin.Buffer) error {
	b.PutID(MsgsAckTypeID)
	putLongVector(b, m.MsgIDs)
	return nil
}

func (m *MsgsAck) Decode(b *bin.Buffer) (err error) {
	if err := consumeID(b, MsgsAckTypeID); err != nil {
		return err
	}
	m.MsgIDs, err = longVector(b)
	return err
}

// MsgResendReq#7d861a08 msg_ids:Vector<long>
type MsgResendReq struct {
	MsgIDs []int64
}

func (*MsgResendReq) TypeID() uint32 { return MsgResendReqTypeID }

func (m *MsgResendReq) Encode(b *bin.Buffer) error {
	b.PutID(MsgResendReqTypeID)
	putLongVector(b, m.MsgIDs)
	return nil
}

func (m *MsgResendReq) Decode(b *bin.Buffer) (err error) {
	if err := consumeID(b, MsgResendReqTypeID); err != nil {
		return err
	}
	m.MsgIDs, err = longVector(b)
	return err
}

func putLongVector(b *bin.Buffer, v []int64) {
	b.PutID(vectorTypeID)
	b.PutInt(len(v))
	for _, id := range v {
		b.PutLong(id)
	}
}

func longVector(b *bin.Buffer) ([]int64, error) {
	if err := consumeID(b, vectorTypeID); err != nil {
		return nil, err
	}
	n, err := b.Int()
	if err != nil {
		return nil, err
	}
	if n < 0 || n*8 > b.Len() {
		return nil, errors.Errorf("bad vector length %d", n)
	}
	v := make([]int64, n)
	for i := range v {
		if v[i], err = b.Long(); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// BadMsgNotification#a7eff811 bad_msg_id:long bad_msg_seqno:int error_code:int
type BadMsgNotification struct {
	BadMsgID    int64
	BadMsgSeqNo int32
	Code        int32
}

// Codes of BadMsgNotification.
const (
	BadMsgIDTooLow     = 16
	BadMsgIDTooHigh    = 17
	BadMsgIDParity     = 18
	BadMsgIDDuplicate  = 19
	BadMsgTooOld       = 20
	BadMsgSeqNoTooLow  = 32
	BadMsgSeqNoTooHigh = 33
	BadMsgSeqNoParity  = 34
	BadMsgServerSalt   = 48
	BadMsgContainer    = 64
)

func (*BadMsgNotification) TypeID() uint32 { return BadMsgNotificationTypeID }

func (m *BadMsgNotification) Encode(b *bin.Buffer) error {
	b.PutID(BadMsgNotificationTypeID)
	b.PutLong(m.BadMsgID)
	b.PutInt32(m.BadMsgSeqNo)
	b.PutInt32(m.Code)
	return nil
}

func (m *BadMsgNotification) Decode(b *bin.Buffer) (err error) {
	if err := consumeID(b, BadMsgNotificationTypeID); err != nil {
		return err
	}
	if m.BadMsgID, err = b.Long(); err != nil {
		return err
	}
	if m.BadMsgSeqNo, err = b.Int32(); err != nil {
		return err
	}
	m.Code, err = b.Int32()
	return err
}

// BadServerSalt#edab447b bad_msg_id:long bad_msg_seqno:int error_code:int new_server_salt:long
type BadServerSalt struct {
	BadMsgID    int64
	BadMsgSeqNo int32
	Code        int32
	NewSalt     int64
}

func (*BadServerSalt) TypeID() uint32 { return BadServerSaltTypeID }

func (m *BadServerSalt) Encode(b *bin.Buffer) error {
	b.PutID(BadServerSaltTypeID)
	b.PutLong(m.BadMsgID)
	b.PutInt32(m.BadMsgSeqNo)
	b.PutInt32(m.Code)
	b.PutLong(m.NewSalt)
	return nil
}

func (m *BadServerSalt) Decode(b *bin.Buffer) (err error) {
	if err := consumeID(b, BadServerSaltTypeID); err != nil {
		return err
	}
	if m.BadMsgID, err = b.Long(); err != nil {
		return err
	}
	if m.BadMsgSeqNo, err = b.Int32(); err != nil {
		return err
	}
	if m.Code, err = b.Int32(); err != nil {
		return err
	}
	m.NewSalt, err = b.Long()
	return err
}

// NewSessionCreated#9ec20908 first_msg_id:long unique_id:long server_salt:long
type NewSessionCreated struct {
	FirstMsgID int64
	UniqueID   int64
	ServerSalt int64
}

func (*NewSessionCreated) TypeID() uint32 { return NewSessionCreatedTypeID }

func (m *NewSessionCreated) Encode(b *bin.Buffer) error {
	b.PutID(NewSessionCreatedTypeID)
	b.PutLong(m.FirstMsgID)
	b.PutLong(m.UniqueID)
	b.PutLong(m.ServerSalt)
	return nil
}

func (m *NewSessionCreated) Decode(b *bin.Buffer) (err error) {
	if err := consumeID(b, NewSessionCreatedTypeID); err != nil {
		return err
	}
	if m.FirstMsgID, err = b.Long(); err != nil {
		return err
	}
	if m.UniqueID, err = b.Long(); err != nil {
		return err
	}
	m.ServerSalt, err = b.Long()
	return err
}

// Ping#7abe77ec ping_id:long
type Ping struct {
	PingID int64
}

func (*Ping) TypeID() uint32 { return PingTypeID }

func (m *Ping) Encode(b *bin.Buffer) error {
	b.PutID(PingTypeID)
	b.PutLong(m.PingID)
	return nil
}

func (m *Ping) Decode(b *bin.Buffer) (err error) {
	if err := consumeID(b, PingTypeID); err != nil {
		return err
	}
	m.PingID, err = b.Long()
	return err
}

// PingDelayDisconnect#f3427b8c ping_id:long disconnect_delay:int asks the
// server to close the connection if no ping arrives within the delay.
type PingDelayDisconnect struct {
	PingID          int64
	DisconnectDelay int32
}

func (*PingDelayDisconnect) TypeID() uint32 { return PingDelayDisconnectTypeID }

func (m *PingDelayDisconnect) Encode(b *bin.Buffer) error {
	b.PutID(PingDelayDisconnectTypeID)
	b.PutLong(m.PingID)
	b.PutInt32(m.DisconnectDelay)
	return nil
}

func (m *PingDelayDisconnect) Decode(b *bin.Buffer) (err error) {
	if err := consumeID(b, PingDelayDisconnectTypeID); err != nil {
		return err
	}
	if m.PingID, err = b.Long(); err != nil {
		return err
	}
	m.DisconnectDelay, err = b.Int32()
	return err
}

// Pong#347773c5 msg_id:long ping_id:long
type Pong struct {
	MsgID  int64
	PingID int64
}

func (*Pong) TypeID() uint32 { return PongTypeID }

func (m *Pong) Encode(b *bin.Buffer) error {
	b.PutID(PongTypeID)
	b.PutLong(m.MsgID)
	b.PutLong(m.PingID)
	return nil
}

func (m *Pong) Decode(b *bin.Buffer) (err error) {
	if err := consumeID(b, PongTypeID); err != nil {
		return err
	}
	if m.MsgID, err = b.Long(); err != nil {
		return err
	}
	m.PingID, err = b.Long()
	return err
}

// MsgDetailedInfo#276d3ec6 msg_id:long answer_msg_id:long bytes:int status:int
type MsgDetailedInfo struct {
	MsgID       int64
	AnswerMsgID int64
	Bytes       int32
	Status      int32
}

func (*MsgDetailedInfo) TypeID() uint32 { return MsgDetailedInfoTypeID }

func (m *MsgDetailedInfo) Encode(b *bin.Buffer) error {
	b.PutID(MsgDetailedInfoTypeID)
	b.PutLong(m.MsgID)
	b.PutLong(m.AnswerMsgID)
	b.PutInt32(m.Bytes)
	b.PutInt32(m.Status)
	return nil
}

func (m *MsgDetailedInfo) Decode(b *bin.Buffer) (err error) {
	if err := consumeID(b, MsgDetailedInfoTypeID); err != nil {
		return err
	}
	if m.MsgID, err = b.Long(); err != nil {
		return err
	}
	if m.AnswerMsgID, err = b.Long(); err != nil {
		return err
	}
	if m.Bytes, err = b.Int32(); err != nil {
		return err
	}
	m.Status, err = b.Int32()
	return err
}

// MsgNewDetailedInfo#809db6df answer_msg_id:long bytes:int status:int
type MsgNewDetailedInfo struct {
	AnswerMsgID int64
	Bytes       int32
	Status      int32
}

func (*MsgNewDetailedInfo) TypeID() uint32 { return MsgNewDetailedInfoTypeID }

func (m *MsgNewDetailedInfo) Encode(b *bin.Buffer) error {
	b.PutID(MsgNewDetailedInfoTypeID)
	b.PutLong(m.AnswerMsgID)
	b.PutInt32(m.Bytes)
	b.PutInt32(m.Status)
	return nil
}

func (m *MsgNewDetailedInfo) Decode(b *bin.Buffer) (err error) {
	if err := consumeID(b, MsgNewDetailedInfoTypeID); err != nil {
		return err
	}
	if m.AnswerMsgID, err = b.Long(); err != nil {
		return err
	}
	if m.Bytes, err = b.Int32(); err != nil {
		return err
	}
	m.Status, err = b.Int32()
	return err
}
