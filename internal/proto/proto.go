// Package proto encodes and decodes MTProto service messages.
package proto

import (
	"github.com/go-faster/errors"
	"github.com/gotd/td/bin"
)

// Service message constructors.
const (
	RPCResultTypeID           = 0xf35c6d01
	RPCErrorTypeID            = 0x2144ca19
	GZIPPackedTypeID          = 0x3072cfa1
	MsgsAckTypeID             = 0x62d6b459
	BadMsgNotificationTypeID  = 0xa7eff811
	BadServerSaltTypeID       = 0xedab447b
	MsgContainerTypeID        = 0x73f1f8dc
	NewSessionCreatedTypeID   = 0x9ec20908
	PongTypeID                = 0x347773c5
	PingTypeID                = 0x7abe77ec
	PingDelayDisconnectTypeID = 0xf3427b8c
	MsgDetailedInfoTypeID     = 0x276d3ec6
	MsgNewDetailedInfoTypeID  = 0x809db6df
	MsgResendReqTypeID        = 0x7d861a08

	vectorTypeID = 0x1cb5c415
)

// Object is a TL serializable service message.
type Object interface {
	TypeID() uint32
	Encode(b *bin.Buffer) error
	Decode(b *bin.Buffer) error
}

var ErrUnexpectedType = errors.New("unexpected constructor")

func consumeID(b *bin.Buffer, id uint32) error {
	got, err := b.ID()
	if err != nil {
		return err
	}
	if got != id {
		return errors.Wrapf(ErrUnexpectedType, "%#x, want %#x", got, id)
	}
	return nil
}

func newObject(id uint32) Object {
	switch id {
	case RPCResultTypeID:
		return &RPCResult{}
	case GZIPPackedTypeID:
		return &GZIPPacked{}
	case MsgsAckTypeID:
		return &MsgsAck{}
	case BadMsgNotificationTypeID:
		return &BadMsgNotification{}
	case BadServerSaltTypeID:
		return &BadServerSalt{}
	case MsgContainerTypeID:
		return &MsgContainer{}
	case NewSessionCreatedTypeID:
		return &NewSessionCreated{}
	case PongTypeID:
		return &Pong{}
	case PingTypeID:
		return &Ping{}
	case PingDelayDisconnectTypeID:
		return &PingDelayDisconnect{}
	case MsgDetailedInfoTypeID:
		return &MsgDetailedInfo{}
	case MsgNewDetailedInfoTypeID:
		return &MsgNewDetailedInfo{}
	case MsgResendReqTypeID:
		return &MsgResendReq{}
	default:
		return nil
	}
}

// TypeOf returns the constructor of a message body.
func TypeOf(body []byte) (uint32, error) {
	b := bin.Buffer{Buf: body}
	return b.PeekID()
}

// Decode parses body as a service message. ok is false when body is some
// other object, which is then left for the caller.
func Decode(body []byte) (obj Object, ok bool, err error) {
	id, err := TypeOf(body)
	if err != nil {
		return nil, false, err
	}
	obj = newObject(id)
	if obj == nil {
		return nil, false, nil
	}
	if err := obj.Decode(&bin.Buffer{Buf: body}); err != nil {
		return nil, true, errors.Wrapf(err, "decode %#x", id)
	}
	return obj, true, nil
}

// Encode serializes obj into a new byte slice.
func Encode(obj Object) ([]byte, error) {
	var b bin.Buffer
	if err := obj.Encode(&b); err != nil {
		return nil, err
	}
	return b.Buf, nil
}

// ContentRelated reports whether a message body needs an acknowledgement,
// i.e. carries an odd sequence number.
func ContentRelated(id uint32) bool {
	switch id {
	case MsgsAckTypeID, MsgContainerTypeID, GZIPPackedTypeID:
		return false
	default:
		return true
	}
}
