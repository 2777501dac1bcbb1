package tgcrypt

import (
	"encoding/binary"

	"github.com/go-faster/errors"
)

// PacketHeaderSize is the plaintext prefix of every encrypted message:
// salt, session id, message id, sequence number and payload length.
const PacketHeaderSize = 32

type PacketInfo struct {
	Salt      uint64
	SessionID uint64
	MsgID     int64
	SeqNo     int32
	Len       uint32
}

var (
	ErrPacketTooShort = errors.New("packet shorter than header")
	ErrPacketLength   = errors.New("declared payload length exceeds packet")
)

// ParsePacketInfo splits a decrypted message into its header and payload.
// Anything after the declared payload is padding and is ignored.
func ParsePacketInfo(buf []byte) (info PacketInfo, payload []byte, err error) {
	if len(buf) < PacketHeaderSize {
		return info, nil, errors.Wrapf(ErrPacketTooShort, "%d bytes", len(buf))
	}
	info.Salt = binary.LittleEndian.Uint64(buf[0:8])
	info.SessionID = binary.LittleEndian.Uint64(buf[8:16])
	info.MsgID = int64(binary.LittleEndian.Uint64(buf[16:24]))
	info.SeqNo = int32(binary.LittleEndian.Uint32(buf[24:28]))
	info.Len = binary.LittleEndian.Uint32(buf[28:32])
	rest := buf[PacketHeaderSize:]
	if uint64(info.Len) > uint64(len(rest)) {
		return info, nil, errors.Wrapf(ErrPacketLength, "%d > %d", info.Len, len(rest))
	}
	return info, rest[:info.Len], nil
}

// BuildPacket serializes header and payload. info.Len is ignored and taken
// from the payload.
func BuildPacket(info PacketInfo, payload []byte) []byte {
	buf := make([]byte, PacketHeaderSize, PacketHeaderSize+len(payload))
	binary.LittleEndian.PutUint64(buf[0:8], info.Salt)
	binary.LittleEndian.PutUint64(buf[8:16], info.SessionID)
	binary.LittleEndian.PutUint64(buf[16:24], uint64(info.MsgID))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(info.SeqNo))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(len(payload)))
	return append(buf, payload...)
}
