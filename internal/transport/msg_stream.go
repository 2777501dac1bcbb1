package transport

import (
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/go-faster/errors"

	"github.com/geovex/tgsession/internal/tgcrypt"
)

// msgStream frames packets for one of the MTProto transport protocols.
type msgStream struct {
	sock dataStream
	rand io.Reader
	// full protocol counters
	readSeq, writeSeq uint32
}

func newMsgStream(sock dataStream, rand io.Reader) *msgStream {
	return &msgStream{sock: sock, rand: rand}
}

func (s *msgStream) ReadMsg() (p Packet, err error) {
	var msgLen uint32
	switch s.sock.Protocol() {
	case tgcrypt.Abridged:
		var l [4]byte
		if _, err = io.ReadFull(s.sock, l[:1]); err != nil {
			return
		}
		if l[0]&0x80 != 0 {
			// quick ack token, big endian
			if _, err = io.ReadFull(s.sock, l[1:]); err != nil {
				return
			}
			return Packet{Kind: KindQuickAck, QuickAck: binary.BigEndian.Uint32(l[:]) &^ 0x80000000}, nil
		}
		if l[0] < 0x7f {
			msgLen = uint32(l[0])
		} else {
			if _, err = io.ReadFull(s.sock, l[:3]); err != nil {
				return
			}
			l[3] = 0
			msgLen = binary.LittleEndian.Uint32(l[:])
		}
		msgLen *= 4
		if msgLen > tgcrypt.MaxPayloadSize {
			return p, errors.Errorf("message too big: %d", msgLen)
		}
		p.Data = make([]byte, msgLen)
		if _, err = io.ReadFull(s.sock, p.Data); err != nil {
			return
		}
	case tgcrypt.Intermediate, tgcrypt.Padded:
		var l [4]byte
		if _, err = io.ReadFull(s.sock, l[:]); err != nil {
			return
		}
		msgLen = binary.LittleEndian.Uint32(l[:])
		if msgLen&0x80000000 != 0 {
			return Packet{Kind: KindQuickAck, QuickAck: msgLen &^ 0x80000000}, nil
		}
		if msgLen > tgcrypt.MaxPayloadSize {
			return p, errors.Errorf("message too big: %d", msgLen)
		}
		p.Data = make([]byte, msgLen)
		if _, err = io.ReadFull(s.sock, p.Data); err != nil {
			return
		}
		if s.sock.Protocol() == tgcrypt.Padded {
			p.Data = trimPadding(p.Data)
		}
	case tgcrypt.Full:
		var l [4]byte
		if _, err = io.ReadFull(s.sock, l[:]); err != nil {
			return
		}
		msgLen = binary.LittleEndian.Uint32(l[:])
		if msgLen&0x80000000 != 0 {
			return Packet{Kind: KindQuickAck, QuickAck: msgLen &^ 0x80000000}, nil
		}
		if msgLen < 12 || msgLen > tgcrypt.MaxPayloadSize+12 {
			return p, errors.Errorf("bad full frame length: %d", msgLen)
		}
		raw := make([]byte, msgLen)
		copy(raw, l[:])
		if _, err = io.ReadFull(s.sock, raw[4:]); err != nil {
			return
		}
		seq := binary.LittleEndian.Uint32(raw[4:8])
		crc := binary.LittleEndian.Uint32(raw[msgLen-4:])
		if sum := crc32.ChecksumIEEE(raw[:msgLen-4]); crc != sum {
			return p, errors.Errorf("bad crc: %x != %x", crc, sum)
		}
		if seq != s.readSeq {
			return p, errors.Errorf("bad sequence: %d != %d", seq, s.readSeq)
		}
		s.readSeq++
		p.Data = raw[8 : msgLen-4]
	default:
		return p, errors.Errorf("unsupported protocol: %x", s.sock.Protocol())
	}
	switch len(p.Data) {
	case 0:
		p.Kind = KindNop
	case 4:
		return p, &CodeError{Code: int32(binary.LittleEndian.Uint32(p.Data))}
	}
	return p, nil
}

func (s *msgStream) WriteMsg(data []byte, opts WriteOptions) (err error) {
	sendmsg := make([]byte, 0, len(data)+20)
	switch s.sock.Protocol() {
	case tgcrypt.Abridged:
		l := uint32(len(data))
		if l%4 != 0 {
			return errors.New("message size not multiple of 4")
		}
		l = l / 4
		var ack byte
		if opts.QuickAck {
			ack = 0x80
		}
		if l >= 0x7f {
			sendmsg = append(sendmsg, 0x7f|ack)
			sendmsg = append(sendmsg, binary.LittleEndian.AppendUint32(nil, l)[:3]...)
		} else {
			sendmsg = append(sendmsg, byte(l)|ack)
		}
		sendmsg = append(sendmsg, data...)
	case tgcrypt.Intermediate:
		sendmsg = binary.LittleEndian.AppendUint32(sendmsg, lengthWord(len(data), opts))
		sendmsg = append(sendmsg, data...)
	case tgcrypt.Padded:
		var pad [1]byte
		if _, err = io.ReadFull(s.rand, pad[:]); err != nil {
			return errors.Wrap(err, "padding")
		}
		padding := make([]byte, int(pad[0]%16))
		if _, err = io.ReadFull(s.rand, padding); err != nil {
			return errors.Wrap(err, "padding")
		}
		sendmsg = binary.LittleEndian.AppendUint32(sendmsg, lengthWord(len(data)+len(padding), opts))
		sendmsg = append(sendmsg, data...)
		sendmsg = append(sendmsg, padding...)
	case tgcrypt.Full:
		sendmsg = binary.LittleEndian.AppendUint32(sendmsg, uint32(len(data)+12))
		sendmsg = binary.LittleEndian.AppendUint32(sendmsg, s.writeSeq)
		sendmsg = append(sendmsg, data...)
		sendmsg = binary.LittleEndian.AppendUint32(sendmsg, crc32.ChecksumIEEE(sendmsg))
		s.writeSeq++
	default:
		return errors.Errorf("unsupported protocol: %x", s.sock.Protocol())
	}
	_, err = s.sock.Write(sendmsg)
	return
}

func lengthWord(n int, opts WriteOptions) uint32 {
	l := uint32(n)
	if opts.QuickAck {
		l |= 0x80000000
	}
	return l
}

// trimPadding drops random padded-intermediate tail bytes, which are never
// part of an encrypted or plain message.
func trimPadding(b []byte) []byte {
	if len(b) < 20 {
		// shorter than any message, an error code
		if len(b) > 4 {
			return b[:4]
		}
		return b
	}
	if binary.LittleEndian.Uint64(b[:8]) == 0 {
		// plain message: auth_key_id, msg_id, length
		n := int(binary.LittleEndian.Uint32(b[16:20]))
		if 20+n <= len(b) {
			return b[:20+n]
		}
		return b
	}
	if len(b) < 24 {
		return b
	}
	return b[:24+(len(b)-24)/16*16]
}
