package tgcrypt

import (
	"crypto/aes"
	"crypto/subtle"
	"encoding/binary"
	"io"

	"github.com/go-faster/errors"
)

const (
	minPadding = 12
	maxPadding = 1024

	// auth key id and message key precede the ciphertext
	encryptedHeaderSize = 8 + MsgKeySize
)

var (
	ErrEncryptedTooShort = errors.New("encrypted packet too short")
	ErrKeyIDMismatch     = errors.New("auth key id mismatch")
	ErrMsgKeyMismatch    = errors.New("msg key mismatch")
	ErrPadding           = errors.New("invalid padding length")
)

// Cipher encrypts messages of one side and decrypts messages of the other.
type Cipher struct {
	rand io.Reader
	side Side
}

func NewClientCipher(rand io.Reader) Cipher {
	return Cipher{rand: rand, side: Client}
}

func NewServerCipher(rand io.Reader) Cipher {
	return Cipher{rand: rand, side: Server}
}

// Encrypt pads a plaintext message and returns
// auth_key_id || msg_key || ige(padded).
func (c Cipher) Encrypt(k *AuthKey, plaintext []byte) ([]byte, error) {
	if len(plaintext) < PacketHeaderSize {
		return nil, errors.Wrapf(ErrPacketTooShort, "%d bytes", len(plaintext))
	}
	padLen := minPadding + (aes.BlockSize-(len(plaintext)+minPadding)%aes.BlockSize)%aes.BlockSize
	padded := make([]byte, len(plaintext)+padLen)
	copy(padded, plaintext)
	if _, err := io.ReadFull(c.rand, padded[len(plaintext):]); err != nil {
		return nil, errors.Wrap(err, "padding")
	}
	msgKey := MessageKey(k, padded, c.side)
	key, iv := DeriveKeyAndIV(k, msgKey, c.side)
	ct, err := encryptIGE(key, iv, padded)
	if err != nil {
		return nil, err
	}
	id := k.IDBytes()
	out := make([]byte, 0, encryptedHeaderSize+len(ct))
	out = append(out, id[:]...)
	out = append(out, msgKey[:]...)
	return append(out, ct...), nil
}

// Decrypt validates and decrypts a packet of the opposite side. The result
// is the plaintext message with padding stripped.
func (c Cipher) Decrypt(k *AuthKey, packet []byte) ([]byte, error) {
	side := c.side.other()
	if len(packet) < encryptedHeaderSize {
		return nil, errors.Wrapf(ErrEncryptedTooShort, "%d bytes", len(packet))
	}
	if id := binary.LittleEndian.Uint64(packet[0:8]); id != k.ID {
		return nil, errors.Wrapf(ErrKeyIDMismatch, "%x", id)
	}
	var msgKey MsgKey
	copy(msgKey[:], packet[8:encryptedHeaderSize])
	ct := packet[encryptedHeaderSize:]
	if len(ct) < PacketHeaderSize+minPadding {
		return nil, errors.Wrapf(ErrEncryptedTooShort, "%d bytes of ciphertext", len(ct))
	}
	key, iv := DeriveKeyAndIV(k, msgKey, side)
	plain, err := decryptIGE(key, iv, ct)
	if err != nil {
		return nil, err
	}
	expected := MessageKey(k, plain, side)
	if subtle.ConstantTimeCompare(expected[:], msgKey[:]) != 1 {
		return nil, ErrMsgKeyMismatch
	}
	n := uint64(binary.LittleEndian.Uint32(plain[28:32]))
	body := uint64(len(plain) - PacketHeaderSize)
	if n > body {
		return nil, errors.Wrapf(ErrPacketLength, "%d > %d", n, body)
	}
	if pad := body - n; pad < minPadding || pad > maxPadding {
		return nil, errors.Wrapf(ErrPadding, "%d", pad)
	}
	return plain[:PacketHeaderSize+n], nil
}
