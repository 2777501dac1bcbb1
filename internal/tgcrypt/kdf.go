package tgcrypt

import "crypto/sha256"

// Side selects the key offset x of MTProto 2.0: 0 for messages sent by the
// client, 8 for messages sent by the server.
type Side int

const (
	Client Side = 0
	Server Side = 8
)

func (s Side) other() Side {
	if s == Client {
		return Server
	}
	return Client
}

func (s Side) String() string {
	if s == Client {
		return "client"
	}
	return "server"
}

const MsgKeySize = 16

type MsgKey [MsgKeySize]byte

// DeriveKeyAndIV computes AES-256 key and IGE iv for a message key.
func DeriveKeyAndIV(k *AuthKey, msgKey MsgKey, side Side) (key, iv [32]byte) {
	x := int(side)
	h := sha256.New()
	h.Write(msgKey[:])
	h.Write(k.Value[x : x+36])
	var a [32]byte
	h.Sum(a[:0])

	h.Reset()
	h.Write(k.Value[40+x : 76+x])
	h.Write(msgKey[:])
	var b [32]byte
	h.Sum(b[:0])

	copy(key[0:8], a[0:8])
	copy(key[8:24], b[8:24])
	copy(key[24:32], a[24:32])

	copy(iv[0:8], b[0:8])
	copy(iv[8:24], a[8:24])
	copy(iv[24:32], b[24:32])
	return
}

// MessageKey returns the middle 128 bits of SHA256 over the key fragment and
// the padded plaintext.
func MessageKey(k *AuthKey, plaintext []byte, side Side) (m MsgKey) {
	x := int(side)
	h := sha256.New()
	h.Write(k.Value[88+x : 120+x])
	h.Write(plaintext)
	var sum [32]byte
	h.Sum(sum[:0])
	copy(m[:], sum[8:24])
	return
}
