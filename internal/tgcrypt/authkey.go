package tgcrypt

import (
	"crypto/sha1"
	"encoding/binary"

	"github.com/go-faster/errors"
)

const AuthKeySize = 256

// AuthKey is a negotiated 2048-bit session secret together with its id.
type AuthKey struct {
	Value [AuthKeySize]byte
	ID    uint64
}

var ErrAuthKeySize = errors.New("auth key must be 256 bytes")

func NewAuthKey(b []byte) (k AuthKey, err error) {
	if len(b) != AuthKeySize {
		return k, errors.Wrapf(ErrAuthKeySize, "got %d", len(b))
	}
	copy(k.Value[:], b)
	k.ID = keyID(k.Value[:])
	return k, nil
}

// IDBytes is the little-endian wire form of the key id.
func (k AuthKey) IDBytes() (b [8]byte) {
	binary.LittleEndian.PutUint64(b[:], k.ID)
	return
}

func (k AuthKey) Zero() bool {
	return k == AuthKey{}
}

// keyID is the lower 64 bits of SHA1(key).
func keyID(key []byte) uint64 {
	h := sha1.Sum(key)
	return binary.LittleEndian.Uint64(h[12:20])
}
