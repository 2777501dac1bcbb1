package tgcrypt

import (
	"bytes"
	"io"

	"github.com/go-faster/errors"
)

const NonceSize = 64

// Nonce opens an obfuscated2 connection.
type Nonce [NonceSize]byte

// a nonce must not look like any plain protocol the server also accepts
var wrongNonceStarters = [...][]byte{
	{0xef},                   // abridged header
	{0x48, 0x45, 0x41, 0x44}, //HEAD
	{0x50, 0x4f, 0x53, 0x54}, //POST
	{0x47, 0x45, 0x54, 0x20}, //GET
	{0x4f, 0x50, 0x54, 0x49}, //OPTI
	{0x16, 0x03, 0x01, 0x02}, //FakeTLS
	{0xdd, 0xdd, 0xdd, 0xdd}, // padded intermediate header
	{0xee, 0xee, 0xee, 0xee}, // intermediate header
}

func IsWrongNonce(nonce Nonce) bool {
	for _, s := range wrongNonceStarters {
		if bytes.Equal(nonce[:len(s)], s) {
			return true
		}
	}
	return bytes.Equal(nonce[4:8], []byte{0, 0, 0, 0})
}

// reversed key and iv part of the nonce, used for the server-to-client stream
func reverseNonce(n Nonce) (r [48]byte) {
	k := 0
	for i := 55; i >= 8; i-- {
		r[k] = n[i]
		k++
	}
	return
}

func genNonce(rand io.Reader) (n Nonce, err error) {
	for {
		if _, err = io.ReadFull(rand, n[:]); err != nil {
			return n, errors.Wrap(err, "nonce")
		}
		if !IsWrongNonce(n) {
			return n, nil
		}
	}
}
