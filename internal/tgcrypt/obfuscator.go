package tgcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"io"

	"github.com/go-faster/errors"
)

type Obfuscator interface {
	DecryptNext(buf []byte)
	EncryptNext(buf []byte)
}

// Obfuscated2 is the client side of an obfuscated2 connection to a DC.
type Obfuscated2 struct {
	// Nonce is sent once before any framed data
	Nonce    Nonce
	Protocol uint8
	writer   cipher.Stream
	reader   cipher.Stream
}

// NewObfuscated2 builds a random nonce carrying the protocol tag and dc id
// and the CTR streams derived from it.
func NewObfuscated2(rand io.Reader, dc int16, protocol byte) (*Obfuscated2, error) {
	header, err := genNonce(rand)
	if err != nil {
		return nil, err
	}
	header[56] = protocol
	header[57] = protocol
	header[58] = protocol
	header[59] = protocol
	binary.LittleEndian.PutUint16(header[60:62], uint16(dc))
	reversed := reverseNonce(header)
	writer, err := newAesStream(header[8:40], header[40:56])
	if err != nil {
		return nil, err
	}
	reader, err := newAesStream(reversed[:32], reversed[32:48])
	if err != nil {
		return nil, err
	}
	var nonce Nonce
	writer.XORKeyStream(nonce[:], header[:])
	// only the tail is sent encrypted
	copy(nonce[:56], header[:56])
	return &Obfuscated2{
		Nonce:    nonce,
		Protocol: protocol,
		writer:   writer,
		reader:   reader,
	}, nil
}

func (o *Obfuscated2) DecryptNext(buf []byte) {
	o.reader.XORKeyStream(buf, buf)
}

func (o *Obfuscated2) EncryptNext(buf []byte) {
	o.writer.XORKeyStream(buf, buf)
}

func newAesStream(key []byte, iv []byte) (cipher.Stream, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "aes")
	}
	return cipher.NewCTR(block, iv), nil
}
