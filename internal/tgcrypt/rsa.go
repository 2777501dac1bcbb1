package tgcrypt

import (
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/binary"
	"encoding/pem"
	"math/big"

	"github.com/go-faster/errors"
	"github.com/gotd/td/bin"
)

// RSAKey is a server public key used by the key exchange.
type RSAKey struct {
	Key         *rsa.PublicKey
	Fingerprint int64
}

func NewRSAKey(k *rsa.PublicKey) *RSAKey {
	return &RSAKey{Key: k, Fingerprint: RSAFingerprint(k)}
}

// ParseRSAKey decodes a PEM block holding a PKCS#1 or PKIX public key.
func ParseRSAKey(data []byte) (*RSAKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no pem block found")
	}
	switch block.Type {
	case "RSA PUBLIC KEY":
		k, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, errors.Wrap(err, "pkcs1")
		}
		return NewRSAKey(k), nil
	case "PUBLIC KEY":
		k, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, errors.Wrap(err, "pkix")
		}
		rk, ok := k.(*rsa.PublicKey)
		if !ok {
			return nil, errors.Errorf("unexpected key type %T", k)
		}
		return NewRSAKey(rk), nil
	default:
		return nil, errors.Errorf("unexpected pem type %q", block.Type)
	}
}

// RSAFingerprint is the lower 64 bits of SHA1 over TL-serialized n and e.
func RSAFingerprint(k *rsa.PublicKey) int64 {
	var b bin.Buffer
	b.PutBytes(k.N.Bytes())
	b.PutBytes(big.NewInt(int64(k.E)).Bytes())
	h := sha1.Sum(b.Buf)
	return int64(binary.LittleEndian.Uint64(h[12:20]))
}
