package tgcrypt

import (
	"crypto/aes"

	"github.com/go-faster/errors"
	"github.com/gotd/ige"
)

var ErrBlockAlignment = errors.New("data is not aligned to aes block size")

func encryptIGE(key, iv [32]byte, src []byte) ([]byte, error) {
	if len(src)%aes.BlockSize != 0 {
		return nil, ErrBlockAlignment
	}
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, errors.Wrap(err, "aes")
	}
	dst := make([]byte, len(src))
	ige.NewIGEEncrypter(block, iv[:]).CryptBlocks(dst, src)
	return dst, nil
}

func decryptIGE(key, iv [32]byte, src []byte) ([]byte, error) {
	if len(src)%aes.BlockSize != 0 {
		return nil, ErrBlockAlignment
	}
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, errors.Wrap(err, "aes")
	}
	dst := make([]byte, len(src))
	ige.NewIGEDecrypter(block, iv[:]).CryptBlocks(dst, src)
	return dst, nil
}
