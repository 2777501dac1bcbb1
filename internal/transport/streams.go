package transport

import (
	"io"
	"sync"

	"github.com/go-faster/errors"

	"github.com/geovex/tgsession/internal/tgcrypt"
)

type dataStream interface {
	io.ReadWriteCloser
	// Initiate sends the connection header once
	Initiate() error
	Protocol() uint8
}

type rawStream struct {
	r, w     sync.Mutex
	protocol uint8
	stream   io.ReadWriteCloser
}

func newRawStream(stream io.ReadWriteCloser, protocol uint8) *rawStream {
	return &rawStream{
		stream:   stream,
		protocol: protocol,
	}
}

func (s *rawStream) Initiate() error {
	s.w.Lock()
	defer s.w.Unlock()
	var header []byte
	switch s.protocol {
	case tgcrypt.Abridged:
		header = []byte{tgcrypt.Abridged}
	case tgcrypt.Intermediate:
		header = []byte{tgcrypt.Intermediate, tgcrypt.Intermediate, tgcrypt.Intermediate, tgcrypt.Intermediate}
	case tgcrypt.Padded:
		header = []byte{tgcrypt.Padded, tgcrypt.Padded, tgcrypt.Padded, tgcrypt.Padded}
	case tgcrypt.Full:
		return nil
	default:
		return errors.Errorf("unknown protocol: %d", s.protocol)
	}
	_, err := s.stream.Write(header)
	return err
}

func (s *rawStream) Protocol() uint8 {
	return s.protocol
}

func (s *rawStream) Read(p []byte) (n int, err error) {
	s.r.Lock()
	defer s.r.Unlock()
	return s.stream.Read(p)
}

func (s *rawStream) Write(p []byte) (n int, err error) {
	s.w.Lock()
	defer s.w.Unlock()
	return s.stream.Write(p)
}

func (s *rawStream) Close() error {
	return s.stream.Close()
}

// obfuscatedStream sends the obfuscated2 nonce on Initiate and applies the
// CTR streams to everything after it.
type obfuscatedStream struct {
	r, w     sync.Mutex
	stream   io.ReadWriteCloser
	nonce    *tgcrypt.Nonce
	protocol uint8
	obf      tgcrypt.Obfuscator
}

func newObfuscatedStream(stream io.ReadWriteCloser, ctx *tgcrypt.Obfuscated2) *obfuscatedStream {
	nonce := ctx.Nonce
	return &obfuscatedStream{
		stream:   stream,
		nonce:    &nonce,
		protocol: ctx.Protocol,
		obf:      ctx,
	}
}

func (s *obfuscatedStream) Initiate() error {
	s.w.Lock()
	defer s.w.Unlock()
	if s.nonce == nil {
		return nil
	}
	_, err := s.stream.Write(s.nonce[:])
	s.nonce = nil
	return err
}

func (s *obfuscatedStream) Protocol() uint8 {
	return s.protocol
}

func (s *obfuscatedStream) Read(p []byte) (n int, err error) {
	s.r.Lock()
	defer s.r.Unlock()
	n, err = s.stream.Read(p)
	s.obf.DecryptNext(p[:n])
	return
}

func (s *obfuscatedStream) Write(p []byte) (n int, err error) {
	s.w.Lock()
	defer s.w.Unlock()
	buf := make([]byte, len(p))
	copy(buf, p)
	s.obf.EncryptNext(buf)
	return s.stream.Write(buf)
}

func (s *obfuscatedStream) Close() error {
	return s.stream.Close()
}
