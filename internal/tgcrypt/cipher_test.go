package tgcrypt

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"
)

func TestCipherRoundTrip(t *testing.T) {
	k := seqKey(t)
	cli := NewClientCipher(rand.Reader)
	srv := NewServerCipher(rand.Reader)
	for _, size := range []int{0, 1, 2, 4, 15, 16, 100, 1000, 4096} {
		payload := make([]byte, size)
		rand.Read(payload)
		msg := BuildPacket(PacketInfo{Salt: 7, SessionID: 9, MsgID: 12, SeqNo: 1}, payload)
		enc, err := cli.Encrypt(k, msg)
		if err != nil {
			t.Fatal(err)
		}
		if (len(enc)-encryptedHeaderSize)%16 != 0 {
			t.Errorf("ciphertext not aligned: %d", len(enc))
		}
		dec, err := srv.Decrypt(k, enc)
		if err != nil {
			t.Fatalf("size %d: %v", size, err)
		}
		if !bytes.Equal(dec, msg) {
			t.Errorf("size %d: round trip mismatch", size)
		}
		// the other direction
		enc, err = srv.Encrypt(k, msg)
		if err != nil {
			t.Fatal(err)
		}
		dec, err = cli.Decrypt(k, enc)
		if err != nil {
			t.Fatalf("size %d: %v", size, err)
		}
		if !bytes.Equal(dec, msg) {
			t.Errorf("size %d: reverse round trip mismatch", size)
		}
	}
}

func TestCipherWrongDirection(t *testing.T) {
	k := seqKey(t)
	cli := NewClientCipher(rand.Reader)
	enc, err := cli.Encrypt(k, BuildPacket(PacketInfo{}, []byte("data")))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cli.Decrypt(k, enc); err == nil {
		t.Errorf("own packet decrypted as server packet")
	}
}

func TestCipherBitFlip(t *testing.T) {
	k := seqKey(t)
	cli := NewClientCipher(rand.Reader)
	srv := NewServerCipher(rand.Reader)
	enc, err := cli.Encrypt(k, BuildPacket(PacketInfo{MsgID: 4}, []byte("integrity")))
	if err != nil {
		t.Fatal(err)
	}
	for i := 8; i < len(enc); i++ {
		flipped := append([]byte(nil), enc...)
		flipped[i] ^= 0x01
		if _, err := srv.Decrypt(k, flipped); err == nil {
			t.Fatalf("flip at %d not detected", i)
		}
	}
}

func TestCipherRejects(t *testing.T) {
	k := seqKey(t)
	srv := NewServerCipher(rand.Reader)
	if _, err := srv.Decrypt(k, make([]byte, 23)); !errors.Is(err, ErrEncryptedTooShort) {
		t.Errorf("expected ErrEncryptedTooShort, got %v", err)
	}
	enc, err := NewClientCipher(rand.Reader).Encrypt(k, BuildPacket(PacketInfo{}, nil))
	if err != nil {
		t.Fatal(err)
	}
	other, _ := NewAuthKey(make([]byte, AuthKeySize))
	if _, err := srv.Decrypt(&other, enc); !errors.Is(err, ErrKeyIDMismatch) {
		t.Errorf("expected ErrKeyIDMismatch, got %v", err)
	}
	if _, err := srv.Decrypt(k, enc[:len(enc)-1]); !errors.Is(err, ErrBlockAlignment) {
		t.Errorf("expected ErrBlockAlignment, got %v", err)
	}
	if _, err := NewClientCipher(rand.Reader).Encrypt(k, []byte("short")); !errors.Is(err, ErrPacketTooShort) {
		t.Errorf("expected ErrPacketTooShort, got %v", err)
	}
}
