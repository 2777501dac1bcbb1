package tgcrypt

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"testing"
)

func TestObfuscated2Nonce(t *testing.T) {
	for i := 0; i < 32; i++ {
		o, err := NewObfuscated2(rand.Reader, -2, Intermediate)
		if err != nil {
			t.Fatal(err)
		}
		if IsWrongNonce(o.Nonce) {
			t.Fatalf("generated nonce %x is not valid", o.Nonce[:8])
		}
	}
}

func TestObfuscated2ServerView(t *testing.T) {
	o, err := NewObfuscated2(rand.Reader, 4, Padded)
	if err != nil {
		t.Fatal(err)
	}
	// server decrypts the nonce with keys taken from its plain part
	fromClient, _ := newAesStream(o.Nonce[8:40], o.Nonce[40:56])
	var header Nonce
	fromClient.XORKeyStream(header[:], o.Nonce[:])
	if !bytes.Equal(header[56:60], []byte{Padded, Padded, Padded, Padded}) {
		t.Errorf("wrong protocol tag %x", header[56:60])
	}
	if dc := int16(binary.LittleEndian.Uint16(header[60:62])); dc != 4 {
		t.Errorf("wrong dc %d", dc)
	}

	msg := []byte("client to server")
	buf := append([]byte(nil), msg...)
	o.EncryptNext(buf)
	fromClient.XORKeyStream(buf, buf)
	if !bytes.Equal(buf, msg) {
		t.Errorf("server decoded %q", buf)
	}

	reversed := reverseNonce(o.Nonce)
	toClient, _ := newAesStream(reversed[:32], reversed[32:48])
	reply := []byte("server to client")
	buf = append([]byte(nil), reply...)
	toClient.XORKeyStream(buf, buf)
	o.DecryptNext(buf)
	if !bytes.Equal(buf, reply) {
		t.Errorf("client decoded %q", buf)
	}
}
