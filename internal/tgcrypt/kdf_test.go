package tgcrypt

import (
	"encoding/hex"
	"testing"
)

func seqKey(t *testing.T) *AuthKey {
	t.Helper()
	b := make([]byte, AuthKeySize)
	for i := range b {
		b[i] = byte(i)
	}
	k, err := NewAuthKey(b)
	if err != nil {
		t.Fatal(err)
	}
	return &k
}

func seqMsgKey() (m MsgKey) {
	for i := range m {
		m[i] = byte(i)
	}
	return
}

func TestDeriveKeyAndIVZeroKey(t *testing.T) {
	k, err := NewAuthKey(make([]byte, AuthKeySize))
	if err != nil {
		t.Fatal(err)
	}
	key, iv := DeriveKeyAndIV(&k, seqMsgKey(), Client)
	if got := hex.EncodeToString(key[:]); got != "c1b58fc82f63ee9c089eb689f07f56e5d2b8a8afe35e0ad071a93d1cf4bad319" {
		t.Errorf("wrong aes key %s", got)
	}
	if got := hex.EncodeToString(iv[:]); got != "fe32319c637f9449f912ae503c604aedf13fdbd7b9d5ddb98be3a66e394e55c4" {
		t.Errorf("wrong aes iv %s", got)
	}
}

func TestDeriveKeyAndIVSides(t *testing.T) {
	k := seqKey(t)
	for _, tc := range []struct {
		side    Side
		key, iv string
	}{
		{Client, "704ed09c8b41668ae8f99d244738f71dbddc44469b6bbd4aa8573dd042bd059e", "4d266000a550edabbf4c7ce40fd0043cc92230184cd317a5cc9c2482fd3b9318"},
		{Server, "217725799b245806458174a1fcfbc883906807b15033fdd0ea2b4d69cf9c364e", "669a6538917a4fa56ca32360a431c9160be4ad887140980dab91ce7bdc47ffbc"},
	} {
		key, iv := DeriveKeyAndIV(k, seqMsgKey(), tc.side)
		if hex.EncodeToString(key[:]) != tc.key {
			t.Errorf("%s: wrong aes key %x", tc.side, key)
		}
		if hex.EncodeToString(iv[:]) != tc.iv {
			t.Errorf("%s: wrong aes iv %x", tc.side, iv)
		}
		key2, iv2 := DeriveKeyAndIV(k, seqMsgKey(), tc.side)
		if key != key2 || iv != iv2 {
			t.Errorf("%s: derivation is not deterministic", tc.side)
		}
	}
}

func TestMessageKey(t *testing.T) {
	k := seqKey(t)
	m := MessageKey(k, []byte("hello world, pad"), Client)
	if got := hex.EncodeToString(m[:]); got != "d7142fbd0cc649040658cebc327eff89" {
		t.Errorf("wrong msg key %s", got)
	}
}

func TestAuthKeyID(t *testing.T) {
	k := seqKey(t)
	if k.ID != 0xc8df57a46e58d132 {
		t.Errorf("wrong key id %x", k.ID)
	}
	z, _ := NewAuthKey(make([]byte, AuthKeySize))
	if z.ID != 0x919b0d57fd0b08b1 {
		t.Errorf("wrong zero key id %x", z.ID)
	}
	if _, err := NewAuthKey(make([]byte, 255)); err == nil {
		t.Errorf("short key accepted")
	}
}
