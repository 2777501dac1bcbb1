package dc

import (
	"errors"
	"testing"

	"github.com/geovex/tgsession/internal/tgcrypt"
)

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions(false)
	opt, err := o.Get(2)
	if err != nil {
		t.Fatal(err)
	}
	if opt.ID != 2 {
		t.Errorf("wrong dc %d", opt.ID)
	}
	c := o.Candidates(2, false)
	if len(c) != 2 {
		t.Fatalf("expected 2 ipv4 candidates, got %v", c)
	}
	for _, opt := range c {
		if opt.IPv6 {
			t.Errorf("ipv6 candidate %s returned", opt)
		}
	}
	if len(o.Candidates(-2, true)) != 3 {
		t.Errorf("media dc id not normalized")
	}
	if _, err := o.Get(9); !errors.Is(err, ErrUnknownDC) {
		t.Errorf("expected ErrUnknownDC, got %v", err)
	}
}

func TestSetOptions(t *testing.T) {
	o := DefaultOptions(true)
	a, err := NewOption(7, "[::1]:443")
	if err != nil {
		t.Fatal(err)
	}
	if !a.IPv6 {
		t.Errorf("ipv6 not detected for %s", a)
	}
	b, _ := NewOption(7, "127.0.0.1:443")
	b.MediaOnly = true
	o.Set([]Option{a, b})
	if _, err := o.Get(2); err == nil {
		t.Errorf("old options survived Set")
	}
	if ids := o.IDs(); len(ids) != 1 || ids[0] != 7 {
		t.Errorf("wrong ids %v", ids)
	}
	if got := o.Candidates(7, true); len(got) != 1 || got[0].Addr != "[::1]:443" {
		t.Errorf("wrong candidates %v", got)
	}
	media, err := NewOption(-4, "127.0.0.2:443")
	if err != nil || media.ID != 4 || !media.MediaOnly {
		t.Errorf("media option %+v %v", media, err)
	}
	if _, err := NewOption(1, "nohost"); err == nil {
		t.Errorf("address without port accepted")
	}
}

func TestKeySet(t *testing.T) {
	k1 := &tgcrypt.RSAKey{Fingerprint: 1}
	k2 := &tgcrypt.RSAKey{Fingerprint: 2}
	s := NewKeySet(k1)
	s.Set([]*tgcrypt.RSAKey{k1, k2})
	k, ok := s.Get([]int64{5, 2, 1})
	if !ok || k != k2 {
		t.Errorf("expected key 2, got %v", k)
	}
	if _, ok := s.Get([]int64{3}); ok {
		t.Errorf("unknown fingerprint matched")
	}
	if s.Len() != 2 {
		t.Errorf("wrong len %d", s.Len())
	}
}
