package dc

import (
	"sync"

	"github.com/geovex/tgsession/internal/tgcrypt"
)

// KeySet is the set of server RSA keys known to the client.
type KeySet struct {
	lock sync.RWMutex
	keys []*tgcrypt.RSAKey
}

func NewKeySet(keys ...*tgcrypt.RSAKey) *KeySet {
	return &KeySet{keys: keys}
}

func (s *KeySet) Set(keys []*tgcrypt.RSAKey) {
	s.lock.Lock()
	s.keys = append([]*tgcrypt.RSAKey(nil), keys...)
	s.lock.Unlock()
}

// Get returns the first known key whose fingerprint the server offered.
func (s *KeySet) Get(fingerprints []int64) (*tgcrypt.RSAKey, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	for _, f := range fingerprints {
		for _, k := range s.keys {
			if k.Fingerprint == f {
				return k, true
			}
		}
	}
	return nil, false
}

func (s *KeySet) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.keys)
}
