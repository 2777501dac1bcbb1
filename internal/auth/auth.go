// Package auth holds the session secret shared between a connection and the
// key exchange that produces it.
package auth

import (
	"sync"

	"github.com/go-faster/errors"

	"github.com/geovex/tgsession/internal/tgcrypt"
)

type State uint8

const (
	Empty State = iota
	Handshaking
	Ready
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Handshaking:
		return "handshaking"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

var ErrNotReady = errors.New("auth key is not ready")

// Data is the auth secret with salt and sequence counters.
type Data struct {
	lock  sync.RWMutex
	key   tgcrypt.AuthKey
	state State
	salt  uint64
	// content messages sent and received in this session
	sent     int32
	received int32
}

func New() *Data {
	return &Data{}
}

// NewReady wraps an already negotiated key.
func NewReady(key tgcrypt.AuthKey, salt uint64) *Data {
	return &Data{key: key, salt: salt, state: Ready}
}

func (d *Data) State() State {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.state
}

func (d *Data) SetState(s State) {
	d.lock.Lock()
	d.state = s
	d.lock.Unlock()
}

// Key returns the secret only when it is ready for use.
func (d *Data) Key() (tgcrypt.AuthKey, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	if d.state != Ready {
		return tgcrypt.AuthKey{}, ErrNotReady
	}
	return d.key, nil
}

// SetKey installs a negotiated key and marks it ready.
func (d *Data) SetKey(key tgcrypt.AuthKey, salt uint64) {
	d.lock.Lock()
	d.key = key
	d.salt = salt
	d.state = Ready
	d.sent = 0
	d.received = 0
	d.lock.Unlock()
}

func (d *Data) Salt() uint64 {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.salt
}

func (d *Data) SetSalt(salt uint64) {
	d.lock.Lock()
	d.salt = salt
	d.lock.Unlock()
}

// NextSeqNo returns 2n+1 and advances n for content messages, 2n otherwise.
func (d *Data) NextSeqNo(contentRelated bool) int32 {
	d.lock.Lock()
	defer d.lock.Unlock()
	if !contentRelated {
		return d.sent * 2
	}
	seq := d.sent*2 + 1
	d.sent++
	return seq
}

// ObserveIncoming counts content messages received from the server.
func (d *Data) ObserveIncoming(seqNo int32) {
	if seqNo&1 == 0 {
		return
	}
	d.lock.Lock()
	d.received++
	d.lock.Unlock()
}

func (d *Data) Received() int32 {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.received
}

// ResetSeqNo restarts both counters, used when the server opens a new session.
func (d *Data) ResetSeqNo() {
	d.lock.Lock()
	d.sent = 0
	d.received = 0
	d.lock.Unlock()
}

// Clear drops the key, used when the server no longer knows it.
func (d *Data) Clear() {
	d.lock.Lock()
	d.key = tgcrypt.AuthKey{}
	d.state = Empty
	d.salt = 0
	d.sent = 0
	d.received = 0
	d.lock.Unlock()
}
