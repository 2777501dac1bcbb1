// Package handshake drives an external key exchange state machine over a
// transport until it yields a session secret.
package handshake

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/geovex/tgsession/internal/tgcrypt"
	"github.com/geovex/tgsession/internal/transport"
)

type ActionKind uint8

const (
	ActionSend ActionKind = iota + 1
	ActionWait
	ActionComplete
)

func (k ActionKind) String() string {
	switch k {
	case ActionSend:
		return "send"
	case ActionWait:
		return "wait"
	case ActionComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Action is the next step requested by a Handshaker.
type Action struct {
	Kind ActionKind
	// Packet is an unencrypted packet for ActionSend
	Packet []byte
	// Key and Salt are set for ActionComplete
	Key  []byte
	Salt uint64
}

func Send(packet []byte) Action { return Action{Kind: ActionSend, Packet: packet} }

func Wait() Action { return Action{Kind: ActionWait} }

func Complete(key []byte, salt uint64) Action {
	return Action{Kind: ActionComplete, Key: key, Salt: salt}
}

// Handshaker is the key exchange state machine.
type Handshaker interface {
	Start() Action
	OnMessage(data []byte) (Action, error)
}

type Result struct {
	Key  tgcrypt.AuthKey
	Salt uint64
}

var ErrUnexpectedAction = errors.New("unexpected handshake action")

type Orchestrator struct {
	// ReadTimeout bounds every wait for a server packet
	ReadTimeout time.Duration
	Logger      *zap.Logger
}

// Run performs the exchange. It returns on completion, on a fatal handshake
// error, on any transport error and when ctx is done.
func (o Orchestrator) Run(ctx context.Context, h Handshaker, r transport.Reader, w transport.Writer) (Result, error) {
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}
	first := h.Start()
	if first.Kind != ActionSend {
		return Result{}, errors.Wrapf(ErrUnexpectedAction, "start returned %s", first.Kind)
	}
	if err := w.WritePacket(first.Packet, transport.WriteOptions{}); err != nil {
		return Result{}, errors.Wrap(err, "send first packet")
	}
	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		p, err := r.ReadPacket(o.ReadTimeout)
		if err != nil {
			return Result{}, errors.Wrap(err, "read")
		}
		if p.Kind != transport.KindData {
			continue
		}
		action, err := h.OnMessage(p.Data)
		if err != nil {
			if Fatal(err) {
				return Result{}, errors.Wrap(err, "handshake")
			}
			log.Warn("Handshake message rejected", zap.Error(err))
			continue
		}
		switch action.Kind {
		case ActionSend:
			if err := w.WritePacket(action.Packet, transport.WriteOptions{}); err != nil {
				return Result{}, errors.Wrap(err, "send")
			}
		case ActionWait:
		case ActionComplete:
			key, err := tgcrypt.NewAuthKey(action.Key)
			if err != nil {
				return Result{}, errors.Wrap(err, "handshake result")
			}
			log.Info("Handshake complete", zap.Uint64("key_id", key.ID))
			return Result{Key: key, Salt: action.Salt}, nil
		default:
			return Result{}, errors.Wrapf(ErrUnexpectedAction, "%d", action.Kind)
		}
	}
}
