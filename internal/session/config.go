package session

import (
	"crypto/rand"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/geovex/tgsession/internal/dc"
	"github.com/geovex/tgsession/internal/handshake"
	"github.com/geovex/tgsession/internal/ping"
	"github.com/geovex/tgsession/internal/stats"
	"github.com/geovex/tgsession/internal/tgcrypt"
	"github.com/geovex/tgsession/internal/transport"
)

// HandshakerFactory creates a key exchange for the option being connected.
type HandshakerFactory func(opt dc.Option, keys *dc.KeySet) handshake.Handshaker

type Config struct {
	DC        int
	UsePFS    bool
	IsMain    bool
	IsCDN     bool
	AllowIPv6 bool

	// WriteOptions are applied to every outgoing packet
	WriteOptions transport.WriteOptions
	Options      *dc.Options
	Keys         *dc.KeySet
	// Transport creates a fresh transport for every Start
	Transport  func() transport.Transport
	Handshaker HandshakerFactory
	Retry      transport.RetryPolicy

	QueryTimeout time.Duration
	// ReadTimeout is how long the receiver blocks before checking for stop
	ReadTimeout      time.Duration
	HandshakeTimeout time.Duration
	Ping             ping.Config

	// UpdateHandler receives content messages that are not query results
	UpdateHandler func(msgID int64, body []byte)

	EventBuffer int
	Logger      *zap.Logger
	Clock       func() time.Time
	Rand        io.Reader
	Stats       *stats.Stats
}

func (c *Config) setDefaults() {
	if c.Options == nil {
		c.Options = dc.DefaultOptions(false)
	}
	if c.Keys == nil {
		c.Keys = dc.NewKeySet()
	}
	if c.Transport == nil {
		c.Transport = func() transport.Transport {
			return transport.NewTCP(transport.Options{
				Protocol: tgcrypt.Intermediate,
				DC:       int16(c.DC),
				Logger:   c.Logger,
			})
		}
	}
	if c.Retry == (transport.RetryPolicy{}) {
		c.Retry = transport.DefaultRetryPolicy()
	}
	if c.QueryTimeout == 0 {
		c.QueryTimeout = 60 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = time.Second
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = 30 * time.Second
	}
	if c.Ping == (ping.Config{}) {
		c.Ping = ping.DefaultConfig()
	}
	if c.EventBuffer == 0 {
		c.EventBuffer = 64
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.Rand == nil {
		c.Rand = rand.Reader
	}
}
