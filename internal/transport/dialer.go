package transport

import (
	"context"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/net/proxy"
)

// Dialer opens raw connections to datacenters.
type Dialer interface {
	DialContext(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewDirectDialer dials without a proxy.
func NewDirectDialer(timeout time.Duration) Dialer {
	return &net.Dialer{Timeout: timeout}
}

type SocksConfig struct {
	Addr string
	User *string
	Pass *string
}

// NewSocksDialer dials through a SOCKS5 proxy.
func NewSocksDialer(s SocksConfig) (Dialer, error) {
	var auth *proxy.Auth
	if s.User != nil && s.Pass != nil {
		auth = &proxy.Auth{
			User:     *s.User,
			Password: *s.Pass,
		}
	}
	d, err := proxy.SOCKS5("tcp", s.Addr, auth, proxy.Direct)
	if err != nil {
		return nil, errors.Wrap(err, "socks5")
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, errors.New("socks5 dialer does not support context")
	}
	return cd, nil
}

func setNoDelay(c net.Conn) {
	if sock, ok := c.(*net.TCPConn); ok {
		_ = sock.SetNoDelay(true)
	}
}

// RetryPolicy bounds connection attempts across address candidates.
type RetryPolicy struct {
	MaxAttempts     uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// ConnectAny connects t to the first reachable address. Every attempt walks
// all candidates; attempts are spaced with exponential backoff.
func ConnectAny(ctx context.Context, t Transport, addrs []string, policy RetryPolicy, log *zap.Logger) (string, error) {
	if len(addrs) == 0 {
		return "", errors.New("no addresses to connect")
	}
	if log == nil {
		log = zap.NewNop()
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.InitialInterval
	b.MaxInterval = policy.MaxInterval
	var bo backoff.BackOff = b
	if policy.MaxAttempts > 0 {
		bo = backoff.WithMaxRetries(bo, policy.MaxAttempts-1)
	}
	var connected string
	err := backoff.Retry(func() error {
		var lastErr error
		for _, addr := range addrs {
			if err := ctx.Err(); err != nil {
				return backoff.Permanent(err)
			}
			err := t.Connect(ctx, addr)
			if err == nil {
				connected = addr
				return nil
			}
			log.Debug("Connect failed", zap.String("addr", addr), zap.Error(err))
			lastErr = err
		}
		return lastErr
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return "", errors.Wrap(err, "connect")
	}
	return connected, nil
}
