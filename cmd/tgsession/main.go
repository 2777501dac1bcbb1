package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/geovex/tgsession/internal/auth"
	"github.com/geovex/tgsession/internal/config"
	"github.com/geovex/tgsession/internal/dc"
	"github.com/geovex/tgsession/internal/ping"
	"github.com/geovex/tgsession/internal/session"
	"github.com/geovex/tgsession/internal/stats"
	"github.com/geovex/tgsession/internal/tgcrypt"
	"github.com/geovex/tgsession/internal/transport"
)

type client struct {
	conf  *config.Config
	log   *zap.Logger
	stats *stats.Stats
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	return cfg.Build()
}

func (cl *client) options() (*dc.Options, error) {
	configured := cl.conf.GetDCOptions()
	if len(configured) == 0 {
		return dc.DefaultOptions(cl.conf.GetTestMode()), nil
	}
	var opts []dc.Option
	for id, addrs := range configured {
		for _, addr := range addrs {
			opt, err := dc.NewOption(id, addr)
			if err != nil {
				return nil, err
			}
			opts = append(opts, opt)
		}
	}
	o := dc.NewOptions(opts...)
	cl.log.Info("Using configured dc options", zap.Ints("dc", o.IDs()))
	return o, nil
}

func (cl *client) keys() (*dc.KeySet, error) {
	var keys []*tgcrypt.RSAKey
	for _, data := range cl.conf.GetRSAKeys() {
		k, err := tgcrypt.ParseRSAKey([]byte(data))
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return dc.NewKeySet(keys...), nil
}

func (cl *client) dialer() (transport.Dialer, error) {
	url, user, pass := cl.conf.GetSocks()
	if url == nil {
		return transport.NewDirectDialer(10 * time.Second), nil
	}
	return transport.NewSocksDialer(transport.SocksConfig{Addr: *url, User: user, Pass: pass})
}

func (cl *client) sessionConfig() (session.Config, error) {
	opts, err := cl.options()
	if err != nil {
		return session.Config{}, errors.Wrap(err, "dc options")
	}
	keys, err := cl.keys()
	if err != nil {
		return session.Config{}, errors.Wrap(err, "rsa keys")
	}
	d, err := cl.dialer()
	if err != nil {
		return session.Config{}, err
	}
	pingConf := ping.DefaultConfig()
	if interval, timeout, maxFailed := cl.conf.GetPing(); interval > 0 {
		pingConf.Interval = interval
		pingConf.Timeout = timeout
		pingConf.MaxFailed = maxFailed
	}
	dcID := cl.conf.GetDC()
	return session.Config{
		DC:        dcID,
		IsMain:    true,
		AllowIPv6: cl.conf.GetAllowIPv6(),
		Options:   opts,
		Keys:      keys,
		Transport: func() transport.Transport {
			return transport.NewTCP(transport.Options{
				Protocol:  cl.conf.GetProtocol(),
				Obfuscate: cl.conf.GetObfuscate(),
				DC:        int16(dcID),
				Dialer:    d,
				Logger:    cl.log,
			})
		},
		QueryTimeout:     cl.conf.GetQueryTimeout(),
		ReadTimeout:      cl.conf.GetReadTimeout(),
		HandshakeTimeout: cl.conf.GetHandshakeTimeout(),
		Ping:             pingConf,
		UpdateHandler: func(msgID int64, body []byte) {
			cl.log.Info("Update", zap.Int64("msg_id", msgID), zap.Int("bytes", len(body)))
		},
		Logger: cl.log,
		Stats:  cl.stats,
	}, nil
}

func (cl *client) authData() (*auth.Data, error) {
	raw := cl.conf.GetAuthKey()
	if raw == nil {
		// key exchange math is not part of this client
		return nil, errors.Errorf("auth_key is not set, provide it in config or %s", config.EnvAuthKey)
	}
	key, err := tgcrypt.NewAuthKey(raw)
	if err != nil {
		return nil, err
	}
	cl.log.Info("Using auth key", zap.Uint64("key_id", key.ID))
	return auth.NewReady(key, cl.conf.GetServerSalt()), nil
}

func (cl *client) serveStats() {
	addr := cl.conf.GetStatsListen()
	if addr == nil || *addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              *addr,
		Handler:           cl.stats.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		cl.log.Info("Serving stats", zap.String("addr", *addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cl.log.Error("Stats server failed", zap.Error(err))
		}
	}()
}

func (cl *client) watchEvents(conn *session.Conn) {
	for e := range conn.Events() {
		switch e.Kind {
		case session.EventStateChanged:
			cl.log.Debug("State", zap.Stringer("state", e.State))
		case session.EventAuthKeyChanged:
			cl.log.Info("Auth key state", zap.Stringer("state", e.AuthState))
		case session.EventError:
			cl.log.Warn("Session error", zap.Error(e.Err))
		}
	}
}

func (cl *client) run(ctx context.Context, payload []byte) error {
	cfg, err := cl.sessionConfig()
	if err != nil {
		return err
	}
	data, err := cl.authData()
	if err != nil {
		return err
	}
	conn, err := session.New(cfg, data)
	if err != nil {
		return err
	}
	go cl.watchEvents(conn)
	cl.serveStats()
	if err := conn.Start(ctx); err != nil {
		return errors.Wrap(err, "start")
	}
	defer func() {
		conn.Stop()
		_ = conn.Wait()
	}()
	if payload != nil {
		result, err := conn.Invoke(ctx, payload)
		if err != nil {
			return errors.Wrap(err, "invoke")
		}
		fmt.Println(hex.EncodeToString(result))
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- conn.Wait() }()
	select {
	case <-ctx.Done():
		cl.log.Info("Stopping")
		return nil
	case err := <-done:
		return err
	}
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "env: %v\n", err)
		os.Exit(1)
	}
	var c *config.Config
	if len(os.Args) > 1 {
		var err error
		c, err = config.ReadConfig(os.Args[1])
		if err != nil {
			panic(err)
		}
	} else {
		c = config.DefaultConfig()
	}
	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		panic(err)
	}
	var payload []byte
	if len(os.Args) > 2 {
		var err error
		if payload, err = hex.DecodeString(os.Args[2]); err != nil {
			panic(err)
		}
	}
	log, err := newLogger(c.GetLogLevel())
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cl := &client{conf: c, log: log, stats: stats.New()}
	if err := cl.run(ctx, payload); err != nil {
		log.Error("Session failed", zap.Error(err))
		os.Exit(1)
	}
}
