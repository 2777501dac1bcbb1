package config

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-faster/errors"

	"github.com/geovex/tgsession/internal/tgcrypt"
)

func ReadConfig(path string) (*Config, error) {
	var c parsedConfig
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return nil, err
	}
	return configFromParsed(&c, &md)
}

func DefaultConfig() *Config {
	var c parsedConfig
	md, err := toml.Decode(defaultConfigData, &c)
	if err != nil {
		panic(err)
	}
	result, err := configFromParsed(&c, &md)
	if err != nil {
		panic(err)
	}
	return result
}

func configFromParsed(parsed *parsedConfig, md *toml.MetaData) (*Config, error) {
	if err := checkSocksValues(parsed.Socks5_user, parsed.Socks5_pass); err != nil {
		return nil, err
	}
	c := &Config{
		dc:             2,
		protocol:       tgcrypt.Intermediate,
		logLevel:       "info",
		maxFailedPings: 3,
		socks5:         parsed.Socks5,
		socks5_user:    parsed.Socks5_user,
		socks5_pass:    parsed.Socks5_pass,
		statsListen:    parsed.Stats_Listen,
		rsaKeys:        parsed.Rsa_Keys,
		dcOptions:      map[int][]string{},
	}
	if parsed.Dc != nil {
		c.dc = *parsed.Dc
	}
	if parsed.Test_Mode != nil {
		c.testMode = *parsed.Test_Mode
	}
	if parsed.Protocol != nil {
		p, err := parseProtocol(*parsed.Protocol)
		if err != nil {
			return nil, err
		}
		c.protocol = p
	}
	if parsed.Obfuscate != nil {
		c.obfuscate = *parsed.Obfuscate
	}
	if c.obfuscate && c.protocol == tgcrypt.Full {
		return nil, errors.New("full transport can't be obfuscated")
	}
	if parsed.AllowIPv6 != nil {
		c.allowIPv6 = *parsed.AllowIPv6
	}
	if parsed.Auth_Key != nil {
		if err := c.setAuthKey(*parsed.Auth_Key); err != nil {
			return nil, err
		}
	}
	if parsed.Server_Salt != nil {
		c.serverSalt = uint64(*parsed.Server_Salt)
	}
	if parsed.Log_Level != nil {
		c.logLevel = *parsed.Log_Level
	}
	if parsed.Max_Failed_Pings != nil {
		c.maxFailedPings = *parsed.Max_Failed_Pings
	}
	for _, d := range []struct {
		name  string
		value *string
		dst   *time.Duration
	}{
		{"query_timeout", parsed.Query_Timeout, &c.queryTimeout},
		{"read_timeout", parsed.Read_Timeout, &c.readTimeout},
		{"handshake_timeout", parsed.Handshake_Timeout, &c.handshakeTimeout},
		{"ping_interval", parsed.Ping_Interval, &c.pingInterval},
		{"ping_timeout", parsed.Ping_Timeout, &c.pingTimeout},
	} {
		if d.value == nil {
			continue
		}
		v, err := time.ParseDuration(*d.value)
		if err != nil {
			return nil, errors.Wrap(err, d.name)
		}
		*d.dst = v
	}
	for key, data := range parsed.Dc_Options {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, errors.Errorf("dc_options: bad dc id %q", key)
		}
		// dc defined by one address or by a list of them
		switch utype := md.Type("dc_options", key); utype {
		case "String":
			var addr string
			if err := md.PrimitiveDecode(data, &addr); err != nil {
				return nil, err
			}
			c.dcOptions[id] = []string{addr}
		case "Array":
			var addrs []string
			if err := md.PrimitiveDecode(data, &addrs); err != nil {
				return nil, err
			}
			c.dcOptions[id] = addrs
		default:
			return nil, errors.Errorf("unknown type for dc %s: %s", key, utype)
		}
	}
	return c, nil
}

func parseProtocol(name string) (byte, error) {
	switch strings.ToLower(name) {
	case "abridged":
		return tgcrypt.Abridged, nil
	case "intermediate":
		return tgcrypt.Intermediate, nil
	case "padded":
		return tgcrypt.Padded, nil
	case "full":
		return tgcrypt.Full, nil
	default:
		return 0, errors.Errorf("unknown protocol %q", name)
	}
}

func (c *Config) setAuthKey(s string) error {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return errors.Wrap(err, "auth_key")
	}
	if len(key) != tgcrypt.AuthKeySize {
		return errors.Wrapf(tgcrypt.ErrAuthKeySize, "auth_key has %d bytes", len(key))
	}
	c.authKey = key
	return nil
}

// ApplyEnv overrides secrets from the environment. lookup is usually
// os.LookupEnv after godotenv has loaded a .env file.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAuthKey); ok && v != "" {
		if err := c.setAuthKey(v); err != nil {
			return errors.Wrap(err, EnvAuthKey)
		}
	}
	if v, ok := lookup(EnvSocks5Pass); ok {
		if err := checkSocksValues(c.socks5_user, &v); err != nil {
			return errors.Wrap(err, EnvSocks5Pass)
		}
		c.socks5_pass = &v
	}
	return nil
}

func checkSocksValues(user *string, pass *string) error {
	if (user == nil && pass != nil) ||
		(user != nil && pass == nil) {
		return errors.New("both socks5_pass and socks5_user must be specified")
	}
	if (user != nil) && (*user == "") ||
		(pass != nil) && (*pass == "") {
		return errors.New("socks user or password can't have zero length (https://github.com/golang/go/issues/57285)")
	}
	return nil
}
