package config

import (
	"time"

	"github.com/BurntSushi/toml"
)

var defaultConfigData = `
dc = 2
protocol = "intermediate"
#obfuscate = true
allowipv6 = false
#auth_key = "<512 hex digits>"
#socks5 = "127.0.0.1:9050"
#socks5_user = "test"
#socks5_pass = "test"
stats_listen = "127.0.0.1:8089"
log_level = "info"
query_timeout = "60s"
read_timeout = "1s"
handshake_timeout = "30s"
ping_interval = "15s"
ping_timeout = "10s"
max_failed_pings = 3
[dc_options]
`

const (
	EnvAuthKey    = "TGSESSION_AUTH_KEY"
	EnvSocks5Pass = "TGSESSION_SOCKS5_PASS"
)

type parsedConfig struct {
	Dc                *int
	Test_Mode         *bool
	Protocol          *string
	Obfuscate         *bool
	AllowIPv6         *bool
	Auth_Key          *string
	Server_Salt       *int64
	Socks5            *string
	Socks5_user       *string
	Socks5_pass       *string
	Stats_Listen      *string
	Log_Level         *string
	Query_Timeout     *string
	Read_Timeout      *string
	Handshake_Timeout *string
	Ping_Interval     *string
	Ping_Timeout      *string
	Max_Failed_Pings  *int
	Rsa_Keys          []string
	Dc_Options        map[string]toml.Primitive
}

type Config struct {
	dc               int
	testMode         bool
	protocol         byte
	obfuscate        bool
	allowIPv6        bool
	authKey          []byte
	serverSalt       uint64
	socks5           *string
	socks5_user      *string
	socks5_pass      *string
	statsListen      *string
	logLevel         string
	queryTimeout     time.Duration
	readTimeout      time.Duration
	handshakeTimeout time.Duration
	pingInterval     time.Duration
	pingTimeout      time.Duration
	maxFailedPings   int
	rsaKeys          []string
	dcOptions        map[int][]string
}

func (c *Config) GetDC() int {
	return c.dc
}

func (c *Config) GetTestMode() bool {
	return c.testMode
}

// GetProtocol returns the transport framing tag.
func (c *Config) GetProtocol() byte {
	return c.protocol
}

func (c *Config) GetObfuscate() bool {
	return c.obfuscate
}

func (c *Config) GetAllowIPv6() bool {
	return c.allowIPv6
}

// GetAuthKey returns the permanent auth key or nil when a key exchange is
// needed.
func (c *Config) GetAuthKey() []byte {
	return c.authKey
}

func (c *Config) GetServerSalt() uint64 {
	return c.serverSalt
}

func (c *Config) GetSocks() (url, user, pass *string) {
	return c.socks5, c.socks5_user, c.socks5_pass
}

func (c *Config) GetStatsListen() *string {
	return c.statsListen
}

func (c *Config) GetLogLevel() string {
	return c.logLevel
}

func (c *Config) GetQueryTimeout() time.Duration {
	return c.queryTimeout
}

func (c *Config) GetReadTimeout() time.Duration {
	return c.readTimeout
}

func (c *Config) GetHandshakeTimeout() time.Duration {
	return c.handshakeTimeout
}

func (c *Config) GetPing() (interval, timeout time.Duration, maxFailed int) {
	return c.pingInterval, c.pingTimeout, c.maxFailedPings
}

// GetRSAKeys returns PEM encoded server keys.
func (c *Config) GetRSAKeys() []string {
	return c.rsaKeys
}

// GetDCOptions returns configured addresses per datacenter id.
func (c *Config) GetDCOptions() map[int][]string {
	return c.dcOptions
}
