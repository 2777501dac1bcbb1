package config

import (
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/geovex/tgsession/internal/tgcrypt"
)

func parse(t *testing.T, config string) (*Config, error) {
	t.Helper()
	var pc parsedConfig
	md, err := toml.Decode(config, &pc)
	if err != nil {
		t.Fatalf("config not decoded: %v", err)
	}
	return configFromParsed(&pc, &md)
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.GetDC() != 2 || c.GetProtocol() != tgcrypt.Intermediate {
		t.Errorf("default dc %d protocol %#x", c.GetDC(), c.GetProtocol())
	}
	if c.GetAuthKey() != nil {
		t.Errorf("default config has an auth key")
	}
	if c.GetQueryTimeout() != 60*time.Second || c.GetReadTimeout() != time.Second {
		t.Errorf("default timeouts %s %s", c.GetQueryTimeout(), c.GetReadTimeout())
	}
	interval, timeout, maxFailed := c.GetPing()
	if interval != 15*time.Second || timeout != 10*time.Second || maxFailed != 3 {
		t.Errorf("default ping %s %s %d", interval, timeout, maxFailed)
	}
}

func TestSimpleConfig(t *testing.T) {
	config := `
		dc = 4
		test_mode = true
		protocol = "abridged"
		obfuscate = true
		auth_key = "` + strings.Repeat("ab", tgcrypt.AuthKeySize) + `"
		server_salt = 12345
	`
	c, err := parse(t, config)
	if err != nil {
		t.Fatalf("simple config not parsed: %v", err)
	}
	if c.GetDC() != 4 || !c.GetTestMode() || !c.GetObfuscate() {
		t.Errorf("simple config values not parsed")
	}
	if c.GetProtocol() != tgcrypt.Abridged {
		t.Errorf("protocol %#x", c.GetProtocol())
	}
	if len(c.GetAuthKey()) != tgcrypt.AuthKeySize || c.GetAuthKey()[0] != 0xab {
		t.Errorf("auth key not parsed")
	}
	if c.GetServerSalt() != 12345 {
		t.Errorf("salt %d", c.GetServerSalt())
	}
}

func TestBadValues(t *testing.T) {
	for _, config := range []string{
		`protocol = "http"`,
		`auth_key = "0011"`,
		`auth_key = "zz"`,
		`query_timeout = "soon"`,
		`protocol = "full"
		obfuscate = true`,
		`socks5 = "127.0.0.1:9050"
		socks5_user = "user"`,
		`socks5_user = ""
		socks5_pass = ""`,
	} {
		if _, err := parse(t, config); err == nil {
			t.Errorf("config accepted: %s", config)
		}
	}
}

func TestDCOptions(t *testing.T) {
	config := `
		[dc_options]
		1 = "149.154.175.53:443"
		2 = ["149.154.167.51:443", "[2001:67c:4e8:f002::a]:443"]
		-2 = "149.154.167.151:443"
	`
	c, err := parse(t, config)
	if err != nil {
		t.Fatalf("dc_options config not parsed: %v", err)
	}
	opts := c.GetDCOptions()
	if len(opts[1]) != 1 || opts[1][0] != "149.154.175.53:443" {
		t.Errorf("dc 1 options %v", opts[1])
	}
	if len(opts[2]) != 2 || opts[2][1] != "[2001:67c:4e8:f002::a]:443" {
		t.Errorf("dc 2 options %v", opts[2])
	}
	if len(opts[-2]) != 1 {
		t.Errorf("media dc options %v", opts[-2])
	}
	if _, err := parse(t, "[dc_options]\n1 = 5"); err == nil {
		t.Errorf("numeric address accepted")
	}
	if _, err := parse(t, "[dc_options]\nmain = \"1.2.3.4:443\""); err == nil {
		t.Errorf("named dc accepted")
	}
}

func TestSocksAndEnv(t *testing.T) {
	config := `
		socks5 = "127.0.0.1:9050"
		socks5_user = "user"
		socks5_pass = "file"
	`
	c, err := parse(t, config)
	if err != nil {
		t.Fatalf("socks config not parsed: %v", err)
	}
	env := map[string]string{
		EnvSocks5Pass: "env",
		EnvAuthKey:    strings.Repeat("01", tgcrypt.AuthKeySize),
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	if err := c.ApplyEnv(lookup); err != nil {
		t.Fatal(err)
	}
	url, user, pass := c.GetSocks()
	if *url != "127.0.0.1:9050" || *user != "user" || *pass != "env" {
		t.Errorf("socks %s %s %s", *url, *user, *pass)
	}
	if len(c.GetAuthKey()) != tgcrypt.AuthKeySize {
		t.Errorf("auth key not taken from env")
	}
	env[EnvAuthKey] = "00"
	if err := c.ApplyEnv(lookup); err == nil {
		t.Errorf("short env key accepted")
	}
}
