package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"CONFIG_FILE", "CHAT_TOPIC", "DATA_DIR", "HISTORY_ON_START", "RETENTION_DAYS",
	"LISTEN_ADDRS", "BOOTSTRAP_PEERS", "ENABLE_MDNS", "ENABLE_DHT",
	"STORE_DRIVER", "STORE_DSN", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_PREFIX",
	"VERBOSE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "p2p-chat-default", cfg.Chat.Topic)
	assert.Equal(t, 10, cfg.Chat.HistoryOnStart)
	assert.Zero(t, cfg.Chat.RetentionDays)
	assert.Equal(t, "./data", cfg.Chat.DataDir)
	assert.True(t, cfg.Network.EnableMDNS)
	assert.True(t, cfg.Network.EnableDHT)
	assert.Equal(t, []string{"/ip4/0.0.0.0/tcp/0", "/ip4/0.0.0.0/udp/0/quic-v1"}, cfg.Network.ListenAddrs)
	assert.Empty(t, cfg.Network.BootstrapPeers)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "p2pchat_", cfg.Database.Prefix)
	assert.False(t, cfg.Verbose)
	assert.NoError(t, cfg.Validate())
}

func TestDefault_DoesNotAliasListenAddrs(t *testing.T) {
	cfg := Default()
	cfg.Network.ListenAddrs[0] = "/ip4/127.0.0.1/tcp/4001"

	assert.Equal(t, "/ip4/0.0.0.0/tcp/0", Default().Network.ListenAddrs[0])
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAT_TOPIC", "room-42")
	t.Setenv("DATA_DIR", "/tmp/chat")
	t.Setenv("HISTORY_ON_START", "0")
	t.Setenv("RETENTION_DAYS", "30")
	t.Setenv("LISTEN_ADDRS", "/ip4/127.0.0.1/tcp/4001, ,/ip4/127.0.0.1/udp/4001/quic-v1")
	t.Setenv("BOOTSTRAP_PEERS", "/ip4/10.0.0.1/tcp/4001/p2p/12D3KooWGzBfG7LQBKSwxDcJEJtVSyrUbUMTNmGtZxHkMyaxYcNv")
	t.Setenv("ENABLE_MDNS", "false")
	t.Setenv("ENABLE_DHT", "0")
	t.Setenv("VERBOSE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "room-42", cfg.Chat.Topic)
	assert.Equal(t, "/tmp/chat", cfg.Chat.DataDir)
	assert.Equal(t, 0, cfg.Chat.HistoryOnStart)
	assert.Equal(t, 30, cfg.Chat.RetentionDays)
	assert.Equal(t, []string{"/ip4/127.0.0.1/tcp/4001", "/ip4/127.0.0.1/udp/4001/quic-v1"}, cfg.Network.ListenAddrs)
	assert.Len(t, cfg.Network.BootstrapPeers, 1)
	assert.False(t, cfg.Network.EnableMDNS)
	assert.False(t, cfg.Network.EnableDHT)
	assert.True(t, cfg.Verbose)
}

func TestLoad_InvalidNumbersKeepDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("HISTORY_ON_START", "many")
	t.Setenv("ENABLE_DHT", "maybe")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Chat.HistoryOnStart)
	assert.True(t, cfg.Network.EnableDHT)
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "p2pchat.toml")
	content := `
verbose = true

[chat]
topic = "from-file"
retention_days = 7

[network]
bootstrap_peers = ["/ip4/10.0.0.1/tcp/4001/p2p/12D3KooWGzBfG7LQBKSwxDcJEJtVSyrUbUMTNmGtZxHkMyaxYcNv"]
enable_mdns = false

[database]
driver = "postgres"
host = "db.local"
user = "chat"
name = "chat"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("CHAT_TOPIC", "from-env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Chat.Topic, "environment wins over file")
	assert.Equal(t, 7, cfg.Chat.RetentionDays)
	assert.Equal(t, 10, cfg.Chat.HistoryOnStart, "unset keys keep defaults")
	assert.Len(t, cfg.Network.BootstrapPeers, 1)
	assert.False(t, cfg.Network.EnableMDNS)
	assert.True(t, cfg.Network.EnableDHT)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.True(t, cfg.Verbose)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.toml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty topic", func(c *Config) { c.Chat.Topic = "" }, true},
		{"empty data dir", func(c *Config) { c.Chat.DataDir = "" }, true},
		{"negative history", func(c *Config) { c.Chat.HistoryOnStart = -1 }, true},
		{"negative retention", func(c *Config) { c.Chat.RetentionDays = -3 }, true},
		{"no listen addrs", func(c *Config) { c.Network.ListenAddrs = nil }, true},
		{"blank listen addr", func(c *Config) { c.Network.ListenAddrs = []string{""} }, true},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }, true},
		{"mysql without host", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"mysql with dsn", func(c *Config) {
			c.Database.Driver = "mysql"
			c.Database.DSN = "u:p@tcp(h:3306)/chat"
		}, false},
		{"mysql complete", func(c *Config) {
			c.Database.Driver = "mysql"
			c.Database.Host = "localhost"
			c.Database.User = "chat"
			c.Database.Database = "chat"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestStoreDSN(t *testing.T) {
	tests := []struct {
		name string
		db   DatabaseConfig
		want string
	}{
		{"sqlite default", DatabaseConfig{Driver: "sqlite3"}, filepath.Join("/data", "messages.db")},
		{"sqlite path", DatabaseConfig{Driver: "sqlite3", Database: "/var/chat.db"}, "/var/chat.db"},
		{"explicit dsn", DatabaseConfig{Driver: "mysql", DSN: "custom"}, "custom"},
		{
			"mysql",
			DatabaseConfig{Driver: "mysql", Host: "h", User: "u", Password: "p", Database: "d"},
			"u:p@tcp(h:3306)/d?parseTime=true",
		},
		{
			"postgres",
			DatabaseConfig{Driver: "postgres", Host: "h", Port: 6543, User: "u", Password: "p", Database: "d"},
			"host=h port=6543 user=u password=p dbname=d sslmode=disable",
		},
		{"unknown", DatabaseConfig{Driver: "oracle"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Chat: ChatConfig{DataDir: "/data"}, Database: tt.db}
			assert.Equal(t, tt.want, cfg.StoreDSN())
		})
	}
}
