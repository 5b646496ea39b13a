// Package config provides configuration management for the p2pchat client.
// Settings come from built-in defaults, an optional TOML file named by
// CONFIG_FILE, a .env file and the process environment, in increasing order
// of precedence. Command-line flags are applied on top by the caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"

	"github.com/coregx/p2pchat"
	"github.com/coregx/p2pchat/adapters/libp2p"
)

// Config holds all configuration for the chat client.
type Config struct {
	Chat     ChatConfig     `toml:"chat"`
	Network  NetworkConfig  `toml:"network"`
	Database DatabaseConfig `toml:"database"`
	Verbose  bool           `toml:"verbose"`
}

// ChatConfig holds session settings.
type ChatConfig struct {
	Topic          string `toml:"topic"`
	DataDir        string `toml:"data_dir"`
	HistoryOnStart int    `toml:"history_on_start"`
	RetentionDays  int    `toml:"retention_days"` // 0 disables pruning
}

// NetworkConfig holds peer-to-peer settings.
type NetworkConfig struct {
	ListenAddrs    []string `toml:"listen_addrs"`
	BootstrapPeers []string `toml:"bootstrap_peers"`
	EnableMDNS     bool     `toml:"enable_mdns"`
	EnableDHT      bool     `toml:"enable_dht"`
}

// DatabaseConfig holds message store connection configuration.
type DatabaseConfig struct {
	Driver   string `toml:"driver"` // sqlite3, mysql, postgres
	DSN      string `toml:"dsn"`    // Overrides every other field when set
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"name"`
	Prefix   string `toml:"prefix"` // Table prefix (default: "p2pchat_")
}

// DefaultDataDir holds the identity key and the SQLite history unless
// DATA_DIR says otherwise.
const DefaultDataDir = "./data"

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Chat: ChatConfig{
			Topic:          p2pchat.DefaultTopic,
			DataDir:        DefaultDataDir,
			HistoryOnStart: 10,
		},
		Network: NetworkConfig{
			ListenAddrs: slices.Clone(libp2p.DefaultListenAddrs),
			EnableMDNS:  true,
			EnableDHT:   true,
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			Prefix: p2pchat.DefaultTablePrefix,
		},
	}
}

// Load builds the configuration from defaults, the CONFIG_FILE TOML file and
// environment variables. A missing .env file is ignored; a missing
// CONFIG_FILE is an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Chat.Topic = getEnv("CHAT_TOPIC", c.Chat.Topic)
	c.Chat.DataDir = getEnv("DATA_DIR", c.Chat.DataDir)
	c.Chat.HistoryOnStart = getEnvInt("HISTORY_ON_START", c.Chat.HistoryOnStart)
	c.Chat.RetentionDays = getEnvInt("RETENTION_DAYS", c.Chat.RetentionDays)

	c.Network.ListenAddrs = getEnvList("LISTEN_ADDRS", c.Network.ListenAddrs)
	c.Network.BootstrapPeers = getEnvList("BOOTSTRAP_PEERS", c.Network.BootstrapPeers)
	c.Network.EnableMDNS = getEnvBool("ENABLE_MDNS", c.Network.EnableMDNS)
	c.Network.EnableDHT = getEnvBool("ENABLE_DHT", c.Network.EnableDHT)

	c.Database.Driver = getEnv("STORE_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("STORE_DSN", c.Database.DSN)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnvInt("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Database = getEnv("DB_NAME", c.Database.Database)
	c.Database.Prefix = getEnv("DB_PREFIX", c.Database.Prefix)

	c.Verbose = getEnvBool("VERBOSE", c.Verbose)
}

// Validate checks the final configuration, after flags are applied.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.Chat,
		validation.Field(&c.Chat.Topic, validation.Required),
		validation.Field(&c.Chat.DataDir, validation.Required),
		validation.Field(&c.Chat.HistoryOnStart, validation.Min(0)),
		validation.Field(&c.Chat.RetentionDays, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("chat: %w", err)
	}

	if err := validation.ValidateStruct(&c.Network,
		validation.Field(&c.Network.ListenAddrs, validation.Required, validation.Each(validation.Required)),
	); err != nil {
		return fmt.Errorf("network: %w", err)
	}

	remote := c.Database.Driver != "sqlite3" && c.Database.DSN == ""
	if err := validation.ValidateStruct(&c.Database,
		validation.Field(&c.Database.Driver, validation.Required, validation.In("sqlite3", "mysql", "postgres")),
		validation.Field(&c.Database.Host, validation.When(remote, validation.Required)),
		validation.Field(&c.Database.User, validation.When(remote, validation.Required)),
		validation.Field(&c.Database.Database, validation.When(remote, validation.Required)),
	); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	return nil
}

// StoreDSN returns the connection string for the message store. SQLite
// defaults to messages.db inside the data directory.
func (c *Config) StoreDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	if strings.ToLower(c.Database.Driver) == "sqlite3" && c.Database.Database == "" {
		return filepath.Join(c.Chat.DataDir, "messages.db")
	}
	return c.Database.GetDSN()
}

// GetDSN returns the database connection string based on driver.
func (c *DatabaseConfig) GetDSN() string {
	switch strings.ToLower(c.Driver) {
	case "mysql":
		port := c.Port
		if port == 0 {
			port = 3306
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			c.User, c.Password, c.Host, port, c.Database)
	case "postgres":
		port := c.Port
		if port == 0 {
			port = 5432
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			c.Host, port, c.User, c.Password, c.Database)
	case "sqlite3":
		return c.Database // SQLite uses file path as DSN
	default:
		return ""
	}
}

// getEnv retrieves environment variable or returns default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves environment variable as integer or returns default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool retrieves environment variable as boolean or returns default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvList retrieves a comma-separated environment variable or returns
// default value. Blank items are dropped.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
