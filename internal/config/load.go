package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/rs/zerolog/log"
)

const (
	// EnvPrefix prefixes every environment variable read by Load, e.g.
	// BGPDASH_API_BASE_URL sets api.base_url
	EnvPrefix = "BGPDASH_"

	DefaultPath = "config.toml"

	// SocketNamespace is the path of the live capture namespace on the backend
	SocketNamespace = "/bgp"
)

type APIConfig struct {
	BaseURL        string        `koanf:"base_url"`
	SocketURL      string        `koanf:"socket_url"`
	Timeout        time.Duration `koanf:"timeout"`
	RequestLogging bool          `koanf:"request_logging"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	File   string `koanf:"file"`
}

type ServerConfig struct {
	Address     string `koanf:"address"`
	Port        int    `koanf:"port"`
	BehindProxy bool   `koanf:"behind_proxy"`
	Dataset     string `koanf:"dataset"`
	RateLimit   int    `koanf:"rate_limit"`
}

type BGPConfig struct {
	RouterID string `koanf:"router_id"`
	Address  string `koanf:"address"`
	Port     int    `koanf:"port"`
	ASN      int    `koanf:"asn"`
}

type PeerConfig struct {
	Address string `koanf:"address"`
	Port    int    `koanf:"port"`
	ASN     int    `koanf:"asn"`
}

type Config struct {
	API    APIConfig    `koanf:"api"`
	Log    LogConfig    `koanf:"log"`
	Server ServerConfig `koanf:"server"`
	BGP    BGPConfig    `koanf:"bgp"`
	Peer   PeerConfig   `koanf:"peer"`
}

var defaults = map[string]interface{}{
	"api.base_url":        "http://localhost:5000",
	"api.timeout":         time.Hour,
	"api.request_logging": false,
	"log.level":           "info",
	"log.format":          "json",
	"server.port":         5000,
	"server.rate_limit":   100,
	"bgp.port":            179,
	"peer.port":           179,
}

// Load builds the configuration from, in increasing precedence: built-in
// defaults, the TOML file at configPath, a .env file in the working
// directory and BGPDASH_ prefixed environment variables. A missing file at
// DefaultPath is not an error.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			if !(configPath == DefaultPath && errors.Is(err, os.ErrNotExist)) {
				return nil, fmt.Errorf("loading %s: %w", configPath, err)
			}
			log.Debug().Str("path", configPath).Msg("no config file, using defaults")
		}
	}

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := new(Config)
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// envKey maps BGPDASH_API_BASE_URL to api.base_url
func envKey(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
}

// WebSocketURL returns the configured socket URL, or derives the /bgp
// namespace URL from the base URL
func (c APIConfig) WebSocketURL() (string, error) {
	if c.SocketURL != "" {
		return c.SocketURL, nil
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + SocketNamespace
	return u.String(), nil
}

// Enabled reports whether a BGP speaker should be started
func (c BGPConfig) Enabled() bool {
	return c.ASN != 0 && c.RouterID != ""
}
