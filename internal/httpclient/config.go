package httpclient

import (
	"errors"
	"net/url"
	"time"
)

// DefaultTimeout bounds every request issued by the client. Downloads of a
// full day of RIB data can take that long.
const DefaultTimeout = time.Hour

// Config specifies the configurable parts of the client
type Config struct {
	BaseURL        string        `json:"base_url" koanf:"base_url"`
	Timeout        time.Duration `json:"timeout,omitempty" koanf:"timeout"`
	RequestLogging bool          `json:"request_logging" koanf:"request_logging"`
}

var (
	ErrEmptyBaseURL   = errors.New("no base URL provided")
	ErrInvalidBaseURL = errors.New("base URL must be an absolute http(s) URL")
)

// Validate validates the configuration
func (cfg Config) Validate() error {
	if cfg.BaseURL == "" {
		return ErrEmptyBaseURL
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}
	return nil
}
