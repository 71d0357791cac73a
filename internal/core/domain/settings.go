package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Default client settings.
const (
	DefaultAPIURL           = "http://localhost:8000"
	DefaultTimeoutSeconds   = 60
	DefaultPollIntervalMS   = 2000
	DefaultKeepAliveSeconds = 25
	DefaultRequestsPerSec   = 10
)

// ClientSettings configures how pagechat talks to the backend.
type ClientSettings struct {
	// APIURL is the REST base URL.
	APIURL string

	// WSURL is the push channel base URL. Derived from APIURL when empty.
	WSURL string

	TimeoutSeconds   int
	PollIntervalMS   int
	KeepAliveSeconds int

	// RequestsPerSecond throttles outbound REST calls. Zero disables it.
	RequestsPerSecond int

	// ReuseLatestChat makes a document view adopt its most recent
	// existing chat instead of creating a fresh one.
	ReuseLatestChat bool
}

// DefaultClientSettings returns the settings used when nothing is configured.
func DefaultClientSettings() ClientSettings {
	return ClientSettings{
		APIURL:            DefaultAPIURL,
		TimeoutSeconds:    DefaultTimeoutSeconds,
		PollIntervalMS:    DefaultPollIntervalMS,
		KeepAliveSeconds:  DefaultKeepAliveSeconds,
		RequestsPerSecond: DefaultRequestsPerSec,
		ReuseLatestChat:   true,
	}
}

// Validate checks the settings for obviously broken values.
func (s *ClientSettings) Validate() error {
	u, err := url.Parse(s.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: api url must be an http(s) URL, got %q", ErrInvalidInput, s.APIURL)
	}
	if s.WSURL != "" {
		w, err := url.Parse(s.WSURL)
		if err != nil || (w.Scheme != "ws" && w.Scheme != "wss") || w.Host == "" {
			return fmt.Errorf("%w: ws url must be a ws(s) URL, got %q", ErrInvalidInput, s.WSURL)
		}
	}
	if s.TimeoutSeconds <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidInput)
	}
	if s.PollIntervalMS <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", ErrInvalidInput)
	}
	if s.KeepAliveSeconds < 0 || s.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: keep-alive and rate limit must not be negative", ErrInvalidInput)
	}
	return nil
}

// ResolvedWSURL returns WSURL, or APIURL with its scheme swapped to ws(s).
func (s *ClientSettings) ResolvedWSURL() string {
	if s.WSURL != "" {
		return strings.TrimRight(s.WSURL, "/")
	}
	base := strings.TrimRight(s.APIURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return base
	}
}

// Timeout returns the request timeout as a duration.
func (s *ClientSettings) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// PollInterval returns the status poll cadence.
func (s *ClientSettings) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalMS) * time.Millisecond
}

// KeepAlive returns the push channel ping interval. Zero disables pings.
func (s *ClientSettings) KeepAlive() time.Duration {
	return time.Duration(s.KeepAliveSeconds) * time.Second
}
