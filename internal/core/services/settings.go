package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/pagechat/internal/core/domain"
	"github.com/custodia-labs/pagechat/internal/core/ports/driven"
	"github.com/custodia-labs/pagechat/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyAPIURL          = "api.url"
	keyWSURL           = "api.ws_url"
	keyTimeoutSeconds  = "api.timeout_seconds"
	keyRequestsPerSec  = "api.requests_per_second"
	keyPollIntervalMS  = "status.poll_interval_ms"
	keyKeepAliveSecs   = "status.keepalive_seconds"
	keyReuseLatestChat = "chat.reuse_latest"
)

// Environment variables that override stored endpoints.
const (
	EnvAPIURL = "PAGECHAT_API_URL"
	EnvWSURL  = "PAGECHAT_WS_URL"
)

// SettingsService manages client settings.
type SettingsService struct {
	configStore driven.ConfigStore
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		lookupEnv:   os.LookupEnv,
	}
}

// Get retrieves current settings with environment overrides applied.
func (s *SettingsService) Get() (*domain.ClientSettings, error) {
	settings := s.stored()

	if v, ok := s.lookupEnv(EnvAPIURL); ok && v != "" {
		settings.APIURL = v
	}
	if v, ok := s.lookupEnv(EnvWSURL); ok && v != "" {
		settings.WSURL = v
	}

	return &settings, nil
}

// stored reads the persisted settings, falling back to defaults.
func (s *SettingsService) stored() domain.ClientSettings {
	defaults := domain.DefaultClientSettings()

	return domain.ClientSettings{
		APIURL:            s.getString(keyAPIURL, defaults.APIURL),
		WSURL:             s.configStore.GetString(keyWSURL), // No default - derived from APIURL
		TimeoutSeconds:    s.getInt(keyTimeoutSeconds, defaults.TimeoutSeconds),
		PollIntervalMS:    s.getInt(keyPollIntervalMS, defaults.PollIntervalMS),
		KeepAliveSeconds:  s.getInt(keyKeepAliveSecs, defaults.KeepAliveSeconds),
		RequestsPerSecond: s.getInt(keyRequestsPerSec, defaults.RequestsPerSecond),
		ReuseLatestChat:   s.getBool(keyReuseLatestChat, defaults.ReuseLatestChat),
	}
}

// Save validates and persists settings.
func (s *SettingsService) Save(settings *domain.ClientSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyAPIURL, settings.APIURL},
		{keyWSURL, settings.WSURL},
		{keyTimeoutSeconds, settings.TimeoutSeconds},
		{keyRequestsPerSec, settings.RequestsPerSecond},
		{keyPollIntervalMS, settings.PollIntervalMS},
		{keyKeepAliveSecs, settings.KeepAliveSeconds},
		{keyReuseLatestChat, settings.ReuseLatestChat},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return s.configStore.Save()
}

// Set parses value for key and saves the result.
func (s *SettingsService) Set(key, value string) error {
	settings := s.stored()
	value = strings.TrimSpace(value)

	switch key {
	case keyAPIURL:
		settings.APIURL = strings.TrimRight(value, "/")
	case keyWSURL:
		settings.WSURL = strings.TrimRight(value, "/")
	case keyTimeoutSeconds:
		return s.setInt(&settings, key, value, &settings.TimeoutSeconds)
	case keyRequestsPerSec:
		return s.setInt(&settings, key, value, &settings.RequestsPerSecond)
	case keyPollIntervalMS:
		return s.setInt(&settings, key, value, &settings.PollIntervalMS)
	case keyKeepAliveSecs:
		return s.setInt(&settings, key, value, &settings.KeepAliveSeconds)
	case keyReuseLatestChat:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		settings.ReuseLatestChat = b
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	return s.Save(&settings)
}

func (s *SettingsService) setInt(settings *domain.ClientSettings, key, value string, field *int) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
	}
	*field = n
	return s.Save(settings)
}

// Keys lists the settable config keys in sorted order.
func (s *SettingsService) Keys() []string {
	keys := []string{
		keyAPIURL,
		keyWSURL,
		keyTimeoutSeconds,
		keyRequestsPerSec,
		keyPollIntervalMS,
		keyKeepAliveSecs,
		keyReuseLatestChat,
	}
	sort.Strings(keys)
	return keys
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.ClientSettings {
	return domain.DefaultClientSettings()
}

// Path returns the config store location.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}
