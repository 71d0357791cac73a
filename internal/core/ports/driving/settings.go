package driving

import "github.com/custodia-labs/pagechat/internal/core/domain"

// SettingsService manages client settings.
type SettingsService interface {
	// Get retrieves current settings, with defaults and environment
	// overrides applied.
	Get() (*domain.ClientSettings, error)

	// Save validates and persists settings.
	Save(settings *domain.ClientSettings) error

	// Set updates one setting by its config key, e.g. "api.url".
	Set(key, value string) error

	// Keys lists the settable config keys.
	Keys() []string

	// GetDefaults returns default settings.
	GetDefaults() domain.ClientSettings

	// Path is where settings are stored.
	Path() string
}
