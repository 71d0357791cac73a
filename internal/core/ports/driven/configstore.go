package driven

// ConfigStore is the flat, dot-keyed settings store ("api.url",
// "status.poll_interval_ms"). Typed getters return the zero value when a
// key is missing or holds another type; use Get to tell the two apart.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool

	// Set stores a value and persists it.
	Set(key string, value any) error

	// Save persists all values.
	Save() error

	// Path names where values are persisted, for display.
	Path() string
}
