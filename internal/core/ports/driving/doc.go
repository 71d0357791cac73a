// Package driving defines what the CLI, TUI and MCP adapters may ask of
// the core. Implementations live in internal/core/services.
package driving
