// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under ~/.pagechat.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
package file
