// Package domain defines the core business entities for pagechat.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An uploaded PDF and its indexing status
//   - Chat: A conversation, optionally bound to one document
//   - Message: One turn of a chat, with citations on assistant turns
//   - Source: A citation pointing back into the indexed document
//   - StatusEvent: One status observation from the poll or push channel
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
