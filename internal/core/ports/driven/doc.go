// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Backend: REST access to the PDF question-answering server
//   - EntityCache: Keyed store of documents, chats and messages
//   - SessionStore: Persistence of the selected document and current chat
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - StatusPush: WebSocket status channel. Without it, status is polled only.
//   - DirectoryWatcher: Filesystem notifications for watch-dir uploads.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
