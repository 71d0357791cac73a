// Package services implements the driving ports on top of the driven ones.
//
// StatusChannel and LifecycleController keep document status current,
// ChatService owns the chat bound to each document view, and
// SelectionService ties both to what the user has selected. Every
// network call goes through a driven port, so the package is tested
// against the in-memory adapters.
package services
