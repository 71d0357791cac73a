// Package pageindex talks to the PageIndex Chat backend.
//
// Client implements the REST surface (documents, chats, queries, health)
// over net/http. Push implements the per-document WebSocket status channel.
// Both translate failures into *domain.TransportError so callers can tell a
// timeout from an unreachable backend or a server-side rejection.
package pageindex
