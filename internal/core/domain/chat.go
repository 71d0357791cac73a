package domain

import (
	"fmt"
	"time"
)

// Chat is a conversation. DocumentID is nil for global chats.
type Chat struct {
	ID         int64
	DocumentID *int64
	Title      *string
	CreatedAt  time.Time
}

// DisplayTitle returns the title, falling back to "Chat <id>".
func (c *Chat) DisplayTitle() string {
	if c.Title != nil && *c.Title != "" {
		return *c.Title
	}
	return fmt.Sprintf("Chat %d", c.ID)
}

// BelongsTo reports whether the chat is bound to the given document.
func (c *Chat) BelongsTo(documentID int64) bool {
	return c.DocumentID != nil && *c.DocumentID == documentID
}

// DefaultChatTitle is the title given to chats created on demand.
func DefaultChatTitle(now time.Time) string {
	return "Chat " + now.Format("2006-01-02")
}

// LatestChat returns the most recently created chat, or nil.
// Ties on CreatedAt are broken by the higher ID.
func LatestChat(chats []Chat) *Chat {
	var latest *Chat
	for i := range chats {
		c := &chats[i]
		if latest == nil ||
			c.CreatedAt.After(latest.CreatedAt) ||
			(c.CreatedAt.Equal(latest.CreatedAt) && c.ID > latest.ID) {
			latest = c
		}
	}
	return latest
}

// Role identifies the author of a message.
type Role string

// Message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is one turn of a chat. Messages are append-only.
type Message struct {
	ID      int64
	ChatID  int64
	Role    Role
	Content string

	// Sources is only populated on assistant messages.
	Sources []Source

	CreatedAt time.Time
}

// HasSources returns true if the message carries citations.
func (m *Message) HasSources() bool {
	return len(m.Sources) > 0
}
