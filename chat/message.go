// Package chat holds the conversation model shared by every front-end:
// the message store, the input gate, and the send orchestrator.
package chat

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is one chat turn. Messages are never modified after they are
// appended to a Store.
type Message struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// IsUser reports whether the message was typed by the local user.
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}
