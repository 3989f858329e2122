package chat

import "sync"

// Store is an append-only, chronologically ordered list of messages.
// A fresh Store is empty; there is no way to clear or edit one.
type Store struct {
	mu       sync.RWMutex
	messages []Message
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Append adds m to the end of the store.
func (s *Store) Append(m Message) {
	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.mu.Unlock()
}

// Messages returns a copy of the stored messages in order.
func (s *Store) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of stored messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
