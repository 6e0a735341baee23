package email

import (
	"context"
	"sync"
)

// MemorySender captures messages in memory. Used in tests and as a fallback
// when no SMTP server is configured.
type MemorySender struct {
	mu       sync.Mutex
	messages []Message

	// FailWith, when set, makes every Send return this error.
	FailWith error
}

// NewMemorySender creates an empty in-memory sender.
func NewMemorySender() *MemorySender {
	return &MemorySender{}
}

func (s *MemorySender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	s.messages = append(s.messages, msg)
	return nil
}

// Messages returns a copy of all captured messages.
func (s *MemorySender) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}
