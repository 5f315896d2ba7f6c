// Package memory provides a recording Sender for tests and local runs
// without a gateway account.
package memory

import (
	"context"
	"sync"
)

type Message struct {
	Phone string
	Body  string
}

// Sender records every message instead of delivering it. FailWith, when
// set, is returned from Send to exercise failure paths.
type Sender struct {
	mu       sync.Mutex
	messages []Message

	FailWith error
}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(_ context.Context, phone, message string) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, Message{Phone: phone, Body: message})
	return nil
}

// Sent returns a copy of everything recorded so far.
func (s *Sender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}
