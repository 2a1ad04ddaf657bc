package transport

import (
	"sync"

	"github.com/bhagyashreemodi/emergency-connect/internal/realtime"
)

// LateBoundSender breaks the construction cycle between the hub and the
// presence coordinator: the broadcaster is built against this sender
// first, and the hub is bound once it exists. Events sent before Bind
// are dropped, which only matters during startup.
type LateBoundSender struct {
	mu     sync.RWMutex
	sender realtime.Sender
}

func (s *LateBoundSender) Bind(sender realtime.Sender) {
	s.mu.Lock()
	s.sender = sender
	s.mu.Unlock()
}

func (s *LateBoundSender) Send(connID, event string, payload any) {
	s.mu.RLock()
	sender := s.sender
	s.mu.RUnlock()
	if sender != nil {
		sender.Send(connID, event, payload)
	}
}

func (s *LateBoundSender) SendAll(event string, payload any) {
	s.mu.RLock()
	sender := s.sender
	s.mu.RUnlock()
	if sender != nil {
		sender.SendAll(event, payload)
	}
}
