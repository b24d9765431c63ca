package service

import "sync"

// Session holds the checkpoint's current active session id.  It is the
// single process-wide mutable configuration value: set once at startup
// (remote lookup with a configured fallback) and overwritten whenever a
// session-info message arrives on the configuration channel.
type Session struct {
	mu sync.RWMutex
	id string
}

func NewSession(initial string) *Session {
	return &Session{id: initial}
}

func (s *Session) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

func (s *Session) Set(id string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	s.id = id
	s.mu.Unlock()
}
