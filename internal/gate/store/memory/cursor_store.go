package memory

import (
	"context"
	"sync"
)

// CursorStore is an in-memory reconciliation watermark.  Intended for
// tests and dev environments.
type CursorStore struct {
	mu   sync.Mutex
	last int64
}

func NewCursorStore() *CursorStore {
	return &CursorStore{}
}

func (s *CursorStore) Cursor(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, nil
}

func (s *CursorStore) SetCursor(_ context.Context, remoteID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if remoteID > s.last {
		s.last = remoteID
	}
	return nil
}

func (s *CursorStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = 0
	return nil
}
