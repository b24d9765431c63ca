package memory

import (
	"context"
	"sync"

	"github.com/edgegate/checkpoint-agent/internal/gate/types"
)

// IdentityStore is an in-memory replica keyed by attendance id.  Intended
// for tests and dev environments.
type IdentityStore struct {
	mu   sync.Mutex
	recs map[string]types.IdentityRecord
}

func NewIdentityStore() *IdentityStore {
	return &IdentityStore{recs: make(map[string]types.IdentityRecord)}
}

func (s *IdentityStore) GetByTag(_ context.Context, tag string) (*types.IdentityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.recs {
		if rec.Tag == tag {
			out := rec
			return &out, nil
		}
	}
	return nil, nil
}

func (s *IdentityStore) Upsert(_ context.Context, rec types.IdentityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.AttendanceID] = rec
	return nil
}

func (s *IdentityStore) DeleteByKeys(_ context.Context, attendanceID, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, attendanceID)
	for key, rec := range s.recs {
		if tag != "" && rec.Tag == tag {
			delete(s.recs, key)
		}
	}
	return nil
}

// All returns a copy of every stored record.  Test-only helper.
func (s *IdentityStore) All() []types.IdentityRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.IdentityRecord, 0, len(s.recs))
	for _, rec := range s.recs {
		out = append(out, rec)
	}
	return out
}
