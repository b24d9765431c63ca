package memory

import (
	"context"
	"sync"
	"time"

	"github.com/edgegate/checkpoint-agent/internal/gate/types"
)

// AuditLogStore is an in-memory append-only audit log.  Intended for tests
// and dev environments.
type AuditLogStore struct {
	mu      sync.Mutex
	nextID  int64
	entries []types.AuditLogEntry
}

func NewAuditLogStore() *AuditLogStore {
	return &AuditLogStore{nextID: 1}
}

func (s *AuditLogStore) Append(_ context.Context, deviceID, tag, sessionID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.entries = append(s.entries, types.AuditLogEntry{
		ID:        id,
		WrittenAt: time.Now().UTC(),
		Tag:       tag,
		DeviceID:  deviceID,
		SessionID: sessionID,
	})
	return id, nil
}

func (s *AuditLogStore) Unsynced(_ context.Context) ([]types.AuditLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.AuditLogEntry
	for _, e := range s.entries {
		if !e.Synced {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *AuditLogStore) MarkSynced(_ context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	for i := range s.entries {
		if _, ok := want[s.entries[i].ID]; ok {
			s.entries[i].Synced = true
		}
	}
	return nil
}

// Entries returns a copy of every entry, synced or not.  Test-only helper.
func (s *AuditLogStore) Entries() []types.AuditLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.AuditLogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}
