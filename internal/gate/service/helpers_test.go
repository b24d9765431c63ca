package service_test

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/edgegate/checkpoint-agent/internal/gate/store"
	"github.com/edgegate/checkpoint-agent/internal/gate/types"
)

// fakeRemote is a scriptable store.RemoteStore.
type fakeRemote struct {
	mu sync.Mutex

	// identities served by GetIdentityByTag, keyed by tag
	identities map[string]types.IdentityRecord
	lookupErr  error

	// tags whose IngestLogEntry call should fail
	failIngest map[int64]error
	ingested   []types.AuditLogEntry

	// rows served by StreamIdentitiesSince; streamErr terminates the
	// stream after failAfter rows instead of a clean trailer
	rows      []types.IdentityRecord
	streamErr error
	failAfter int

	session string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		identities: make(map[string]types.IdentityRecord),
		failIngest: make(map[int64]error),
	}
}

func (f *fakeRemote) GetIdentityByTag(_ context.Context, tag string) (*types.IdentityRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	if rec, ok := f.identities[tag]; ok {
		out := rec
		return &out, nil
	}
	return nil, nil
}

func (f *fakeRemote) IngestLogEntry(_ context.Context, entry types.AuditLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failIngest[entry.ID]; ok {
		return err
	}
	f.ingested = append(f.ingested, entry)
	return nil
}

func (f *fakeRemote) StreamIdentitiesSince(_ context.Context, since int64) (store.IdentityStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var rows []types.IdentityRecord
	for _, r := range f.rows {
		if r.RemoteID > since {
			rows = append(rows, r)
		}
	}
	return &fakeStream{rows: rows, failAfter: f.failAfter, err: f.streamErr}, nil
}

func (f *fakeRemote) CurrentSession(context.Context, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session, nil
}

func (f *fakeRemote) ingestedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ingested)
}

type fakeStream struct {
	rows      []types.IdentityRecord
	next      int
	failAfter int
	err       error
}

func (s *fakeStream) Next() (*types.IdentityRecord, error) {
	if s.err != nil && s.next >= s.failAfter {
		return nil, s.err
	}
	if s.next >= len(s.rows) {
		return nil, io.EOF
	}
	rec := s.rows[s.next]
	s.next++
	return &rec, nil
}

func (s *fakeStream) Count() int { return len(s.rows) }

func (s *fakeStream) Close() error { return nil }

// captureSink records every broadcast markup string.
type captureSink struct {
	mu      sync.Mutex
	markups []string
}

func (s *captureSink) Broadcast(markup string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markups = append(s.markups, markup)
}

func (s *captureSink) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.markups))
	copy(out, s.markups)
	return out
}

// stubRenderer returns a fixed marker per variant so tests can assert the
// chosen variant without caring about markup.
type stubRenderer struct{}

func (stubRenderer) Welcome(rec *types.IdentityRecord) string      { return "welcome:" + rec.FullName }
func (stubRenderer) Unauthorized(rec *types.IdentityRecord) string { return "denied:" + rec.FullName }
func (stubRenderer) Unknown() string                               { return "unknown" }
func (stubRenderer) Departure() string                             { return "departure" }

var errBoom = errors.New("boom")

// failingAuditLog wraps a store.AuditLogStore and fails every Append.
type failingAuditLog struct {
	store.AuditLogStore
}

func (failingAuditLog) Append(context.Context, string, string, string) (int64, error) {
	return 0, errBoom
}
