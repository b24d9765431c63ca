package remote_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/edgegate/checkpoint-agent/internal/gate/remote"
	"github.com/edgegate/checkpoint-agent/internal/gate/types"
)

func newTestClient(t *testing.T, handler http.Handler) *remote.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return remote.NewClient(remote.Options{BaseURL: srv.URL})
}

func TestGetIdentityByTag_Found(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("tag"); got != "04AABBCCDD11" {
			t.Errorf("tag query: %q", got)
		}
		_ = json.NewEncoder(w).Encode(types.IdentityRecord{
			RemoteID:     42,
			AttendanceID: "A-1001",
			FullName:     "Ada Lovelace",
			Tag:          "04AABBCCDD11",
		})
	}))

	rec, err := c.GetIdentityByTag(context.Background(), "04AABBCCDD11")
	if err != nil {
		t.Fatalf("GetIdentityByTag: %v", err)
	}
	if rec == nil || rec.AttendanceID != "A-1001" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestGetIdentityByTag_AbsentIsNotAnError(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())

	rec, err := c.GetIdentityByTag(context.Background(), "04AABBCCDD11")
	if err != nil {
		t.Fatalf("GetIdentityByTag: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected absent, got %+v", rec)
	}
}

func TestGetIdentityByTag_ServerErrorIsUnreachable(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := c.GetIdentityByTag(context.Background(), "04AABBCCDD11")
	if !errors.Is(err, remote.ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

func TestIngestLogEntry_PostsJSON(t *testing.T) {
	var got types.AuditLogEntry
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))

	err := c.IngestLogEntry(context.Background(), types.AuditLogEntry{
		ID: 7, Tag: "04AABBCCDD11", DeviceID: "checkpoint-001", SessionID: "7",
	})
	if err != nil {
		t.Fatalf("IngestLogEntry: %v", err)
	}
	if got.Tag != "04AABBCCDD11" {
		t.Errorf("uploaded tag: %q", got.Tag)
	}
}

func TestIngestLogEntry_RejectionIsUnreachable(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	err := c.IngestLogEntry(context.Background(), types.AuditLogEntry{ID: 7})
	if !errors.Is(err, remote.ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

func TestCurrentSession_AbsentIsNonFatal(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())

	id, err := c.CurrentSession(context.Background(), "checkpoint-001")
	if err != nil {
		t.Fatalf("CurrentSession: %v", err)
	}
	if id != "" {
		t.Errorf("expected empty session, got %q", id)
	}
}

// ── Identity stream ──────────────────────────────────────────────────────────

func TestStreamIdentitiesSince_YieldsRowsThenEOF(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("since"); got != "100" {
			t.Errorf("since query: %q", got)
		}
		_, _ = io.WriteString(w, `{"record":{"id":101,"attendance_id":"A-0101","tag":"04AA00000001"}}
{"record":{"id":102,"attendance_id":"A-0102","tag":"04AA00000002"}}
{"done":true,"count":2}
`)
	}))

	stream, err := c.StreamIdentitiesSince(context.Background(), 100)
	if err != nil {
		t.Fatalf("StreamIdentitiesSince: %v", err)
	}
	defer stream.Close()

	var ids []int64
	for {
		rec, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		ids = append(ids, rec.RemoteID)
	}

	if len(ids) != 2 || ids[0] != 101 || ids[1] != 102 {
		t.Errorf("rows: %v", ids)
	}
	if stream.Count() != 2 {
		t.Errorf("count: got %d want 2", stream.Count())
	}
	// EOF is sticky.
	if _, err := stream.Next(); err != io.EOF {
		t.Errorf("expected sticky EOF, got %v", err)
	}
}

func TestStreamIdentitiesSince_TruncationIsUnreachable(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Rows but no completion trailer: connection died mid-stream.
		_, _ = io.WriteString(w, `{"record":{"id":101,"attendance_id":"A-0101","tag":"04AA00000001"}}
`)
	}))

	stream, err := c.StreamIdentitiesSince(context.Background(), 0)
	if err != nil {
		t.Fatalf("StreamIdentitiesSince: %v", err)
	}
	defer stream.Close()

	if _, err := stream.Next(); err != nil {
		t.Fatalf("first row: %v", err)
	}
	_, err = stream.Next()
	if !errors.Is(err, remote.ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable on truncation, got %v", err)
	}
}

func TestStreamIdentitiesSince_SkipsBlankLines(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "\n{\"record\":{\"id\":101,\"attendance_id\":\"A-0101\",\"tag\":\"04AA00000001\"}}\n\n{\"done\":true,\"count\":1}\n")
	}))

	stream, err := c.StreamIdentitiesSince(context.Background(), 0)
	if err != nil {
		t.Fatalf("StreamIdentitiesSince: %v", err)
	}
	defer stream.Close()

	rec, err := stream.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if rec.RemoteID != 101 {
		t.Errorf("remote id: %d", rec.RemoteID)
	}
	if _, err := stream.Next(); err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
}
