package types

import "time"

// TagRead is one raw badge read as emitted by the reader device.
type TagRead struct {
	Tag        string
	DeviceID   string
	ObservedAt time.Time
}

// AuditLogEntry records one accepted tag read, pending upload to the
// remote store.  Entries are append-only; only the log sync scheduler
// flips Synced, and entries are never deleted.
type AuditLogEntry struct {
	ID        int64     `json:"id"`
	WrittenAt time.Time `json:"written_at"`
	Tag       string    `json:"tag"`
	DeviceID  string    `json:"device_id"`
	SessionID string    `json:"session_id"`
	Synced    bool      `json:"-"`
}
