package store

import (
	"context"
	"errors"

	"github.com/edgegate/checkpoint-agent/internal/gate/types"
)

// ErrUnavailable wraps local store failures.  "Not found" is never an
// error anywhere in this package; absence is reported as a nil record.
var ErrUnavailable = errors.New("local store unavailable")

// IdentityStore is the local replica of participant profiles.
type IdentityStore interface {
	// GetByTag returns the cached record for a tag, or (nil, nil) when no
	// record exists.
	GetByTag(ctx context.Context, tag string) (*types.IdentityRecord, error)

	// Upsert replaces any record with the same attendance id and inserts
	// rec, as one durable unit.  A crash leaves either the old row or the
	// new one, never both.
	Upsert(ctx context.Context, rec types.IdentityRecord) error

	// DeleteByKeys removes any rows matching either natural key.  Used
	// defensively before insert when keys may have changed upstream.
	DeleteByKeys(ctx context.Context, attendanceID, tag string) error
}

// AuditLogStore is the append-only record of accepted tag reads.
type AuditLogStore interface {
	// Append writes one entry with syncState pending and returns its id.
	Append(ctx context.Context, deviceID, tag, sessionID string) (int64, error)

	// Unsynced returns all pending entries, oldest first.
	Unsynced(ctx context.Context) ([]types.AuditLogEntry, error)

	// MarkSynced flips the given entries to synced in one atomic batch.
	// A partial failure marks nothing.  An empty id set is a no-op.
	MarkSynced(ctx context.Context, ids []int64) error
}

// CursorStore persists the reconciliation watermark.
type CursorStore interface {
	// Cursor returns the last replicated remote id, 0 when reconciliation
	// has never run.
	Cursor(ctx context.Context) (int64, error)

	// SetCursor advances the watermark.  The watermark never moves
	// backwards; a lower value than the stored one is ignored.
	SetCursor(ctx context.Context, remoteID int64) error

	// Reset clears the watermark for an explicit full resync.
	Reset(ctx context.Context) error
}
