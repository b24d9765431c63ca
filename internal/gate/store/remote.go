package store

import (
	"context"

	"github.com/edgegate/checkpoint-agent/internal/gate/types"
)

// RemoteStore is the authoritative identity store and log-intake service,
// reached over the network.  Implementations signal transport failure with
// an error wrapping remote.ErrUnreachable; "not found" is (nil, nil) here
// just like in the local interfaces.
type RemoteStore interface {
	GetIdentityByTag(ctx context.Context, tag string) (*types.IdentityRecord, error)

	// IngestLogEntry uploads one audit log entry.  Callers must not mark
	// the entry synced unless this returns nil.
	IngestLogEntry(ctx context.Context, entry types.AuditLogEntry) error

	// StreamIdentitiesSince opens a finite, forward-only pull of all
	// identity rows with remote id greater than since, in ascending id
	// order.  The stream is not restartable mid-flight.
	StreamIdentitiesSince(ctx context.Context, since int64) (IdentityStream, error)

	// CurrentSession returns the active session for a checkpoint device,
	// or ("", nil) when none is configured.
	CurrentSession(ctx context.Context, deviceID string) (string, error)
}

// IdentityStream yields identity rows one at a time.  Next returns io.EOF
// after the last row; a transport failure terminates the stream early with
// a non-EOF error.  Count is the row total the remote reported at
// completion, valid only after Next has returned io.EOF.
type IdentityStream interface {
	Next() (*types.IdentityRecord, error)
	Count() int
	Close() error
}
