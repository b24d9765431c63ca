package service

import (
	"context"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/edgegate/checkpoint-agent/internal/gate/store"
	"github.com/edgegate/checkpoint-agent/internal/gate/types"
)

// Reconciler performs the one-shot startup pull of all identity rows the
// local replica has not yet seen.  Progress commits row by row: each
// applied row advances the persisted cursor, so a transport failure
// mid-stream loses nothing; the next process start resumes from the
// last committed row.  It is not retried within one process lifetime.
type Reconciler struct {
	identities store.IdentityStore
	cursor     store.CursorStore
	remote     store.RemoteStore
	logger     *log.Logger
}

func NewReconciler(identities store.IdentityStore, cursor store.CursorStore, remote store.RemoteStore, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Reconciler{
		identities: identities,
		cursor:     cursor,
		remote:     remote,
		logger:     logger,
	}
}

// Run drains the remote stream from the persisted cursor.  Returns the
// number of rows applied; the error, if any, describes why the stream
// ended early.  Rows already applied are never rolled back.
func (r *Reconciler) Run(ctx context.Context) (int, error) {
	since, err := r.cursor.Cursor(ctx)
	if err != nil {
		return 0, fmt.Errorf("read cursor: %w", err)
	}

	stream, err := r.remote.StreamIdentitiesSince(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("open identity stream: %w", err)
	}
	defer stream.Close()

	applied := 0
	last := since
	for {
		rec, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return applied, fmt.Errorf("identity stream after %d rows: %w", applied, err)
		}

		if err := r.apply(ctx, rec); err != nil {
			return applied, err
		}
		applied++
		last = rec.RemoteID
	}

	// Persist the final watermark once more; a no-op when the last row
	// already committed it.
	if err := r.cursor.SetCursor(ctx, last); err != nil {
		return applied, fmt.Errorf("persist final cursor: %w", err)
	}

	r.logger.Infof("reconciliation complete: %d rows applied (remote reported %d), cursor at %d",
		applied, stream.Count(), last)
	return applied, nil
}

// apply installs one remote row: clear anything holding either natural
// key, insert the fresh row, then commit the watermark.  Every step is
// idempotent, so replaying a row after a crash is harmless.
func (r *Reconciler) apply(ctx context.Context, rec *types.IdentityRecord) error {
	if err := r.identities.DeleteByKeys(ctx, rec.AttendanceID, rec.Tag); err != nil {
		return fmt.Errorf("clear stale identity %s: %w", rec.AttendanceID, err)
	}
	if err := r.identities.Upsert(ctx, *rec); err != nil {
		return fmt.Errorf("install identity %s: %w", rec.AttendanceID, err)
	}
	if err := r.cursor.SetCursor(ctx, rec.RemoteID); err != nil {
		return fmt.Errorf("advance cursor to %d: %w", rec.RemoteID, err)
	}
	return nil
}
