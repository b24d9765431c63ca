package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	dbpkg "github.com/edgegate/checkpoint-agent/internal/db"
	"github.com/edgegate/checkpoint-agent/internal/gate/store"
)

type CursorStore struct {
	conn   *sql.DB
	writer *dbpkg.Worker
}

func NewCursorStore(conn *sql.DB, writer *dbpkg.Worker) *CursorStore {
	return &CursorStore{conn: conn, writer: writer}
}

func (s *CursorStore) Cursor(ctx context.Context) (int64, error) {
	var last int64
	err := s.conn.QueryRowContext(ctx, `
SELECT last_remote_id FROM sync_cursor WHERE id = 1;
`).Scan(&last)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("Cursor query: %w: %w", store.ErrUnavailable, err)
	}
	return last, nil
}

// SetCursor advances the watermark.  The MAX guard keeps the watermark
// monotonically non-decreasing even if the scheduler and reconciliation
// job interleave.
func (s *CursorStore) SetCursor(ctx context.Context, remoteID int64) error {
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO sync_cursor(id, last_remote_id) VALUES (1, ?)
ON CONFLICT(id) DO UPDATE SET last_remote_id = MAX(sync_cursor.last_remote_id, excluded.last_remote_id);
`, remoteID); err != nil {
			return fmt.Errorf("SetCursor: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}
	return nil
}

// Reset clears the watermark so the next reconciliation replays the full
// remote store.  Only an explicit operator action should call this.
func (s *CursorStore) Reset(ctx context.Context) error {
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO sync_cursor(id, last_remote_id) VALUES (1, 0)
ON CONFLICT(id) DO UPDATE SET last_remote_id = 0;
`); err != nil {
			return fmt.Errorf("Reset: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}
	return nil
}
