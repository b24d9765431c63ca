package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/edgegate/checkpoint-agent/internal/db"
	"github.com/edgegate/checkpoint-agent/internal/gate/store"
	"github.com/edgegate/checkpoint-agent/internal/gate/types"
)

type AuditLogStore struct {
	conn   *sql.DB
	writer *dbpkg.Worker
}

func NewAuditLogStore(conn *sql.DB, writer *dbpkg.Worker) *AuditLogStore {
	return &AuditLogStore{conn: conn, writer: writer}
}

func (s *AuditLogStore) Append(ctx context.Context, deviceID, tag, sessionID string) (int64, error) {
	nowMs := time.Now().UTC().UnixMilli()

	var id int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO audit_log(written_at_ms, tag, device_id, session_id, synced)
VALUES (?, ?, ?, ?, 0);
`, nowMs, tag, deviceID, sessionID)
		if err != nil {
			return fmt.Errorf("Append insert: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("Append last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}
	return id, nil
}

func (s *AuditLogStore) Unsynced(ctx context.Context) ([]types.AuditLogEntry, error) {
	rows, err := s.conn.QueryContext(ctx, `
SELECT id, written_at_ms, tag, device_id, session_id
FROM audit_log
WHERE synced = 0
ORDER BY id ASC;
`)
	if err != nil {
		return nil, fmt.Errorf("Unsynced query: %w: %w", store.ErrUnavailable, err)
	}
	defer rows.Close()

	var out []types.AuditLogEntry
	for rows.Next() {
		var (
			e         types.AuditLogEntry
			writtenMs int64
		)
		if err := rows.Scan(&e.ID, &writtenMs, &e.Tag, &e.DeviceID, &e.SessionID); err != nil {
			return nil, fmt.Errorf("Unsynced scan: %w", err)
		}
		e.WrittenAt = time.UnixMilli(writtenMs).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Unsynced rows: %w", err)
	}
	return out, nil
}

// MarkSynced flips the given entries to synced inside one transaction so a
// partial failure marks nothing and the entries are retried next cycle.
func (s *AuditLogStore) MarkSynced(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"UPDATE audit_log SET synced = 1 WHERE id IN ("+placeholders+");",
			args...,
		); err != nil {
			return fmt.Errorf("MarkSynced update: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}
	return nil
}
