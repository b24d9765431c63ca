package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	dbpkg "github.com/edgegate/checkpoint-agent/internal/db"
	"github.com/edgegate/checkpoint-agent/internal/gate/store"
	"github.com/edgegate/checkpoint-agent/internal/gate/types"
)

type IdentityStore struct {
	conn   *sql.DB
	writer *dbpkg.Worker
}

func NewIdentityStore(conn *sql.DB, writer *dbpkg.Worker) *IdentityStore {
	return &IdentityStore{conn: conn, writer: writer}
}

func (s *IdentityStore) GetByTag(ctx context.Context, tag string) (*types.IdentityRecord, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, nil
	}

	var (
		rec      types.IdentityRecord
		sessions string
	)
	err := s.conn.QueryRowContext(ctx, `
SELECT attendance_id, remote_id, full_name, country, tag, session_ids, photo, country_image
FROM identities
WHERE tag = ?;
`, tag).Scan(
		&rec.AttendanceID, &rec.RemoteID, &rec.FullName, &rec.Country,
		&rec.Tag, &sessions, &rec.Photo, &rec.CountryImage,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByTag query: %w: %w", store.ErrUnavailable, err)
	}

	if err := json.Unmarshal([]byte(sessions), &rec.SessionIDs); err != nil {
		return nil, fmt.Errorf("GetByTag decode session_ids: %w", err)
	}
	return &rec, nil
}

// Upsert deletes any row with the same attendance id and inserts rec inside
// one transaction, so the replica never holds two rows for one participant
// even when the tag changed upstream.
func (s *IdentityStore) Upsert(ctx context.Context, rec types.IdentityRecord) error {
	if strings.TrimSpace(rec.AttendanceID) == "" {
		return fmt.Errorf("Upsert: attendance id is required")
	}

	sessions, err := json.Marshal(rec.SessionIDs)
	if err != nil {
		return fmt.Errorf("Upsert encode session_ids: %w", err)
	}
	if rec.SessionIDs == nil {
		sessions = []byte("[]")
	}

	err = s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
DELETE FROM identities WHERE attendance_id = ?;
`, rec.AttendanceID); err != nil {
			return fmt.Errorf("Upsert delete: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO identities(
  attendance_id, remote_id, full_name, country, tag, session_ids, photo, country_image
) VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`,
			rec.AttendanceID, rec.RemoteID, rec.FullName, rec.Country,
			rec.Tag, string(sessions), rec.Photo, rec.CountryImage,
		); err != nil {
			return fmt.Errorf("Upsert insert: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}
	return nil
}

func (s *IdentityStore) DeleteByKeys(ctx context.Context, attendanceID, tag string) error {
	attendanceID = strings.TrimSpace(attendanceID)
	tag = strings.TrimSpace(tag)
	if attendanceID == "" && tag == "" {
		return nil
	}

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
DELETE FROM identities WHERE attendance_id = ? OR tag = ?;
`, attendanceID, tag); err != nil {
			return fmt.Errorf("DeleteByKeys: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}
	return nil
}
