package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteStore keeps sessions in the sessions table.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore creates a SQLiteStore.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Load returns the unexpired session with the given id.
func (s *SQLiteStore) Load(ctx context.Context, id string) (Record, error) {
	var rec Record
	var userID sql.NullString
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, locale, expires_at FROM sessions WHERE id = ? AND expires_at > ?`,
		id, s.now().UnixMilli(),
	).Scan(&rec.ID, &userID, &rec.Locale, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to load session: %w", err)
	}
	rec.UserID = userID.String
	rec.ExpiresAt = time.UnixMilli(expiresAt)
	return rec, nil
}

// Save inserts or replaces rec.
func (s *SQLiteStore) Save(ctx context.Context, rec Record) error {
	userID := sql.NullString{String: rec.UserID, Valid: rec.UserID != ""}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, locale, expires_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			locale = excluded.locale,
			expires_at = excluded.expires_at
	`, rec.ID, userID, rec.Locale, rec.ExpiresAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes the session; deleting an unknown id is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired purges sessions that expired at or before now.
func (s *SQLiteStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
