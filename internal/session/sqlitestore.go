package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"github.com/opsdrill/opsdrill/internal/errors"
	"github.com/opsdrill/opsdrill/internal/models"
	"github.com/opsdrill/opsdrill/internal/sqlite"
	"log/slog"
)

// SQLiteStore persists sessions as JSON payloads in the drill_sessions table.
// It satisfies Store so deployments can survive restarts without the engine
// knowing the difference.
type SQLiteStore struct {
	db *sqlite.Database
}

func NewSQLiteStore(db *sqlite.Database) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.Session, error) {
	var payload []byte
	stmt := `SELECT payload FROM drill_sessions WHERE id = ?`
	if err := s.db.ReadOnly.QueryRowContext(ctx, stmt, id).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrap(ErrSessionNotFound, "read session", slog.String("session_id", id))
		}
		return nil, errors.Wrap(err, "read session", slog.String("session_id", id))
	}
	var session models.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, errors.Wrap(err, "decode session", slog.String("session_id", id))
	}
	return &session, nil
}

func (s *SQLiteStore) Put(ctx context.Context, session *models.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "encode session", slog.String("session_id", session.ID))
	}
	stmt := `INSERT INTO drill_sessions (id, payload) VALUES (?, ?)
	ON CONFLICT (id) DO UPDATE SET payload = excluded.payload,
	updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`
	if _, err = s.db.ReadWrite.ExecContext(ctx, stmt, session.ID, payload); err != nil {
		return errors.Wrap(err, "upsert session", slog.String("session_id", session.ID))
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	stmt := `DELETE FROM drill_sessions WHERE id = ?`
	if _, err := s.db.ReadWrite.ExecContext(ctx, stmt, id); err != nil {
		return errors.Wrap(err, "delete session", slog.String("session_id", id))
	}
	return nil
}
