package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver
)

// SQLiteStore persists sessions in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and initializes the
// schema. An empty path selects an in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// The driver is not safe for concurrent writers on one connection.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			owner_id TEXT,
			room_photo TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			session_id TEXT PRIMARY KEY REFERENCES sessions(id) ON DELETE CASCADE,
			items_json TEXT NOT NULL,
			history_json TEXT,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS looks (
			id TEXT PRIMARY KEY,
			owner_id TEXT,
			title TEXT,
			look_json TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_looks_owner ON looks(owner_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) CreateSession(ctx context.Context, session *Session) error {
	if session == nil {
		return ErrNotFound
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = session.CreatedAt
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, owner_id, room_photo, created_at, updated_at)
		 SELECT ?, ?, ?, ?, ? WHERE NOT EXISTS (SELECT 1 FROM sessions WHERE id = ?)`,
		session.ID, session.OwnerID, session.RoomPhoto, session.CreatedAt, session.UpdatedAt, session.ID)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, room_photo, created_at, updated_at FROM sessions WHERE id = ?`, id)
	session := &Session{}
	err := row.Scan(&session.ID, &session.OwnerID, &session.RoomPhoto, &session.CreatedAt, &session.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

func (s *SQLiteStore) TouchSession(ctx context.Context, id string, at time.Time) error {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET updated_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	_, _ = s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE session_id = ?`, id)
	return nil
}

func (s *SQLiteStore) DeleteIdleSessions(ctx context.Context, cutoff time.Time) (int, error) {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE session_id IN (SELECT id FROM sessions WHERE updated_at < ?)`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete idle snapshots: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete idle sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *SQLiteStore) UpsertSnapshot(ctx context.Context, snapshot *Snapshot) error {
	if snapshot == nil || snapshot.SessionID == "" {
		return ErrNotFound
	}
	if _, err := s.GetSession(ctx, snapshot.SessionID); err != nil {
		return err
	}
	if snapshot.UpdatedAt.IsZero() {
		snapshot.UpdatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (session_id, items_json, history_json, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET items_json = excluded.items_json,
		 history_json = excluded.history_json, updated_at = excluded.updated_at`,
		snapshot.SessionID, string(snapshot.ItemsJSON), string(snapshot.HistoryJSON), snapshot.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSnapshot(ctx context.Context, sessionID string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT session_id, items_json, history_json, updated_at FROM snapshots WHERE session_id = ?`, sessionID)
	snapshot := &Snapshot{}
	var items, history sql.NullString
	err := row.Scan(&snapshot.SessionID, &items, &history, &snapshot.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	if items.Valid {
		snapshot.ItemsJSON = []byte(items.String)
	}
	if history.Valid && history.String != "" {
		snapshot.HistoryJSON = []byte(history.String)
	}
	return snapshot, nil
}

func (s *SQLiteStore) SaveLook(ctx context.Context, look *SavedLook) error {
	if look == nil {
		return ErrNotFound
	}
	if look.ID == "" {
		look.ID = uuid.NewString()
	}
	if look.CreatedAt.IsZero() {
		look.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO looks (id, owner_id, title, look_json, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET title = excluded.title, look_json = excluded.look_json`,
		look.ID, look.OwnerID, look.Title, string(look.LookJSON), look.CreatedAt)
	if err != nil {
		return fmt.Errorf("save look: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetLook(ctx context.Context, id string) (*SavedLook, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, look_json, created_at FROM looks WHERE id = ?`, id)
	look := &SavedLook{}
	var lookJSON string
	err := row.Scan(&look.ID, &look.OwnerID, &look.Title, &lookJSON, &look.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get look: %w", err)
	}
	look.LookJSON = []byte(lookJSON)
	return look, nil
}

func (s *SQLiteStore) ListLooks(ctx context.Context, ownerID string) ([]*SavedLook, error) {
	query := `SELECT id, owner_id, title, look_json, created_at FROM looks ORDER BY created_at, id`
	args := []any{}
	if ownerID != "" {
		query = `SELECT id, owner_id, title, look_json, created_at FROM looks WHERE owner_id = ? ORDER BY created_at, id`
		args = append(args, ownerID)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list looks: %w", err)
	}
	defer rows.Close()

	out := []*SavedLook{}
	for rows.Next() {
		look := &SavedLook{}
		var lookJSON string
		if err := rows.Scan(&look.ID, &look.OwnerID, &look.Title, &lookJSON, &look.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan look: %w", err)
		}
		look.LookJSON = []byte(lookJSON)
		out = append(out, look)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteLook(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM looks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete look: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
