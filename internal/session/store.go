// Package session persists design sessions, their canvas snapshots, and
// saved looks.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("session: not found")
	ErrAlreadyExists = errors.New("session: already exists")
)

// Session scopes one user's design canvas to a room photo.
type Session struct {
	ID        string
	OwnerID   string
	RoomPhoto string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot stores the serialized canvas state and history for a session.
type Snapshot struct {
	SessionID   string
	ItemsJSON   json.RawMessage
	HistoryJSON json.RawMessage
	UpdatedAt   time.Time
}

// SavedLook is a user- or editor-saved look document.
type SavedLook struct {
	ID        string
	OwnerID   string
	Title     string
	LookJSON  json.RawMessage
	CreatedAt time.Time
}

// Store persists sessions, snapshots, and saved looks.
type Store interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	TouchSession(ctx context.Context, id string, at time.Time) error
	DeleteSession(ctx context.Context, id string) error
	// DeleteIdleSessions removes sessions not updated since the cutoff and
	// returns how many were dropped.
	DeleteIdleSessions(ctx context.Context, cutoff time.Time) (int, error)

	UpsertSnapshot(ctx context.Context, snapshot *Snapshot) error
	GetSnapshot(ctx context.Context, sessionID string) (*Snapshot, error)

	SaveLook(ctx context.Context, look *SavedLook) error
	GetLook(ctx context.Context, id string) (*SavedLook, error)
	ListLooks(ctx context.Context, ownerID string) ([]*SavedLook, error)
	DeleteLook(ctx context.Context, id string) error

	Close() error
}
