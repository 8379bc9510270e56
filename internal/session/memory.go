package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore provides an in-memory session store for testing and local use.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	snapshots map[string]*Snapshot
	looks     map[string]*SavedLook
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:  map[string]*Session{},
		snapshots: map[string]*Snapshot{},
		looks:     map[string]*SavedLook{},
	}
}

func (s *MemoryStore) CreateSession(_ context.Context, session *Session) error {
	if session == nil {
		return ErrNotFound
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = session.CreatedAt
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.ID]; exists {
		return ErrAlreadyExists
	}
	s.sessions[session.ID] = cloneSession(session)
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSession(session), nil
}

func (s *MemoryStore) TouchSession(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if at.IsZero() {
		at = time.Now()
	}
	session.UpdatedAt = at
	return nil
}

func (s *MemoryStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	delete(s.snapshots, id)
	return nil
}

func (s *MemoryStore) DeleteIdleSessions(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dropped := 0
	for id, session := range s.sessions {
		if session.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			delete(s.snapshots, id)
			dropped++
		}
	}
	return dropped, nil
}

func (s *MemoryStore) UpsertSnapshot(_ context.Context, snapshot *Snapshot) error {
	if snapshot == nil || snapshot.SessionID == "" {
		return ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[snapshot.SessionID]; !ok {
		return ErrNotFound
	}
	if snapshot.UpdatedAt.IsZero() {
		snapshot.UpdatedAt = time.Now()
	}
	s.snapshots[snapshot.SessionID] = cloneSnapshot(snapshot)
	return nil
}

func (s *MemoryStore) GetSnapshot(_ context.Context, sessionID string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.snapshots[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSnapshot(snapshot), nil
}

func (s *MemoryStore) SaveLook(_ context.Context, look *SavedLook) error {
	if look == nil {
		return ErrNotFound
	}
	if look.ID == "" {
		look.ID = uuid.NewString()
	}
	if look.CreatedAt.IsZero() {
		look.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.looks[look.ID] = cloneLook(look)
	return nil
}

func (s *MemoryStore) GetLook(_ context.Context, id string) (*SavedLook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	look, ok := s.looks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneLook(look), nil
}

func (s *MemoryStore) ListLooks(_ context.Context, ownerID string) ([]*SavedLook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*SavedLook{}
	for _, look := range s.looks {
		if ownerID == "" || look.OwnerID == ownerID {
			out = append(out, cloneLook(look))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) DeleteLook(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.looks[id]; !ok {
		return ErrNotFound
	}
	delete(s.looks, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func cloneSession(session *Session) *Session {
	if session == nil {
		return nil
	}
	clone := *session
	return &clone
}

func cloneSnapshot(snapshot *Snapshot) *Snapshot {
	if snapshot == nil {
		return nil
	}
	clone := *snapshot
	if snapshot.ItemsJSON != nil {
		clone.ItemsJSON = append([]byte(nil), snapshot.ItemsJSON...)
	}
	if snapshot.HistoryJSON != nil {
		clone.HistoryJSON = append([]byte(nil), snapshot.HistoryJSON...)
	}
	return &clone
}

func cloneLook(look *SavedLook) *SavedLook {
	if look == nil {
		return nil
	}
	clone := *look
	if look.LookJSON != nil {
		clone.LookJSON = append([]byte(nil), look.LookJSON...)
	}
	return &clone
}
