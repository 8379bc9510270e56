package session

import (
	"context"
	"testing"
	"time"
)

func TestJanitorRunOnce(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	stale := &Session{OwnerID: "user-1"}
	stale.CreatedAt = time.Now().Add(-10 * time.Hour)
	stale.UpdatedAt = stale.CreatedAt
	if err := store.CreateSession(ctx, stale); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	j := NewJanitor(store, time.Hour, "@hourly", nil)
	j.runOnce()

	if _, err := store.GetSession(ctx, stale.ID); err == nil {
		t.Fatalf("expected stale session to be dropped")
	}
}

func TestJanitorStartRejectsBadSchedule(t *testing.T) {
	j := NewJanitor(NewMemoryStore(), time.Hour, "not a schedule", nil)
	if err := j.Start(); err == nil {
		t.Fatalf("expected error for invalid cron expression")
	}
}

func TestJanitorDisabledWithoutTTL(t *testing.T) {
	j := NewJanitor(NewMemoryStore(), 0, "@hourly", nil)
	if err := j.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	j.Stop()
}
