package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result := Do(context.Background(), Fixed(3, time.Millisecond), func() error {
		calls++
		return nil
	})
	if result.Err != nil {
		t.Fatalf("Do() error = %v", result.Err)
	}
	if calls != 1 || result.Attempts != 1 {
		t.Fatalf("expected 1 attempt, got calls=%d attempts=%d", calls, result.Attempts)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	result := Do(context.Background(), Fixed(5, time.Millisecond), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if result.Err != nil {
		t.Fatalf("Do() error = %v", result.Err)
	}
	if result.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", result.Attempts)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	wantErr := errors.New("still failing")
	result := Do(context.Background(), Fixed(3, time.Millisecond), func() error {
		return wantErr
	})
	if !errors.Is(result.Err, wantErr) {
		t.Fatalf("Do() error = %v, want %v", result.Err, wantErr)
	}
	if result.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", result.Attempts)
	}
}

func TestDoStopsOnPermanent(t *testing.T) {
	calls := 0
	result := Do(context.Background(), Fixed(5, time.Millisecond), func() error {
		calls++
		return Permanent(errors.New("bad request"))
	})
	if calls != 1 {
		t.Fatalf("expected permanent error to stop retries, got %d calls", calls)
	}
	if !IsPermanent(result.Err) {
		t.Fatalf("expected permanent error, got %v", result.Err)
	}
}

func TestDoHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := Do(ctx, Fixed(3, time.Second), func() error {
		return errors.New("never succeeds")
	})
	if !errors.Is(result.Err, context.Canceled) {
		t.Fatalf("Do() error = %v, want context.Canceled", result.Err)
	}
}

func TestDoWithValue(t *testing.T) {
	calls := 0
	value, result := DoWithValue(context.Background(), Fixed(3, time.Millisecond), func() (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	if result.Err != nil {
		t.Fatalf("DoWithValue() error = %v", result.Err)
	}
	if value != "ok" {
		t.Fatalf("DoWithValue() = %q, want ok", value)
	}
}
