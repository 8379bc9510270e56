package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/roomstage/roomstage/pkg/models"
)

func TestGenerateValidateRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	token, err := svc.Generate(&models.User{ID: "u1", Email: "a@b.c", Name: "Ada"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	user, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if user.ID != "u1" || user.Email != "a@b.c" || user.Name != "Ada" {
		t.Fatalf("Validate() user = %+v", user)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTService("secret-a", time.Hour)
	verifier := NewJWTService("secret-b", time.Hour)

	token, err := issuer.Generate(&models.User{ID: "u1"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if _, err := verifier.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Validate() error = %v, want ErrInvalidToken", err)
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc := NewJWTService("test-secret", -time.Hour)

	// Negative expiry disables the exp claim, so force one via a short-lived
	// sibling service instead.
	short := &JWTService{secret: []byte("test-secret"), expiry: time.Nanosecond}
	token, err := short.Generate(&models.User{ID: "u1"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := svc.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Validate() error = %v, want ErrInvalidToken", err)
	}
}

func TestDisabledService(t *testing.T) {
	svc := NewJWTService("", time.Hour)

	if svc.Enabled() {
		t.Fatal("Enabled() = true for empty secret")
	}
	if _, err := svc.Generate(&models.User{ID: "u1"}); !errors.Is(err, ErrAuthDisabled) {
		t.Fatalf("Generate() error = %v, want ErrAuthDisabled", err)
	}
	if _, err := svc.Validate("whatever"); !errors.Is(err, ErrAuthDisabled) {
		t.Fatalf("Validate() error = %v, want ErrAuthDisabled", err)
	}
}

func TestGenerateRequiresUserID(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	if _, err := svc.Generate(&models.User{}); err == nil {
		t.Fatal("Generate() accepted empty user id")
	}
	if _, err := svc.Generate(nil); err == nil {
		t.Fatal("Generate() accepted nil user")
	}
}

func TestUserContextRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	token, err := svc.Generate(&models.User{ID: "u1"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	user, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	ctx := WithUser(t.Context(), user)
	got, ok := UserFromContext(ctx)
	if !ok || got.ID != "u1" {
		t.Fatalf("UserFromContext() = %+v, %v", got, ok)
	}
}
