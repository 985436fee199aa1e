package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestUpdateProfileKeepsDisplayNameMutable(t *testing.T) {
	id := uuid.New()
	db := newFakeDB()
	db.profileRow = []any{id, "Old Name", "user@example.com", time.Now().UTC()}
	store := New(db, zap.NewNop())

	profile, err := store.UpdateProfile(context.Background(), id, "New Name", "user@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile == nil {
		t.Fatal("expected profile")
	}

	if len(db.executed("UPDATE profiles")) != 1 {
		t.Fatal("expected profile update")
	}
}

func TestUpdateProfileEmailIsImmutable(t *testing.T) {
	id := uuid.New()
	db := newFakeDB()
	db.profileRow = []any{id, "Name", "user@example.com", time.Now().UTC()}
	store := New(db, zap.NewNop())

	_, err := store.UpdateProfile(context.Background(), id, "Name", "other@example.com")
	if !errors.Is(err, ErrEmailImmutable) {
		t.Fatalf("expected ErrEmailImmutable, got %v", err)
	}
	if len(db.executed("UPDATE profiles")) != 0 {
		t.Fatal("expected no update for rejected email change")
	}
}

func TestUpdateProfileSetsEmailWhenEmpty(t *testing.T) {
	id := uuid.New()
	db := newFakeDB()
	db.profileRow = []any{id, "Name", "", time.Now().UTC()}
	store := New(db, zap.NewNop())

	if _, err := store.UpdateProfile(context.Background(), id, "Name", "user@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(db.executed("UPDATE profiles")) != 1 {
		t.Fatal("expected profile update")
	}
}

func TestGetProfileNotFound(t *testing.T) {
	db := newFakeDB()
	store := New(db, zap.NewNop())

	_, err := store.GetProfile(context.Background(), uuid.New())
	if !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}
