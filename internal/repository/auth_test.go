package repository

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/models"
)

func TestAuthRepository(t *testing.T) {
	repo := NewAuthRepository(newTestDB(t), zap.NewNop())
	ctx := context.Background()

	u := &models.User{ID: "0b7c6a2e-1f7e-4a59-9d5d-6f3f5e0d9a11", Email: "alice@example.com", PasswordHash: "hash"}
	if err := repo.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	byEmail, err := repo.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if byEmail.ID != u.ID {
		t.Fatalf("got id %q want %q", byEmail.ID, u.ID)
	}

	byID, err := repo.GetUserByID(ctx, u.ID)
	if err != nil || byID.Email != u.Email {
		t.Fatalf("GetUserByID: user=%+v err=%v", byID, err)
	}

	if _, err := repo.GetUserByEmail(ctx, "bob@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	dup := &models.User{ID: "another-id", Email: "alice@example.com", PasswordHash: "hash"}
	if err := repo.CreateUser(ctx, dup); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}
