package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/models"
	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/repository"
)

type memoryAuthRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemoryAuthRepo() *memoryAuthRepo {
	return &memoryAuthRepo{users: map[string]*models.User{}}
}

func (r *memoryAuthRepo) CreateUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	cp := *user
	r.users[user.Email] = &cp
	return nil
}

func (r *memoryAuthRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrUserNotFound
}

func (r *memoryAuthRepo) GetUserByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func newTestAuthService(t *testing.T) (AuthService, TokenService) {
	t.Helper()
	tokens, err := NewTokenService(TokenConfig{Key: testSigningKey, Issuer: "issuer", Audience: "audience", TTL: time.Hour}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return NewAuthService(newMemoryAuthRepo(), tokens, zap.NewNop()), tokens
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()
	auth, tokens := newTestAuthService(t)
	ctx := context.Background()

	reg, err := auth.Register(ctx, "  Alice@Example.com ", "Passw0rd!")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.User.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %q", reg.User.Email)
	}
	if reg.User.PasswordHash == "Passw0rd!" || !strings.HasPrefix(reg.User.PasswordHash, "$argon2id$") {
		t.Fatalf("password not hashed: %q", reg.User.PasswordHash)
	}
	claims, err := tokens.Validate(reg.Token)
	if err != nil || claims.Subject != reg.User.ID {
		t.Fatalf("register token: claims=%+v err=%v", claims, err)
	}

	login, err := auth.Login(ctx, "alice@example.com", "Passw0rd!")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.User.ID != reg.User.ID {
		t.Fatalf("login resolved a different user")
	}

	if _, err := auth.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v", err)
	}
	if _, err := auth.Login(ctx, "nobody@example.com", "Passw0rd!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, "not-an-email", "abc")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *ValidationError, got %T %v", err, err)
	}
	joined := strings.Join(vErr.Errors, "\n")
	for _, want := range []string{"is invalid", "at least 6 characters", "non alphanumeric", "digit", "uppercase"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in %v", want, vErr.Errors)
		}
	}
	if strings.Contains(joined, "lowercase") {
		t.Errorf("password has lowercase letters, got %v", vErr.Errors)
	}

	if _, err := auth.Register(ctx, "bob@example.com", "Passw0rd!"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err = auth.Register(ctx, "BOB@example.com", "Passw0rd!")
	if !errors.As(err, &vErr) || !strings.Contains(vErr.Errors[0], "already taken") {
		t.Fatalf("duplicate email: got %v", err)
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	t.Parallel()
	encoded, err := hashPassword("S3cret!")
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}
	if ok, err := verifyPassword(encoded, "S3cret!"); err != nil || !ok {
		t.Fatalf("verify correct password: ok=%v err=%v", ok, err)
	}
	if ok, _ := verifyPassword(encoded, "s3cret!"); ok {
		t.Fatalf("different password verified")
	}
	if _, err := verifyPassword("$bcrypt$whatever", "x"); err == nil {
		t.Fatalf("expected error for foreign hash format")
	}
}

func TestVerifyPasswordRejectsEmptyHash(t *testing.T) {
	t.Parallel()
	encoded, err := hashPassword("S3cret!")
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}
	truncated := encoded[:strings.LastIndex(encoded, "$")+1]
	if ok, err := verifyPassword(truncated, "anything"); ok || err == nil {
		t.Fatalf("empty stored hash must not verify: ok=%v err=%v", ok, err)
	}
	noSalt := "$argon2id$v=19$m=65536,t=1,p=4$$" + encoded[strings.LastIndex(encoded, "$")+1:]
	if ok, err := verifyPassword(noSalt, "S3cret!"); ok || err == nil {
		t.Fatalf("empty salt must not verify: ok=%v err=%v", ok, err)
	}
}

func TestPasswordLengthCountsCharacters(t *testing.T) {
	t.Parallel()
	// five characters, eight bytes
	problems := validatePassword("Ää1!é")
	if len(problems) == 0 || !strings.Contains(problems[0], "at least 6 characters") {
		t.Fatalf("expected length problem, got %v", problems)
	}
	if problems := validatePassword("Ää1!éx"); len(problems) != 0 {
		t.Fatalf("six characters should pass, got %v", problems)
	}
}

func TestCurrentUser(t *testing.T) {
	t.Parallel()
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	reg, err := auth.Register(ctx, "carol@example.com", "Passw0rd!")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	user, err := auth.CurrentUser(ctx, reg.User.ID)
	if err != nil || user.Email != "carol@example.com" {
		t.Fatalf("CurrentUser: user=%+v err=%v", user, err)
	}
	if _, err := auth.CurrentUser(ctx, "missing-id"); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("expected ErrUnknownUser, got %v", err)
	}
}
