package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/models"
	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownUser        = errors.New("user no longer exists")
)

const minPasswordLength = 6

// ValidationError lists every problem found in a registration request.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// AuthResult is returned by a successful register or login.
type AuthResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

type AuthService interface {
	Register(ctx context.Context, email, password string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	CurrentUser(ctx context.Context, userID string) (*models.User, error)
}

type authService struct {
	repo     repository.AuthRepository
	tokens   TokenService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewAuthService(repo repository.AuthRepository, tokens TokenService, logger *zap.Logger) AuthService {
	return &authService{
		repo:     repo,
		tokens:   tokens,
		validate: validator.New(),
		logger:   logger,
	}
}

func (s *authService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)

	problems := s.validateEmail(email)
	problems = append(problems, validatePassword(password)...)
	if email != "" && len(problems) == 0 {
		if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
			problems = append(problems, fmt.Sprintf("Email '%s' is already taken.", email))
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Error("Failed to look up user", zap.Error(err))
			return nil, fmt.Errorf("failed to check existing users: %w", err)
		}
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Errors: problems}
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, &ValidationError{Errors: []string{fmt.Sprintf("Email '%s' is already taken.", email)}}
		}
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID))
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("Failed to get user by email", zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	ok, err := verifyPassword(user.PasswordHash, password)
	if err != nil {
		s.logger.Error("Stored password hash is unreadable", zap.String("user_id", user.ID), zap.Error(err))
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("User logged in successfully.", zap.String("user_id", user.ID))
	return s.issue(user)
}

// CurrentUser resolves a token subject to its stored user.
func (s *authService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnknownUser
		}
		s.logger.Error("Failed to get user by id", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}

func (s *authService) issue(user *models.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.logger.Error("Failed to generate JWT token", zap.Error(err))
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *authService) validateEmail(email string) []string {
	if email == "" {
		return []string{"Email is required."}
	}
	if err := s.validate.Var(email, "email"); err != nil {
		return []string{fmt.Sprintf("Email '%s' is invalid.", email)}
	}
	return nil
}

func validatePassword(password string) []string {
	var problems []string
	if utf8.RuneCountInString(password) < minPasswordLength {
		problems = append(problems, fmt.Sprintf("Passwords must be at least %d characters.", minPasswordLength))
	}
	var hasDigit, hasLower, hasUpper, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case !unicode.IsLetter(r):
			hasSymbol = true
		}
	}
	if !hasSymbol {
		problems = append(problems, "Passwords must have at least one non alphanumeric character.")
	}
	if !hasDigit {
		problems = append(problems, "Passwords must have at least one digit ('0'-'9').")
	}
	if !hasLower {
		problems = append(problems, "Passwords must have at least one lowercase ('a'-'z').")
	}
	if !hasUpper {
		problems = append(problems, "Passwords must have at least one uppercase ('A'-'Z').")
	}
	return problems
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
