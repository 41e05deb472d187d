package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/models"
)

var (
	ErrSigningKeyMissing = errors.New("jwt signing key is not configured")
	ErrInvalidToken      = errors.New("invalid token")
)

const minSigningKeyBytes = 32

// TokenService issues and validates the signed session tokens that carry a
// user's identity.
type TokenService interface {
	Issue(userID, email string) (string, time.Time, error)
	Validate(tokenString string) (*models.Claims, error)
}

type TokenConfig struct {
	Key      string
	Issuer   string
	Audience string
	TTL      time.Duration
}

type tokenService struct {
	key      []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewTokenService fails when no signing key is configured; callers treat that
// as fatal at start-up.
func NewTokenService(cfg TokenConfig, logger *zap.Logger) (TokenService, error) {
	if strings.TrimSpace(cfg.Key) == "" {
		return nil, ErrSigningKeyMissing
	}
	if len(cfg.Key) < minSigningKeyBytes {
		logger.Warn("JWT signing key is shorter than recommended", zap.Int("min_bytes", minSigningKeyBytes))
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &tokenService{
		key:      []byte(cfg.Key),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

func (s *tokenService) Issue(userID, email string) (string, time.Time, error) {
	if strings.TrimSpace(userID) == "" {
		return "", time.Time{}, errors.New("user id is required to issue a token")
	}
	now := s.now()
	expirationTime := now.Add(s.ttl)
	claims := &models.Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, expirationTime, nil
}

func (s *tokenService) Validate(tokenString string) (*models.Claims, error) {
	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
