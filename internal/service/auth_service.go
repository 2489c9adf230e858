package service

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUnauthorized indicates a request carried no credential at all.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidToken indicates a credential was present but unverifiable or expired.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidPassword indicates the admin password check failed.
	ErrInvalidPassword = errors.New("invalid password")
)

// AuthService verifies the shared admin password and mints/checks the signed
// session credential that guards every mutating operation.
type AuthService interface {
	VerifyPassword(candidate string) bool
	IssueToken() (string, error)
	ParseToken(token string) error
	Authenticate(token string) bool
	TokenTTL() time.Duration
}

// AuthConfig carries the secrets the auth service operates with.
type AuthConfig struct {
	// AdminPassword is the shared admin secret, compared in constant time.
	AdminPassword string
	// AdminPasswordHash is an optional bcrypt hash; when set it takes
	// precedence over the plain password.
	AdminPasswordHash string
	// JWTSecret signs the session credential (HS256).
	JWTSecret string
	// TokenTTL bounds the credential lifetime. Defaults to 7 days.
	TokenTTL time.Duration
}

type authService struct {
	cfg AuthConfig
}

func NewAuthService(cfg AuthConfig) AuthService {
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 7 * 24 * time.Hour
	}
	return &authService{cfg: cfg}
}

type adminClaims struct {
	Admin bool `json:"admin"`
	jwt.RegisteredClaims
}

func (s *authService) VerifyPassword(candidate string) bool {
	if hash := strings.TrimSpace(s.cfg.AdminPasswordHash); hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
	}
	if s.cfg.AdminPassword == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(s.cfg.AdminPassword)) == 1
}

func (s *authService) IssueToken() (string, error) {
	if s.cfg.JWTSecret == "" {
		return "", fmt.Errorf("jwt secret is not configured")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, adminClaims{
		Admin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	})

	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *authService) ParseToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrUnauthorized
	}

	var claims adminClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid || !claims.Admin {
		return ErrInvalidToken
	}
	return nil
}

func (s *authService) Authenticate(token string) bool {
	return s.ParseToken(token) == nil
}

func (s *authService) TokenTTL() time.Duration {
	return s.cfg.TokenTTL
}
