// internal/pkg/auth/jwt.go
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/your-org/storefront-backend/internal/config"
)

// TokenKind separates the two tokens of a session pair.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// ErrTokenInvalid covers every validation failure: bad signature,
// expiry, wrong kind. Handlers treat them all as 401.
var ErrTokenInvalid = errors.New("token is invalid")

// TokenClaims is what a storefront session carries. Operator marks
// staff accounts and is only ever set on access tokens; refresh
// rotation re-reads it from the user record so a demoted operator
// loses the flag at the next rotation.
type TokenClaims struct {
	UserID   uint      `json:"uid"`
	Email    string    `json:"email"`
	Operator bool      `json:"operator,omitempty"`
	Kind     TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// JWTManager mints and validates session token pairs.
type JWTManager struct {
	secret        []byte
	issuer        string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(cfg *config.Config) *JWTManager {
	return &JWTManager{
		secret:        []byte(cfg.JWT.Secret),
		issuer:        cfg.App.Name,
		accessExpiry:  cfg.JWT.AccessTokenExpiry,
		refreshExpiry: cfg.JWT.RefreshTokenExpiry,
	}
}

// IssuePair mints the access and refresh tokens for one session.
func (m *JWTManager) IssuePair(userID uint, email string, operator bool) (access, refresh string, err error) {
	access, err = m.issue(TokenAccess, userID, email, operator, m.accessExpiry)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err = m.issue(TokenRefresh, userID, email, false, m.refreshExpiry)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return access, refresh, nil
}

func (m *JWTManager) issue(kind TokenKind, userID uint, email string, operator bool, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := &TokenClaims{
		UserID:   userID,
		Email:    email,
		Operator: operator,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("user:%d", userID),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse validates signature, lifetime, issuer and kind in one step.
func (m *JWTManager) Parse(tokenString string, want TokenKind) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{},
		func(*jwt.Token) (interface{}, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Kind != want {
		return nil, fmt.Errorf("%w: expected %s token, got %s", ErrTokenInvalid, want, claims.Kind)
	}
	return claims, nil
}

// BearerToken strips the Bearer scheme from an Authorization header.
// Returns "" when the header does not carry one.
func BearerToken(header string) string {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return token
}
