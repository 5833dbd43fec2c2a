// internal/pkg/auth/jwt_test.go
package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Name = "storefront-test"
	cfg.JWT.Secret = "test-secret-test-secret-test-secret"
	cfg.JWT.AccessTokenExpiry = 15 * time.Minute
	cfg.JWT.RefreshTokenExpiry = 24 * time.Hour
	return cfg
}

func TestIssuePairRoundTrip(t *testing.T) {
	m := NewJWTManager(testConfig())

	access, refresh, err := m.IssuePair(42, "buyer@example.com", true)
	require.NoError(t, err)

	claims, err := m.Parse(access, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "buyer@example.com", claims.Email)
	assert.True(t, claims.Operator)
	assert.Equal(t, TokenAccess, claims.Kind)

	refreshClaims, err := m.Parse(refresh, TokenRefresh)
	require.NoError(t, err)
	assert.Equal(t, uint(42), refreshClaims.UserID)
	assert.False(t, refreshClaims.Operator, "refresh tokens never carry the operator flag")
}

func TestParseRejectsWrongKind(t *testing.T) {
	m := NewJWTManager(testConfig())

	access, refresh, err := m.IssuePair(1, "a@example.com", false)
	require.NoError(t, err)

	_, err = m.Parse(access, TokenRefresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = m.Parse(refresh, TokenAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	m := NewJWTManager(testConfig())

	otherCfg := testConfig()
	otherCfg.JWT.Secret = "another-secret-entirely-different"
	other := NewJWTManager(otherCfg)

	access, _, err := other.IssuePair(1, "a@example.com", false)
	require.NoError(t, err)

	_, err = m.Parse(access, TokenAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseRejectsExpired(t *testing.T) {
	cfg := testConfig()
	cfg.JWT.AccessTokenExpiry = -time.Minute
	m := NewJWTManager(cfg)

	access, _, err := m.IssuePair(1, "a@example.com", false)
	require.NoError(t, err)

	_, err = m.Parse(access, TokenAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc.def.ghi", BearerToken("Bearer abc.def.ghi"))
	assert.Empty(t, BearerToken("abc.def.ghi"))
	assert.Empty(t, BearerToken("Basic dXNlcjpwYXNz"))
	assert.Empty(t, BearerToken(""))
}
