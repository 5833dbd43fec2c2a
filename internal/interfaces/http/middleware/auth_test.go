package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Name = "storefront-test"
	cfg.JWT.Secret = "test-secret-test-secret-test-secret"
	cfg.JWT.AccessTokenExpiry = 15 * time.Minute
	cfg.JWT.RefreshTokenExpiry = 24 * time.Hour
	return cfg
}

func newAuthRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	me := r.Group("/me")
	me.Use(RequireAuth(cfg))
	me.GET("", func(c *gin.Context) {
		id, _ := UserID(c)
		email, _ := UserEmail(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "email": email})
	})

	admin := r.Group("/admin")
	admin.Use(RequireAuth(cfg), RequireOperator())
	admin.GET("", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return r
}

func perform(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	r := newAuthRouter(testConfig())

	w := perform(r, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthRejectsRefreshToken(t *testing.T) {
	cfg := testConfig()
	r := newAuthRouter(cfg)

	_, refresh, err := auth.NewJWTManager(cfg).IssuePair(7, "buyer@example.com", false)
	require.NoError(t, err)

	w := perform(r, "/me", refresh)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthStoresSession(t *testing.T) {
	cfg := testConfig()
	r := newAuthRouter(cfg)

	access, _, err := auth.NewJWTManager(cfg).IssuePair(7, "buyer@example.com", false)
	require.NoError(t, err)

	w := perform(r, "/me", access)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":7`)
	assert.Contains(t, w.Body.String(), "buyer@example.com")
}

func TestRequireOperatorGatesCustomers(t *testing.T) {
	cfg := testConfig()
	r := newAuthRouter(cfg)
	m := auth.NewJWTManager(cfg)

	customer, _, err := m.IssuePair(7, "buyer@example.com", false)
	require.NoError(t, err)
	w := perform(r, "/admin", customer)
	assert.Equal(t, http.StatusForbidden, w.Code)

	operator, _, err := m.IssuePair(1, "staff@example.com", true)
	require.NoError(t, err)
	w = perform(r, "/admin", operator)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOriginAllowedWildcard(t *testing.T) {
	allowed := []string{"https://shop.example.com", "*.example.org"}

	assert.True(t, originAllowed("https://shop.example.com", allowed))
	assert.True(t, originAllowed("https://api.example.org", allowed))
	assert.False(t, originAllowed("https://example.org", allowed), "wildcard must not match the bare domain")
	assert.False(t, originAllowed("https://evil.com", allowed))
	assert.True(t, originAllowed("https://evil.com", []string{"*"}))
}
