// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
)

// Context keys set by the auth middleware.
const (
	ctxUserID   = "auth.user_id"
	ctxEmail    = "auth.email"
	ctxOperator = "auth.operator"
	ctxClaims   = "auth.claims"
)

func authenticate(c *gin.Context, jwtManager *auth.JWTManager) *auth.TokenClaims {
	token := auth.BearerToken(c.GetHeader("Authorization"))
	if token == "" {
		return nil
	}

	claims, err := jwtManager.Parse(token, auth.TokenAccess)
	if err != nil {
		return nil
	}
	return claims
}

func storeSession(c *gin.Context, claims *auth.TokenClaims) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxEmail, claims.Email)
	c.Set(ctxOperator, claims.Operator)
	c.Set(ctxClaims, claims)
}

// RequireAuth rejects requests without a valid access token.
func RequireAuth(cfg *config.Config) gin.HandlerFunc {
	jwtManager := auth.NewJWTManager(cfg)

	return func(c *gin.Context) {
		claims := authenticate(c, jwtManager)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}

		storeSession(c, claims)
		c.Next()
	}
}

// OptionalAuth stores the session when a valid access token is present
// and lets the request through either way.
func OptionalAuth(cfg *config.Config) gin.HandlerFunc {
	jwtManager := auth.NewJWTManager(cfg)

	return func(c *gin.Context) {
		if claims := authenticate(c, jwtManager); claims != nil {
			storeSession(c, claims)
		}
		c.Next()
	}
}

// RequireOperator gates staff-only endpoints. Must run after
// RequireAuth.
func RequireOperator() gin.HandlerFunc {
	return func(c *gin.Context) {
		operator, exists := c.Get(ctxOperator)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}

		if !operator.(bool) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Operator access required",
			})
			return
		}

		c.Next()
	}
}

// UserID returns the authenticated user's ID, if any.
func UserID(c *gin.Context) (uint, bool) {
	id, exists := c.Get(ctxUserID)
	if !exists {
		return 0, false
	}
	return id.(uint), true
}

// UserEmail returns the authenticated user's email, if any.
func UserEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(ctxEmail)
	if !exists {
		return "", false
	}
	return email.(string), true
}

// IsOperator reports whether the session belongs to a staff account.
func IsOperator(c *gin.Context) bool {
	operator, exists := c.Get(ctxOperator)
	return exists && operator.(bool)
}
