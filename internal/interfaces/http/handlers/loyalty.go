// internal/interfaces/http/handlers/loyalty.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/loyalty"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// LoyaltyHandler handles loyalty account endpoints
type LoyaltyHandler struct {
	loyaltyService *loyalty.Service
	config         *config.Config
}

// NewLoyaltyHandler creates a new loyalty handler
func NewLoyaltyHandler(db *gorm.DB, cfg *config.Config) *LoyaltyHandler {
	return &LoyaltyHandler{
		loyaltyService: loyalty.NewService(db, cfg),
		config:         cfg,
	}
}

// GetAccount returns the current user's balance and tier
func (h *LoyaltyHandler) GetAccount(c *gin.Context) {
	userID, exists := middleware.UserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	summary, err := h.loyaltyService.GetAccount(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve loyalty account",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Loyalty account retrieved successfully",
		"data":    summary,
	})
}

// GetLedger returns the current user's recent loyalty ledger entries
func (h *LoyaltyHandler) GetLedger(c *gin.Context) {
	userID, exists := middleware.UserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	entries, err := h.loyaltyService.GetLedger(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve loyalty ledger",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Loyalty ledger retrieved successfully",
		"data":    entries,
	})
}
