// internal/interfaces/http/handlers/returns.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/returns"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/pkg/notify"
	"gorm.io/gorm"
)

// ReturnHandler handles return request endpoints
type ReturnHandler struct {
	returnService *returns.Service
	orderService  *order.Service
	notifier      *notify.Dispatcher
	config        *config.Config
}

// NewReturnHandler creates a new return handler
func NewReturnHandler(db *gorm.DB, cfg *config.Config, notifier *notify.Dispatcher) *ReturnHandler {
	orderService := order.NewService(db, cfg)
	return &ReturnHandler{
		returnService: returns.NewService(db, cfg, orderService),
		orderService:  orderService,
		notifier:      notifier,
		config:        cfg,
	}
}

// CreateReturn opens a return request against a delivered order
func (h *ReturnHandler) CreateReturn(c *gin.Context) {
	userID, exists := middleware.UserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	var req returns.CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	r, err := h.returnService.Create(userID, &req)
	if err != nil {
		if errors.Is(err, returns.ErrOrderNotReturnable) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create return request",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Return request created",
		"data":    r,
	})
}

// GetMyReturns lists the current user's return requests
func (h *ReturnHandler) GetMyReturns(c *gin.Context) {
	userID, exists := middleware.UserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	list, err := h.returnService.ListForUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve return requests",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Return requests retrieved successfully",
		"data":    list,
	})
}

// GetMyReturn retrieves one of the current user's return requests
func (h *ReturnHandler) GetMyReturn(c *gin.Context) {
	userID, exists := middleware.UserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid return request ID",
		})
		return
	}

	r, err := h.returnService.Get(uint(id))
	if err != nil || r.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Return request not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Return request retrieved successfully",
		"data":    r,
	})
}

// GetReturns lists return requests, optionally filtered by status (admin)
func (h *ReturnHandler) GetReturns(c *gin.Context) {
	status := returns.Status(c.Query("status"))
	if status != "" && !status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown return status",
		})
		return
	}

	list, err := h.returnService.ListAll(status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve return requests",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Return requests retrieved successfully",
		"data":    list,
	})
}

// UpdateReturnStatus moves a return request along its lifecycle (admin)
func (h *ReturnHandler) UpdateReturnStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid return request ID",
		})
		return
	}

	var req struct {
		Status returns.Status `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if !req.Status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown return status",
		})
		return
	}

	r, err := h.returnService.UpdateStatus(uint(id), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, returns.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Return request not found",
			})
		case errors.Is(err, returns.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{
				"error": err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update return request",
			})
		}
		return
	}

	if h.notifier != nil {
		if o, oErr := h.orderService.GetOrder(r.OrderID); oErr == nil {
			go h.notifier.ReturnUpdated(o.Email, r)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Return request updated",
		"data":    r,
	})
}
