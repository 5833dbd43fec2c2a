// internal/interfaces/http/handlers/invoice.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/pkg/invoice"
	"gorm.io/gorm"
)

// InvoiceHandler renders order invoices as PDF
type InvoiceHandler struct {
	orderService   *order.Service
	invoiceService *invoice.Service
	config         *config.Config
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(db *gorm.DB, cfg *config.Config) *InvoiceHandler {
	return &InvoiceHandler{
		orderService:   order.NewService(db, cfg),
		invoiceService: invoice.NewService(cfg),
		config:         cfg,
	}
}

// GetInvoice streams the invoice PDF for one of the user's orders.
// Admins can fetch any order's invoice.
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	userID, exists := middleware.UserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order ID",
		})
		return
	}

	var o *order.Order
	if middleware.IsOperator(c) {
		o, err = h.orderService.GetOrder(uint(orderID))
	} else {
		o, err = h.orderService.GetOrderForUser(userID, uint(orderID))
	}
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Order not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve order",
		})
		return
	}

	pdf, err := h.invoiceService.GenerateInvoice(o)
	if err != nil {
		// wkhtmltopdf may be missing on the host; fall back to HTML
		html, htmlErr := h.invoiceService.GenerateHTML(o)
		if htmlErr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to generate invoice",
			})
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
		return
	}

	filename := fmt.Sprintf("invoice-%s.pdf", o.OrderNumber)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdf.Bytes())
}
