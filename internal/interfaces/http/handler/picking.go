package handler

import (
	"github.com/gin-gonic/gin"

	ledgerapp "github.com/stockledger/backend/internal/application/ledger"
)

// PickingHandler handles stock picking API endpoints
type PickingHandler struct {
	BaseHandler
	pickingService *ledgerapp.PickingService
}

// NewPickingHandler creates a new PickingHandler
func NewPickingHandler(pickingService *ledgerapp.PickingService) *PickingHandler {
	return &PickingHandler{pickingService: pickingService}
}

// RegisterRoutes registers picking routes
func (h *PickingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/picks", h.Pick)
	rg.POST("/returns", h.RestoreQuantity)
}

// Pick consumes stock from a product's batches under a pick policy
func (h *PickingHandler) Pick(c *gin.Context) {
	var req ledgerapp.PickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	result, err := h.pickingService.Pick(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// RestoreQuantity returns previously picked stock to a product
func (h *PickingHandler) RestoreQuantity(c *gin.Context) {
	var req ledgerapp.RestoreQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	result, err := h.pickingService.RestoreQuantity(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}
