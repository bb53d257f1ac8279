package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	ledgerapp "github.com/stockledger/backend/internal/application/ledger"
)

// BatchHandler handles batch-related API endpoints
type BatchHandler struct {
	BaseHandler
	batchService *ledgerapp.BatchService
}

// NewBatchHandler creates a new BatchHandler
func NewBatchHandler(batchService *ledgerapp.BatchService) *BatchHandler {
	return &BatchHandler{batchService: batchService}
}

// RegisterRoutes registers batch routes
func (h *BatchHandler) RegisterRoutes(rg *gin.RouterGroup) {
	batches := rg.Group("/batches")
	{
		batches.POST("", h.Create)
		batches.GET("/expiring", h.ListExpiringSoon)
		batches.GET("/:id", h.GetByID)
		batches.PUT("/:id", h.Update)
		batches.DELETE("/:id", h.Delete)
	}

	rg.GET("/products/:id/batches", h.ListByProduct)
}

// Create registers a new stock batch
func (h *BatchHandler) Create(c *gin.Context) {
	var req ledgerapp.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	batch, err := h.batchService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, batch)
}

// GetByID returns a batch by ID
func (h *BatchHandler) GetByID(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	batch, err := h.batchService.GetByID(c.Request.Context(), batchID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, batch)
}

// Update corrects a batch's quantity, cost, or notes
func (h *BatchHandler) Update(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	var req ledgerapp.UpdateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	batch, err := h.batchService.Update(c.Request.Context(), batchID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, batch)
}

// Delete removes an untouched batch
func (h *BatchHandler) Delete(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	if err := h.batchService.Delete(c.Request.Context(), batchID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// ListByProduct returns all batches of a product
func (h *BatchHandler) ListByProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	batches, err := h.batchService.ListByProduct(c.Request.Context(), productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, batches)
}

// ListExpiringSoon returns batches with stock expiring within the given window
func (h *BatchHandler) ListExpiringSoon(c *gin.Context) {
	days := 30
	if raw := c.Query("within_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.BadRequest(c, "within_days must be a positive integer")
			return
		}
		days = parsed
	}

	batches, err := h.batchService.ListExpiringSoon(c.Request.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, batches)
}
