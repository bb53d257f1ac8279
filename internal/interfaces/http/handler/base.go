package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/interfaces/http/dto"
	"github.com/stockledger/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleBindingError converts request binding failures to HTTP responses,
// with per-field details when validation tags are involved
func (h *BaseHandler) HandleBindingError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		middleware.HandleValidationError(c, err)
		return
	}
	h.BadRequest(c, err.Error())
}

// insufficientStockLine is one batch allocation of the partial plan
type insufficientStockLine struct {
	BatchID     string `json:"batch_id"`
	BatchNumber string `json:"batch_number"`
	Quantity    string `json:"quantity"`
	UnitCost    string `json:"unit_cost"`
	LineCost    string `json:"line_cost"`
}

// insufficientStockDetails is the error payload for an unfulfillable pick.
// The partial plan lets the caller decide whether to accept a partial
// fulfillment and retry with the available quantity.
type insufficientStockDetails struct {
	ProductID   string                  `json:"product_id"`
	Requested   string                  `json:"requested"`
	Available   string                  `json:"available"`
	PartialPlan []insufficientStockLine `json:"partial_plan"`
}

// HandleDomainError converts domain errors to HTTP responses
func (h *BaseHandler) HandleDomainError(c *gin.Context, err error) {
	requestID := getRequestID(c)

	var stockErr *ledger.InsufficientStockError
	if errors.As(err, &stockErr) {
		details := insufficientStockDetails{
			ProductID:   stockErr.ProductID.String(),
			Requested:   stockErr.Requested.String(),
			Available:   stockErr.Available.String(),
			PartialPlan: make([]insufficientStockLine, 0),
		}
		if stockErr.PartialPlan != nil {
			for _, line := range stockErr.PartialPlan.Lines {
				details.PartialPlan = append(details.PartialPlan, insufficientStockLine{
					BatchID:     line.BatchID.String(),
					BatchNumber: line.BatchNumber,
					Quantity:    line.Quantity.String(),
					UnitCost:    line.UnitCost.String(),
					LineCost:    line.LineCost.String(),
				})
			}
		}

		resp := dto.NewErrorResponseWithRequestID(dto.ErrCodeInsufficientStock, stockErr.Error(), requestID)
		resp.Error.Details = details
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, domainErr.Message, requestID))
		return
	}

	h.InternalError(c, "An unexpected error occurred")
}
