package handler

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/erp/channelsync/internal/domain/integration"
	"github.com/erp/channelsync/internal/domain/shared"
	"github.com/erp/channelsync/internal/infrastructure/logger"
	"github.com/erp/channelsync/internal/interfaces/http/dto"
	"github.com/erp/channelsync/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID set by the RequestID middleware
func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// requestLogger returns the per-request logger stored by the logging middleware
func requestLogger(c *gin.Context) *zap.Logger {
	return logger.GetGinLogger(c)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Accepted sends a 202 accepted response
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
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

// HandleError maps sync, domain and transport errors to HTTP responses.
// Anything unrecognised is logged and reported as a 500 without its text.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	if fault, ok := integration.AsFault(err); ok {
		h.ErrorWithCode(c, dto.ErrCodeRemoteFault, fault.Message)
		return
	}

	switch {
	case errors.Is(err, integration.ErrChannelBusy):
		h.ErrorWithCode(c, dto.ErrCodeChannelBusy, "A sync operation is already running for this channel")
		return
	case errors.Is(err, integration.ErrChannelConnection):
		h.ErrorWithCode(c, dto.ErrCodeChannelConnection, "Incorrect API settings, please check and try again")
		return
	case errors.Is(err, integration.ErrOperationNotSupported):
		h.ErrorWithCode(c, dto.ErrCodeOperationNotSupported, "Operation not supported for this channel source")
		return
	case errors.Is(err, integration.ErrUnknownOperation):
		h.ErrorWithCode(c, dto.ErrCodeUnknownOperation, "Unknown sync operation")
		return
	case errors.Is(err, integration.ErrInvalidResponse):
		h.ErrorWithCode(c, dto.ErrCodeRemoteUnavailable, "The storefront returned an invalid response")
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.ErrorWithCode(c, dto.NormalizeErrorCode(domainErr.Code), domainErr.Message)
		return
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		requestLogger(c).Warn("storefront unreachable", zap.Error(err))
		h.ErrorWithCode(c, dto.ErrCodeRemoteUnavailable, "The storefront could not be reached")
		return
	}

	requestLogger(c).Error("unhandled error", zap.Error(err))
	h.InternalError(c, "An unexpected error occurred")
}
