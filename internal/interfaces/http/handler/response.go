package handler

import (
	appintegration "github.com/erp/channelsync/internal/application/integration"
	"github.com/erp/channelsync/internal/interfaces/http/dto"
)

// APIResponse represents a generic API response for OpenAPI documentation
// @Description Standard API response wrapper with typed data field
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// ErrorResponse represents an error API response for OpenAPI documentation
// @Description Standard error response
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// SyncResultResponse documents the response of a sync run
type SyncResultResponse = APIResponse[appintegration.SyncResultDTO]

// ConnectionTestData reports a successful storefront login
// @Description Connection test result
type ConnectionTestData struct {
	ChannelID string `json:"channel_id"`
	Connected bool   `json:"connected" example:"true"`
	Message   string `json:"message" example:"Connection test successful"`
}

// SyncJobData describes a queued or finished scheduler job
// @Description Scheduler job
type SyncJobData struct {
	ID             string   `json:"id"`
	ChannelID      string   `json:"channel_id"`
	Operation      string   `json:"operation"`
	Status         string   `json:"status"`
	Error          string   `json:"error,omitempty"`
	StartedAt      string   `json:"started_at,omitempty"`
	CompletedAt    string   `json:"completed_at,omitempty"`
	RetryCount     int      `json:"retry_count"`
	ProcessedCount int      `json:"processed_count"`
	FailedCount    int      `json:"failed_count"`
	FailedItems    []string `json:"failed_items,omitempty"`
}
