package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
)

// Channel sync error codes
const (
	// ErrCodeChannelBusy is used when another run holds the channel lock
	ErrCodeChannelBusy = "ERR_CHANNEL_BUSY"
	// ErrCodeChannelConnection is used when the storefront rejects the channel credentials
	ErrCodeChannelConnection = "ERR_CHANNEL_CONNECTION"
	// ErrCodeOperationNotSupported is used when the channel source cannot run the operation
	ErrCodeOperationNotSupported = "ERR_OPERATION_NOT_SUPPORTED"
	// ErrCodeUnknownOperation is used for an operation name that does not exist
	ErrCodeUnknownOperation = "ERR_UNKNOWN_OPERATION"
	// ErrCodeRemoteFault is used when the storefront answers with a fault
	ErrCodeRemoteFault = "ERR_REMOTE_FAULT"
	// ErrCodeRemoteUnavailable is used when the storefront cannot be reached or answers garbage
	ErrCodeRemoteUnavailable = "ERR_REMOTE_UNAVAILABLE"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited      = "ERR_RATE_LIMITED"
	ErrCodeRequestTooLarge  = "ERR_REQUEST_TOO_LARGE"
	ErrCodeSchedulerStopped = "ERR_SCHEDULER_STOPPED"
	ErrCodeQueueFull        = "ERR_QUEUE_FULL"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeBusinessRule: http.StatusUnprocessableEntity,

	ErrCodeChannelBusy:           http.StatusConflict,
	ErrCodeChannelConnection:     http.StatusUnprocessableEntity,
	ErrCodeOperationNotSupported: http.StatusUnprocessableEntity,
	ErrCodeUnknownOperation:      http.StatusBadRequest,
	ErrCodeRemoteFault:           http.StatusBadGateway,
	ErrCodeRemoteUnavailable:     http.StatusBadGateway,

	ErrCodeRateLimited:      http.StatusTooManyRequests,
	ErrCodeRequestTooLarge:  http.StatusRequestEntityTooLarge,
	ErrCodeSchedulerStopped: http.StatusServiceUnavailable,
	ErrCodeQueueFull:        http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps the generic domain codes to standardized codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"UNAVAILABLE":          ErrCodeRemoteUnavailable,
}

// NormalizeErrorCode converts a domain error code to the standardized format.
// Entity specific codes fall into their family: *_NOT_FOUND becomes
// ERR_NOT_FOUND, INVALID_* and DUPLICATE_* become ERR_BUSINESS_RULE.
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	switch {
	case strings.HasPrefix(code, "ERR_"):
		return code
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return ErrCodeNotFound
	case strings.HasPrefix(code, "INVALID_"), strings.HasPrefix(code, "DUPLICATE_"):
		return ErrCodeBusinessRule
	}
	return code
}
