package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/channelsync/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncTestRequest struct {
	ID        string `uri:"id" binding:"required,uuid"`
	Operation string `uri:"operation" binding:"required,sync_operation"`
}

type importTestRequest struct {
	SKU string `json:"sku" binding:"required,max=8"`
}

func TestSetupValidator_SyncOperation(t *testing.T) {
	require.NoError(t, SetupValidator())

	var details []dto.ValidationDetail
	r := gin.New()
	r.POST("/channels/:id/sync/:operation", func(c *gin.Context) {
		var req syncTestRequest
		if err := c.ShouldBindUri(&req); err != nil {
			details = FormatValidationErrors(err, "").Error.Details
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	w := performRequest(r, http.MethodPost, "/channels/6f1c2d3e-4b5a-4c6d-8e9f-0a1b2c3d4e5f/sync/import_orders", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(r, http.MethodPost, "/channels/not-a-uuid/sync/launch_rockets", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, decodeError(t, w).Code)
	assert.ElementsMatch(t, []dto.ValidationDetail{
		{Field: "id", Message: "Invalid UUID format"},
		{Field: "operation", Message: "Unknown sync operation"},
	}, details)
}

func TestHandleValidationError_JSONFieldNames(t *testing.T) {
	require.NoError(t, SetupValidator())

	r := gin.New()
	r.Use(RequestID())
	r.POST("/import", func(c *gin.Context) {
		var req importTestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(`{"sku":"TOO-LONG-SKU"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	errInfo := decodeError(t, w)
	assert.NotEmpty(t, errInfo.RequestID)
	require.Len(t, errInfo.Details, 1)
	assert.Equal(t, "sku", errInfo.Details[0].Field)
	assert.Equal(t, "Must be at most 8 characters", errInfo.Details[0].Message)
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	resp := FormatValidationErrors(errors.New("unexpected EOF"), "req-1")

	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Empty(t, resp.Error.Details)
}
