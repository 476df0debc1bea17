package integration

import (
	"errors"
	"fmt"
	"testing"

	"github.com/erp/channelsync/internal/domain/channel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteFault_Kind(t *testing.T) {
	tests := []struct {
		code int
		kind FaultKind
	}{
		{100, FaultOrderNotFound},
		{102, FaultShipmentExists},
		{101, FaultUnknown},
		{0, FaultUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			fault := &RemoteFault{Code: tt.code, Message: "boom"}
			assert.Equal(t, tt.kind, fault.Kind())
		})
	}
}

func TestAsFault(t *testing.T) {
	wrapped := fmt.Errorf("create shipment: %w", &RemoteFault{Code: 102, Message: "exists"})

	fault, ok := AsFault(wrapped)
	require.True(t, ok)
	assert.Equal(t, 102, fault.Code)
	assert.True(t, IsFault(wrapped, FaultShipmentExists))
	assert.False(t, IsFault(wrapped, FaultOrderNotFound))

	_, ok = AsFault(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, IsFault(nil, FaultUnknown))
}

func TestSyncResult(t *testing.T) {
	result := NewSyncResult(OperationUpdateOrderStatus, uuid.New())
	result.Add("mag_1")
	assert.Equal(t, SyncStatusSuccess, result.Status())

	result.Skip("2", &RemoteFault{Code: 100, Message: "Requested order not exists."})
	result.Skip("3", errors.New("local failure"))
	result.Finish()

	assert.Equal(t, SyncStatusPartial, result.Status())
	assert.Equal(t, 1, result.ProcessedCount())
	require.Len(t, result.FailedItems, 2)
	assert.Equal(t, "order_not_found", result.FailedItems[0].ErrorCode)
	assert.Equal(t, "Requested order not exists.", result.FailedItems[0].ErrorMessage)
	assert.Empty(t, result.FailedItems[1].ErrorCode)
	assert.False(t, result.SyncedAt.Before(result.StartedAt))
}

func TestOperation_IsValid(t *testing.T) {
	for _, op := range AllOperations() {
		assert.True(t, op.IsValid(), op)
	}
	assert.False(t, Operation("drop_tables").IsValid())
}

func TestParseOperation(t *testing.T) {
	op, err := ParseOperation(" import_orders ")
	require.NoError(t, err)
	assert.Equal(t, OperationImportOrders, op)

	_, err = ParseOperation("launch_rockets")
	assert.ErrorIs(t, err, ErrUnknownOperation)
	assert.Contains(t, err.Error(), "launch_rockets")
}

func TestUnsupportedProvider(t *testing.T) {
	p := NewUnsupportedProvider(channel.SourceManual)
	ch, err := channel.NewChannel("Counter", channel.SourceManual)
	require.NoError(t, err)

	assert.Equal(t, channel.SourceManual, p.Source())
	_, err = p.ImportOrders(t.Context(), ch)
	assert.ErrorIs(t, err, ErrOperationNotSupported)
	assert.ErrorIs(t, p.TestConnection(t.Context(), ch), ErrOperationNotSupported)
}
