package trade

import (
	"testing"

	"github.com/erp/channelsync/internal/domain/channel"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func createTestSale(t *testing.T) *Sale {
	sale, err := NewSale(uuid.New(), "mag_100000001")
	require.NoError(t, err)
	return sale
}

func TestSaleState_IsValid(t *testing.T) {
	tests := []struct {
		state   SaleState
		isValid bool
	}{
		{SaleStateDraft, true},
		{SaleStateQuotation, true},
		{SaleStateConfirmed, true},
		{SaleStateProcessing, true},
		{SaleStateDone, true},
		{SaleStateCancelled, true},
		{SaleState("shipped"), false},
		{SaleState(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.state.IsValid())
		})
	}
}

func TestStateForAction(t *testing.T) {
	assert.Equal(t, SaleStateDraft, StateForAction(channel.OrderActionProcessManually))
	assert.Equal(t, SaleStateConfirmed, StateForAction(channel.OrderActionProcessAutomatically))
	assert.Equal(t, SaleStateDone, StateForAction(channel.OrderActionImportAsPast))
}

func TestNewSale(t *testing.T) {
	t.Run("creates draft sale", func(t *testing.T) {
		sale := createTestSale(t)
		assert.Equal(t, SaleStateDraft, sale.State)
		assert.Equal(t, ShipmentStateNone, sale.ShipmentState)
		assert.False(t, sale.HasShipments())
		assert.False(t, sale.HasRemoteOrder())
		assert.Equal(t, 1, sale.Version)
	})

	t.Run("rejects empty reference", func(t *testing.T) {
		_, err := NewSale(uuid.New(), "  ")
		assert.Error(t, err)
	})
}

func TestSale_AddLine(t *testing.T) {
	sale := createTestSale(t)

	line, err := sale.AddLine("SKU-1", "Widget", 2, decimal.NewFromFloat(9.99), intPtr(11))
	require.NoError(t, err)
	assert.Equal(t, sale.ID, line.SaleID)
	assert.True(t, decimal.NewFromFloat(19.98).Equal(line.Amount()))

	_, err = sale.AddLine("SKU-2", "Broken", 0, decimal.NewFromInt(1), nil)
	assert.Error(t, err)
	_, err = sale.AddLine("SKU-2", "Broken", 1, decimal.NewFromInt(-1), nil)
	assert.Error(t, err)

	sale.ShippingAmount = decimal.NewFromInt(5)
	assert.True(t, decimal.NewFromFloat(24.98).Equal(sale.Total()))
}

func TestSale_ShipmentItemsQty(t *testing.T) {
	sale := createTestSale(t)
	first, err := sale.AddLine("SKU-1", "Widget", 3, decimal.NewFromInt(10), intPtr(11))
	require.NoError(t, err)
	second, err := sale.AddLine("SKU-2", "Gadget", 1, decimal.NewFromInt(4), intPtr(12))
	require.NoError(t, err)
	local, err := sale.AddLine("FEE", "Handling", 1, decimal.NewFromInt(1), nil)
	require.NoError(t, err)

	shipment := NewShipment(sale.ID)
	shipment.AddMove(first, 1)
	shipment.AddMove(first, 2)
	shipment.AddMove(second, 1)
	shipment.AddMove(local, 1)
	shipment.Moves = append(shipment.Moves, Move{ID: uuid.New(), Quantity: 4})

	items := sale.ShipmentItemsQty(shipment)
	assert.Equal(t, map[string]float64{"11": 3, "12": 1}, items)
}

func TestSale_ApplyRemoteState(t *testing.T) {
	tests := []struct {
		name     string
		from     SaleState
		remote   string
		expected SaleState
	}{
		{"canceled cancels", SaleStateConfirmed, "canceled", SaleStateCancelled},
		{"complete finishes", SaleStateProcessing, "complete", SaleStateDone},
		{"closed finishes", SaleStateConfirmed, "closed", SaleStateDone},
		{"processing advances confirmed", SaleStateConfirmed, "processing", SaleStateProcessing},
		{"processing leaves draft", SaleStateDraft, "processing", SaleStateDraft},
		{"holded is ignored", SaleStateConfirmed, "holded", SaleStateConfirmed},
		{"done is terminal", SaleStateDone, "canceled", SaleStateDone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sale := createTestSale(t)
			sale.State = tt.from
			sale.ApplyRemoteState(tt.remote)
			assert.Equal(t, tt.expected, sale.State)
			assert.Equal(t, tt.remote, sale.RemoteState)
		})
	}

	t.Run("unchanged state reports false", func(t *testing.T) {
		sale := createTestSale(t)
		sale.State = SaleStateConfirmed
		require.True(t, sale.ApplyRemoteState("pending"))
		version := sale.Version
		assert.False(t, sale.ApplyRemoteState("pending"))
		assert.Equal(t, version, sale.Version)
	})
}

func TestSale_RemoteStatus(t *testing.T) {
	tests := []struct {
		state  SaleState
		status string
		cancel bool
	}{
		{SaleStateCancelled, "canceled", true},
		{SaleStateDone, "complete", false},
		{SaleStateConfirmed, "processing", false},
		{SaleStateProcessing, "processing", false},
		{SaleStateDraft, "", false},
		{SaleStateQuotation, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			sale := createTestSale(t)
			sale.State = tt.state
			status, cancel := sale.RemoteStatus()
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.cancel, cancel)
		})
	}
}

func TestShipment_Tracking(t *testing.T) {
	shipment := NewShipment(uuid.New())
	assert.Equal(t, ShipmentDraft, shipment.State)
	assert.False(t, shipment.IsExported())
	assert.False(t, shipment.NeedsTrackingExport())

	shipment.Carrier = "UPS"
	shipment.TrackingNumber = "1Z999"
	assert.True(t, shipment.NeedsTrackingExport())

	shipment.TrackingExported = true
	assert.False(t, shipment.NeedsTrackingExport())

	shipment.RemoteIncrementID = "200000001"
	assert.True(t, shipment.IsExported())
}
