package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SaleRepository persists sales together with their lines and shipments.
// A nil since means no time bound.
type SaleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)
	FindByReference(ctx context.Context, channelID uuid.UUID, reference string) (*Sale, error)
	// FindModifiedSince returns sales of the channel updated at or after since
	FindModifiedSince(ctx context.Context, channelID uuid.UUID, since *time.Time) ([]Sale, error)
	// FindShippedModifiedSince returns sales of the channel having shipments
	// in state done that were updated at or after since
	FindShippedModifiedSince(ctx context.Context, channelID uuid.UUID, since *time.Time) ([]Sale, error)
	FindByStates(ctx context.Context, channelID uuid.UUID, states []SaleState) ([]Sale, error)
	Save(ctx context.Context, sale *Sale) error
}

// ShipmentRepository updates the storefront bookkeeping of shipments
type ShipmentRepository interface {
	// SetRemoteIncrementID writes the storefront shipment id on every shipment of the sale
	SetRemoteIncrementID(ctx context.Context, saleID uuid.UUID, incrementID string) error
	MarkTrackingExported(ctx context.Context, shipmentID uuid.UUID) error
}
