package channel

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines persistence for channels
type Repository interface {
	// FindByID loads a channel with its tiers and tax mappings
	FindByID(ctx context.Context, id uuid.UUID) (*Channel, error)

	// FindBySource returns every channel of the given source
	FindBySource(ctx context.Context, source Source) ([]Channel, error)

	// Save creates or updates a channel with its tiers and tax mappings
	Save(ctx context.Context, ch *Channel) error

	// UpdateWatermark persists a single checkpoint without touching other columns
	UpdateWatermark(ctx context.Context, id uuid.UUID, kind WatermarkKind, t time.Time) error
}

// OrderStateRepository defines persistence for remote order states
type OrderStateRepository interface {
	// FindByCode returns the state of a channel with the given remote code
	FindByCode(ctx context.Context, channelID uuid.UUID, code string) (*OrderState, error)

	// FindByChannel returns every known state of a channel
	FindByChannel(ctx context.Context, channelID uuid.UUID) ([]OrderState, error)

	// Save creates or updates a state
	Save(ctx context.Context, state *OrderState) error
}

// CarrierRepository defines persistence for carrier mappings
type CarrierRepository interface {
	// FindByCode returns the mapping of a remote shipping method code
	FindByCode(ctx context.Context, channelID uuid.UUID, code string) (*Carrier, error)

	// FindByLocalCarrier returns the mapping bound to a local carrier name
	FindByLocalCarrier(ctx context.Context, channelID uuid.UUID, localCarrier string) (*Carrier, error)

	// Save creates or updates a mapping
	Save(ctx context.Context, carrier *Carrier) error
}
