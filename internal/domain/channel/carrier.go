package channel

import (
	"strings"

	"github.com/erp/channelsync/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomCarrierCode is the Magento carrier code used when no mapping exists
const CustomCarrierCode = "custom"

// Carrier maps a remote shipping method of a channel to a local carrier
type Carrier struct {
	shared.BaseEntity
	ChannelID uuid.UUID
	Code      string
	Title     string
	// LocalCarrier is the name of the local carrier, empty until bound
	LocalCarrier string
}

// NewCarrier creates a carrier mapping for a remote shipping method
func NewCarrier(channelID uuid.UUID, code, title string) (*Carrier, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CARRIER", "Carrier code cannot be empty")
	}
	return &Carrier{
		BaseEntity: shared.NewBaseEntity(),
		ChannelID:  channelID,
		Code:       code,
		Title:      title,
	}, nil
}

// Bind links the mapping to a local carrier
func (c *Carrier) Bind(localCarrier string) {
	c.LocalCarrier = localCarrier
	c.Touch()
}
