package channel

import (
	"errors"

	"github.com/erp/channelsync/internal/domain/shared"
)

var (
	// ErrInvalidMagentoChannel is returned when a Magento-only operation runs on another source
	ErrInvalidMagentoChannel = shared.NewDomainError("INVALID_CHANNEL", "Current channel does not belong to Magento")
	// ErrChannelNotFound is returned when a channel lookup misses
	ErrChannelNotFound = shared.NewDomainError("CHANNEL_NOT_FOUND", "Channel not found")
	// ErrInvalidSource is returned for unknown channel sources
	ErrInvalidSource = shared.NewDomainError("INVALID_SOURCE", "Unknown channel source")
	// ErrInvalidChannelName is returned for blank channel names
	ErrInvalidChannelName = shared.NewDomainError("INVALID_NAME", "Channel name cannot be empty")
	// ErrInvalidMagentoSettings is returned when store settings fail validation
	ErrInvalidMagentoSettings = shared.NewDomainError("INVALID_MAGENTO_SETTINGS", "Magento store settings are incomplete or invalid")
	// ErrDuplicatePriceTier is returned when a tier quantity is defined twice on a channel
	ErrDuplicatePriceTier = shared.NewDomainError("DUPLICATE_PRICE_TIER", "Quantity already defined for this channel")
	// ErrInvalidPriceTier is returned for non-positive tier quantities
	ErrInvalidPriceTier = shared.NewDomainError("INVALID_PRICE_TIER", "Tier quantity must be positive")
	// ErrOrderStateNotFound is returned when no order state exists for a code
	ErrOrderStateNotFound = shared.NewDomainError("ORDER_STATE_NOT_FOUND", "Order state not found")
	// ErrCarrierNotFound is returned when no carrier mapping matches
	ErrCarrierNotFound = shared.NewDomainError("CARRIER_NOT_FOUND", "Carrier mapping not found")

	// ErrUnknownWatermark is a programming error: the kind is not one of the five watermarks
	ErrUnknownWatermark = errors.New("channel: unknown watermark kind")
)
