package catalog

import (
	"strings"

	"github.com/erp/channelsync/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListingTier is a listing-specific quantity break with its precomputed price
type ListingTier struct {
	ID       uuid.UUID
	Quantity float64
	Price    decimal.Decimal
}

// Listing binds a product to a channel under the remote product identifier
type Listing struct {
	shared.BaseEntity
	ChannelID         uuid.UUID
	ProductID         uuid.UUID
	ProductCode       string
	ProductIdentifier string
	Tiers             []ListingTier
}

// NewListing links a product to a channel
func NewListing(channelID uuid.UUID, product *Product, identifier string) (*Listing, error) {
	if product == nil {
		return nil, ErrProductNotFound
	}
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_IDENTIFIER", "Remote product identifier cannot be empty")
	}
	return &Listing{
		BaseEntity:        shared.NewBaseEntity(),
		ChannelID:         channelID,
		ProductID:         product.ID,
		ProductCode:       product.Code,
		ProductIdentifier: identifier,
	}, nil
}

// HasTiers returns true when the listing overrides the channel tiers
func (l *Listing) HasTiers() bool {
	return len(l.Tiers) > 0
}

// AddTier adds a listing-specific tier; quantities are unique per listing
func (l *Listing) AddTier(quantity float64, price decimal.Decimal) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_PRICE_TIER", "Tier quantity must be positive")
	}
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Tier price cannot be negative")
	}
	for _, t := range l.Tiers {
		if t.Quantity == quantity {
			return shared.NewDomainError("DUPLICATE_PRICE_TIER", "Quantity already defined for this listing")
		}
	}
	l.Tiers = append(l.Tiers, ListingTier{ID: uuid.New(), Quantity: quantity, Price: price})
	l.Touch()
	return nil
}
