package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProductRepository defines persistence for products
type ProductRepository interface {
	// FindByCode finds a product by its SKU
	FindByCode(ctx context.Context, code string) (*Product, error)

	// FindWithCodeModifiedSince returns products that have a code and were
	// modified at or after since; a nil since returns all of them
	FindWithCodeModifiedSince(ctx context.Context, since *time.Time) ([]Product, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error
}

// ListingRepository defines persistence for channel listings
type ListingRepository interface {
	// FindByProductCode finds the listing of a SKU on a channel
	FindByProductCode(ctx context.Context, channelID uuid.UUID, code string) (*Listing, error)

	// FindByChannelModifiedSince returns listings of a channel whose product was
	// modified at or after since; a nil since returns every listing
	FindByChannelModifiedSince(ctx context.Context, channelID uuid.UUID, since *time.Time) ([]Listing, error)

	// Save creates or updates a listing with its tiers
	Save(ctx context.Context, listing *Listing) error
}

// CategoryRepository defines persistence for categories
type CategoryRepository interface {
	// FindByID finds a category by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)

	// FindByCode finds a category by its code
	FindByCode(ctx context.Context, code string) (*Category, error)

	// FindByRemoteID finds the local mirror of a channel category
	FindByRemoteID(ctx context.Context, channelID uuid.UUID, remoteID int) (*Category, error)

	// FindChildren finds all direct children of a category
	FindChildren(ctx context.Context, parentID uuid.UUID) ([]Category, error)

	// Save creates or updates a category
	Save(ctx context.Context, category *Category) error
}

// PriceListRepository defines persistence for price lists
type PriceListRepository interface {
	// FindByID loads a price list with its rules
	FindByID(ctx context.Context, id uuid.UUID) (*PriceList, error)

	// Save creates or updates a price list with its rules
	Save(ctx context.Context, priceList *PriceList) error
}
