package catalog

import "github.com/erp/channelsync/internal/domain/shared"

var (
	// ErrProductNotFound is returned when no product has the requested code
	ErrProductNotFound = shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
	// ErrListingNotFound is returned when a product is not listed on a channel
	ErrListingNotFound = shared.NewDomainError("LISTING_NOT_FOUND", "Product listing not found")
	// ErrCategoryNotFound is returned when a category lookup misses
	ErrCategoryNotFound = shared.NewDomainError("CATEGORY_NOT_FOUND", "Category not found")
	// ErrPriceListNotFound is returned when a price list lookup misses
	ErrPriceListNotFound = shared.NewDomainError("PRICE_LIST_NOT_FOUND", "Price list not found")
	// ErrEmptySKU is returned when a product code is blank after trimming
	ErrEmptySKU = shared.NewDomainError("INVALID_PRODUCT_CODE", "Product code cannot be empty")
)
