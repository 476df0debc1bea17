package catalog

import (
	"strings"

	"github.com/erp/channelsync/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxProductCodeLength matches the SKU length limit of the storefronts
const MaxProductCodeLength = 64

// ProductType distinguishes stocked goods from services
type ProductType string

const (
	ProductTypeGoods   ProductType = "goods"
	ProductTypeService ProductType = "service"
)

// ProductTypeFromRemote maps a Magento product type to a local product type
func ProductTypeFromRemote(remoteType string) ProductType {
	switch remoteType {
	case "virtual", "downloadable":
		return ProductTypeService
	default:
		return ProductTypeGoods
	}
}

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product represents a product/SKU in the catalog.
// Code is the SKU shared with every channel the product is listed on.
type Product struct {
	shared.BaseAggregateRoot
	Code        string
	Name        string
	Description string
	Type        ProductType
	ListPrice   decimal.Decimal
	CategoryID  *uuid.UUID
	Status      ProductStatus
}

// NewProduct creates a new product; the code is trimmed and the name falls back to the code
func NewProduct(code, name string) (*Product, error) {
	code = NormalizeSKU(code)
	if err := validateProductCode(code); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = code
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		Type:              ProductTypeGoods,
		ListPrice:         decimal.Zero,
		Status:            ProductStatusActive,
	}, nil
}

// NormalizeSKU trims surrounding whitespace from a SKU
func NormalizeSKU(sku string) string {
	return strings.TrimSpace(sku)
}

// Update updates the product's basic information
func (p *Product) Update(name, description string) error {
	if err := validateProductName(name); err != nil {
		return err
	}

	p.Name = name
	p.Description = description
	p.Touch()
	p.IncrementVersion()

	return nil
}

// SetListPrice sets the public list price
func (p *Product) SetListPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "List price cannot be negative")
	}

	p.ListPrice = price
	p.Touch()
	p.IncrementVersion()

	return nil
}

// SetCategory sets the product category
func (p *Product) SetCategory(categoryID *uuid.UUID) {
	p.CategoryID = categoryID
	p.Touch()
	p.IncrementVersion()
}

// IsActive returns true if the product is active
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// HasCategory returns true if the product has a category assigned
func (p *Product) HasCategory() bool {
	return p.CategoryID != nil
}

// validateProductCode validates the product code (SKU)
func validateProductCode(code string) error {
	if code == "" {
		return ErrEmptySKU
	}
	if len(code) > MaxProductCodeLength {
		return shared.NewDomainError("INVALID_PRODUCT_CODE", "Product code cannot exceed 64 characters")
	}
	return nil
}

// validateProductName validates the product name
func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 255 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 255 characters")
	}
	return nil
}
