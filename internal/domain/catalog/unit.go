package catalog

import (
	"strings"

	"github.com/erp/channelsync/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultUnitCode is the base counting unit
const DefaultUnitCode = "unit"

// UnitOfMeasure is a sales unit with its conversion rate to the base unit
type UnitOfMeasure struct {
	Code           string
	ConversionRate decimal.Decimal
}

// DefaultUnit returns the base unit with a conversion rate of one
func DefaultUnit() UnitOfMeasure {
	return UnitOfMeasure{Code: DefaultUnitCode, ConversionRate: decimal.NewFromInt(1)}
}

// NewUnitOfMeasure creates a unit after validating its code and rate
func NewUnitOfMeasure(code string, conversionRate decimal.Decimal) (UnitOfMeasure, error) {
	code = strings.TrimSpace(code)
	if err := validateUnitCode(code); err != nil {
		return UnitOfMeasure{}, err
	}
	if err := validateConversionRate(conversionRate); err != nil {
		return UnitOfMeasure{}, err
	}
	return UnitOfMeasure{Code: code, ConversionRate: conversionRate}, nil
}

// ConvertToBaseUnit converts quantity from this unit to base unit
// Formula: baseQuantity = quantity * conversionRate
func (u UnitOfMeasure) ConvertToBaseUnit(quantity decimal.Decimal) decimal.Decimal {
	if u.ConversionRate.IsZero() {
		return quantity
	}
	return quantity.Mul(u.ConversionRate).Round(4)
}

func validateUnitCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_UNIT_CODE", "Unit code cannot be empty")
	}
	if len(code) > 20 {
		return shared.NewDomainError("INVALID_UNIT_CODE", "Unit code cannot exceed 20 characters")
	}
	return nil
}

func validateConversionRate(rate decimal.Decimal) error {
	if !rate.IsPositive() {
		return shared.NewDomainError("INVALID_CONVERSION_RATE", "Conversion rate must be positive")
	}
	return nil
}
