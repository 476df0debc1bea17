package catalog

import (
	"sort"
	"strings"

	"github.com/erp/channelsync/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PriceListRule discounts the list price from a minimum quantity upwards
type PriceListRule struct {
	MinQuantity     float64
	DiscountPercent decimal.Decimal
}

// PriceList computes unit prices from list prices and ordered quantities
type PriceList struct {
	shared.BaseEntity
	Name  string
	Rules []PriceListRule
}

// NewPriceList creates an empty price list
func NewPriceList(name string) (*PriceList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Price list name cannot be empty")
	}
	return &PriceList{BaseEntity: shared.NewBaseEntity(), Name: name}, nil
}

// AddRule adds a quantity rule; a rule for the same minimum quantity is replaced
func (pl *PriceList) AddRule(minQuantity float64, discountPercent decimal.Decimal) error {
	if minQuantity < 0 {
		return shared.NewDomainError("INVALID_PRICE_RULE", "Minimum quantity cannot be negative")
	}
	if discountPercent.IsNegative() || discountPercent.GreaterThan(hundred) {
		return shared.NewDomainError("INVALID_PRICE_RULE", "Discount must be between 0 and 100 percent")
	}
	for i := range pl.Rules {
		if pl.Rules[i].MinQuantity == minQuantity {
			pl.Rules[i].DiscountPercent = discountPercent
			return nil
		}
	}
	pl.Rules = append(pl.Rules, PriceListRule{MinQuantity: minQuantity, DiscountPercent: discountPercent})
	sort.Slice(pl.Rules, func(i, j int) bool { return pl.Rules[i].MinQuantity < pl.Rules[j].MinQuantity })
	return nil
}

// Compute returns the unit price for quantity expressed in uom.
// The rule with the highest minimum not above the base quantity wins.
func (pl *PriceList) Compute(listPrice decimal.Decimal, quantity float64, uom UnitOfMeasure) decimal.Decimal {
	base := uom.ConvertToBaseUnit(decimal.NewFromFloat(quantity))

	var match *PriceListRule
	for i := range pl.Rules {
		if decimal.NewFromFloat(pl.Rules[i].MinQuantity).LessThanOrEqual(base) {
			match = &pl.Rules[i]
		}
	}
	if match == nil {
		return listPrice
	}
	factor := hundred.Sub(match.DiscountPercent).Div(hundred)
	return listPrice.Mul(factor).Round(4)
}
