package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceList_Compute(t *testing.T) {
	pl, err := NewPriceList("Retail")
	require.NoError(t, err)
	require.NoError(t, pl.AddRule(10, decimal.NewFromInt(10)))
	require.NoError(t, pl.AddRule(1, decimal.Zero))
	require.NoError(t, pl.AddRule(100, decimal.NewFromInt(25)))

	listPrice := decimal.NewFromInt(20)
	unit := DefaultUnit()

	tests := []struct {
		name     string
		quantity float64
		uom      UnitOfMeasure
		want     string
	}{
		{"below every rule", 0.5, unit, "20"},
		{"first rule", 1, unit, "20"},
		{"middle rule", 10, unit, "18"},
		{"between rules", 99, unit, "18"},
		{"top rule", 250, unit, "15"},
		{"converted to base unit", 10, UnitOfMeasure{Code: "dozen", ConversionRate: decimal.NewFromInt(12)}, "15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pl.Compute(listPrice, tt.quantity, tt.uom)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestPriceList_AddRule(t *testing.T) {
	pl, err := NewPriceList("Retail")
	require.NoError(t, err)

	require.NoError(t, pl.AddRule(5, decimal.NewFromInt(5)))
	require.NoError(t, pl.AddRule(5, decimal.NewFromInt(7)))
	require.Len(t, pl.Rules, 1)
	assert.True(t, pl.Rules[0].DiscountPercent.Equal(decimal.NewFromInt(7)))

	assert.Error(t, pl.AddRule(-1, decimal.Zero))
	assert.Error(t, pl.AddRule(1, decimal.NewFromInt(101)))

	_, err = NewPriceList("")
	assert.Error(t, err)
}

func TestNewUnitOfMeasure(t *testing.T) {
	u, err := NewUnitOfMeasure("box", decimal.NewFromInt(6))
	require.NoError(t, err)
	assert.True(t, u.ConvertToBaseUnit(decimal.NewFromInt(2)).Equal(decimal.NewFromInt(12)))

	_, err = NewUnitOfMeasure("", decimal.NewFromInt(1))
	assert.Error(t, err)
	_, err = NewUnitOfMeasure("box", decimal.Zero)
	assert.Error(t, err)
}
