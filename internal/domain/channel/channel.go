package channel

import (
	"strings"
	"time"

	"github.com/erp/channelsync/internal/domain/catalog"
	"github.com/erp/channelsync/internal/domain/shared"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// DefaultOrderPrefix is prepended to Magento increment ids to form sale references
	DefaultOrderPrefix = "mag_"
	// DefaultRootCategoryID is the Magento root category mirrored on category import
	DefaultRootCategoryID = 1
)

var settingsValidator = validator.New()

// MagentoSettings holds the store credentials and scoping of a Magento channel
type MagentoSettings struct {
	URL                       string `validate:"required,url"`
	APIUser                   string `validate:"required"`
	APIKey                    string `validate:"required"`
	WebsiteID                 int    `validate:"gte=0"`
	WebsiteName               string
	WebsiteCode               string
	StoreID                   int `validate:"gte=0"`
	StoreName                 string
	RootCategoryID            int `validate:"gte=1"`
	OrderPrefix               string
	ExportTrackingInformation bool
}

// Validate checks that the settings are usable for remote calls
func (s MagentoSettings) Validate() error {
	if err := settingsValidator.Struct(s); err != nil {
		return shared.WrapDomainError(ErrInvalidMagentoSettings.Code, ErrInvalidMagentoSettings.Message, err)
	}
	return nil
}

// PriceTier is a quantity break exported as a Magento tier price
type PriceTier struct {
	ID       uuid.UUID
	Quantity float64
}

// TaxMapping binds a remote tax percentage to local tax codes
type TaxMapping struct {
	ID         uuid.UUID
	TaxPercent decimal.Decimal
	TaxCodes   []string
}

// Channel is a sale channel bound to a remote storefront
type Channel struct {
	shared.BaseAggregateRoot
	Name        string
	Source      Source
	Magento     MagentoSettings
	Watermarks  Watermarks
	PriceTiers  []PriceTier
	Taxes       []TaxMapping
	PriceListID *uuid.UUID
	DefaultUOM  catalog.UnitOfMeasure
}

// NewChannel creates a channel of the given source
func NewChannel(name string, source Source) (*Channel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidChannelName
	}
	if !source.IsValid() {
		return nil, ErrInvalidSource
	}
	return &Channel{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Source:            source,
		DefaultUOM:        catalog.DefaultUnit(),
	}, nil
}

// NewMagentoChannel creates a Magento channel, filling the store defaults
func NewMagentoChannel(name string, settings MagentoSettings) (*Channel, error) {
	if settings.OrderPrefix == "" {
		settings.OrderPrefix = DefaultOrderPrefix
	}
	if settings.RootCategoryID == 0 {
		settings.RootCategoryID = DefaultRootCategoryID
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	ch, err := NewChannel(name, SourceMagento)
	if err != nil {
		return nil, err
	}
	ch.Magento = settings
	return ch, nil
}

// IsMagento returns true if the channel talks to a Magento store
func (c *Channel) IsMagento() bool {
	return c.Source == SourceMagento
}

// ValidateMagento fails with ErrInvalidMagentoChannel unless the source is Magento
func (c *Channel) ValidateMagento() error {
	if !c.IsMagento() {
		return ErrInvalidMagentoChannel
	}
	return nil
}

// Watermark returns the checkpoint of the given kind, nil when never run
func (c *Channel) Watermark(kind WatermarkKind) *time.Time {
	return c.Watermarks.Get(kind)
}

// SetWatermark records a new checkpoint
func (c *Channel) SetWatermark(kind WatermarkKind, t time.Time) error {
	return c.Watermarks.Set(kind, t)
}

// OrderReference builds the local sale reference for a Magento increment id
func (c *Channel) OrderReference(incrementID string) string {
	return c.Magento.OrderPrefix + incrementID
}

// IncrementID strips the channel order prefix from a sale reference
func (c *Channel) IncrementID(reference string) string {
	prefix := c.Magento.OrderPrefix
	if prefix != "" && strings.HasPrefix(reference, prefix) {
		return reference[len(prefix):]
	}
	return reference
}

// AddPriceTier adds a default tier; quantities are unique per channel
func (c *Channel) AddPriceTier(quantity float64) error {
	if quantity <= 0 {
		return ErrInvalidPriceTier
	}
	for _, t := range c.PriceTiers {
		if t.Quantity == quantity {
			return ErrDuplicatePriceTier
		}
	}
	c.PriceTiers = append(c.PriceTiers, PriceTier{ID: uuid.New(), Quantity: quantity})
	c.Touch()
	return nil
}

// SetTaxMapping maps a remote tax percentage to local tax codes, replacing an existing mapping
func (c *Channel) SetTaxMapping(percent decimal.Decimal, codes ...string) {
	for i := range c.Taxes {
		if c.Taxes[i].TaxPercent.Equal(percent) {
			c.Taxes[i].TaxCodes = codes
			c.Touch()
			return
		}
	}
	c.Taxes = append(c.Taxes, TaxMapping{ID: uuid.New(), TaxPercent: percent, TaxCodes: codes})
	c.Touch()
}

// TaxesFor returns the local tax codes mapped to a remote tax rate
func (c *Channel) TaxesFor(rate decimal.Decimal) []string {
	for _, t := range c.Taxes {
		if t.TaxPercent.Equal(rate) {
			return t.TaxCodes
		}
	}
	return nil
}
