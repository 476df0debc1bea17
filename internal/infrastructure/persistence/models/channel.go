package models

import (
	"time"

	"github.com/erp/channelsync/internal/domain/catalog"
	"github.com/erp/channelsync/internal/domain/channel"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChannelModel is the persistence model for the Channel aggregate.
// A store is identified by (url, website_id, store_id).
type ChannelModel struct {
	AggregateModel
	Name                       string            `gorm:"type:varchar(100);not null"`
	Source                     channel.Source    `gorm:"type:varchar(20);not null;index"`
	MagentoURL                 string            `gorm:"column:magento_url;type:varchar(255);uniqueIndex:idx_channel_store,priority:1"`
	MagentoAPIUser             string            `gorm:"column:magento_api_user;type:varchar(100)"`
	MagentoAPIKey              string            `gorm:"column:magento_api_key;type:varchar(255)"`
	MagentoWebsiteID           int               `gorm:"column:magento_website_id;uniqueIndex:idx_channel_store,priority:2"`
	MagentoWebsiteName         string            `gorm:"column:magento_website_name;type:varchar(100)"`
	MagentoWebsiteCode         string            `gorm:"column:magento_website_code;type:varchar(50)"`
	MagentoStoreID             int               `gorm:"column:magento_store_id;uniqueIndex:idx_channel_store,priority:3"`
	MagentoStoreName           string            `gorm:"column:magento_store_name;type:varchar(100)"`
	MagentoRootCategoryID      int               `gorm:"column:magento_root_category_id;not null;default:1"`
	MagentoOrderPrefix         string            `gorm:"column:magento_order_prefix;type:varchar(20);not null;default:'mag_'"`
	ExportTrackingInformation  bool              `gorm:"not null;default:false"`
	LastOrderImportTime        *time.Time        `gorm:"column:last_order_import_time"`
	LastOrderExportTime        *time.Time        `gorm:"column:last_order_export_time"`
	LastProductExportTime      *time.Time        `gorm:"column:last_product_export_time"`
	LastShipmentExportTime     *time.Time        `gorm:"column:last_shipment_export_time"`
	LastProductPriceExportTime *time.Time        `gorm:"column:last_product_price_export_time"`
	PriceListID                *uuid.UUID        `gorm:"type:uuid"`
	DefaultUOM                 string            `gorm:"column:default_uom;type:varchar(20);not null;default:'unit'"`
	DefaultUOMRate             decimal.Decimal   `gorm:"column:default_uom_rate;type:decimal(18,6);not null;default:1"`
	PriceTiers                 []PriceTierModel  `gorm:"foreignKey:ChannelID;references:ID"`
	Taxes                      []TaxMappingModel `gorm:"foreignKey:ChannelID;references:ID"`
}

// TableName returns the table name for GORM
func (ChannelModel) TableName() string {
	return "channels"
}

// ToDomain converts the persistence model to a domain Channel.
func (m *ChannelModel) ToDomain() *channel.Channel {
	ch := &channel.Channel{
		BaseAggregateRoot: m.aggregate(),
		Name:              m.Name,
		Source:            m.Source,
		Magento: channel.MagentoSettings{
			URL:                       m.MagentoURL,
			APIUser:                   m.MagentoAPIUser,
			APIKey:                    m.MagentoAPIKey,
			WebsiteID:                 m.MagentoWebsiteID,
			WebsiteName:               m.MagentoWebsiteName,
			WebsiteCode:               m.MagentoWebsiteCode,
			StoreID:                   m.MagentoStoreID,
			StoreName:                 m.MagentoStoreName,
			RootCategoryID:            m.MagentoRootCategoryID,
			OrderPrefix:               m.MagentoOrderPrefix,
			ExportTrackingInformation: m.ExportTrackingInformation,
		},
		Watermarks: channel.Watermarks{
			LastOrderImportTime:        utcPtr(m.LastOrderImportTime),
			LastOrderExportTime:        utcPtr(m.LastOrderExportTime),
			LastProductExportTime:      utcPtr(m.LastProductExportTime),
			LastShipmentExportTime:     utcPtr(m.LastShipmentExportTime),
			LastProductPriceExportTime: utcPtr(m.LastProductPriceExportTime),
		},
		PriceListID: m.PriceListID,
		DefaultUOM:  catalog.UnitOfMeasure{Code: m.DefaultUOM, ConversionRate: m.DefaultUOMRate},
	}
	for _, t := range m.PriceTiers {
		ch.PriceTiers = append(ch.PriceTiers, channel.PriceTier{ID: t.ID, Quantity: t.Quantity})
	}
	for _, t := range m.Taxes {
		ch.Taxes = append(ch.Taxes, channel.TaxMapping{ID: t.ID, TaxPercent: t.TaxPercent, TaxCodes: splitCodes(t.TaxCodes)})
	}
	return ch
}

// FromDomain populates the persistence model from a domain Channel.
func (m *ChannelModel) FromDomain(ch *channel.Channel) {
	m.setAggregate(ch.BaseAggregateRoot)
	m.Name = ch.Name
	m.Source = ch.Source
	m.MagentoURL = ch.Magento.URL
	m.MagentoAPIUser = ch.Magento.APIUser
	m.MagentoAPIKey = ch.Magento.APIKey
	m.MagentoWebsiteID = ch.Magento.WebsiteID
	m.MagentoWebsiteName = ch.Magento.WebsiteName
	m.MagentoWebsiteCode = ch.Magento.WebsiteCode
	m.MagentoStoreID = ch.Magento.StoreID
	m.MagentoStoreName = ch.Magento.StoreName
	m.MagentoRootCategoryID = ch.Magento.RootCategoryID
	m.MagentoOrderPrefix = ch.Magento.OrderPrefix
	m.ExportTrackingInformation = ch.Magento.ExportTrackingInformation
	m.LastOrderImportTime = ch.Watermarks.LastOrderImportTime
	m.LastOrderExportTime = ch.Watermarks.LastOrderExportTime
	m.LastProductExportTime = ch.Watermarks.LastProductExportTime
	m.LastShipmentExportTime = ch.Watermarks.LastShipmentExportTime
	m.LastProductPriceExportTime = ch.Watermarks.LastProductPriceExportTime
	m.PriceListID = ch.PriceListID
	m.DefaultUOM = ch.DefaultUOM.Code
	m.DefaultUOMRate = ch.DefaultUOM.ConversionRate

	m.PriceTiers = make([]PriceTierModel, len(ch.PriceTiers))
	for i, t := range ch.PriceTiers {
		m.PriceTiers[i] = PriceTierModel{ID: t.ID, ChannelID: ch.ID, Quantity: t.Quantity}
	}
	m.Taxes = make([]TaxMappingModel, len(ch.Taxes))
	for i, t := range ch.Taxes {
		m.Taxes[i] = TaxMappingModel{ID: t.ID, ChannelID: ch.ID, TaxPercent: t.TaxPercent, TaxCodes: joinCodes(t.TaxCodes)}
	}
}

// ChannelModelFromDomain creates a new persistence model from a domain Channel.
func ChannelModelFromDomain(ch *channel.Channel) *ChannelModel {
	m := &ChannelModel{}
	m.FromDomain(ch)
	return m
}

// PriceTierModel is a default tier quantity of a channel, unique per channel.
type PriceTierModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	ChannelID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_price_tier_channel_quantity,priority:1"`
	Quantity  float64   `gorm:"not null;uniqueIndex:idx_price_tier_channel_quantity,priority:2"`
}

// TableName returns the table name for GORM
func (PriceTierModel) TableName() string {
	return "channel_price_tiers"
}

// TaxMappingModel maps a remote tax rate of a channel to local tax codes.
type TaxMappingModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	ChannelID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	TaxPercent decimal.Decimal `gorm:"type:decimal(8,4);not null"`
	TaxCodes   string          `gorm:"type:varchar(255);not null;default:''"`
}

// TableName returns the table name for GORM
func (TaxMappingModel) TableName() string {
	return "channel_tax_mappings"
}

// OrderStateModel is the persistence model for a channel order state.
type OrderStateModel struct {
	BaseModel
	ChannelID      uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_order_state_channel_code,priority:1"`
	Code           string                 `gorm:"type:varchar(50);not null;uniqueIndex:idx_order_state_channel_code,priority:2"`
	Name           string                 `gorm:"type:varchar(100);not null"`
	Action         channel.OrderAction    `gorm:"type:varchar(30);not null"`
	InvoiceMethod  channel.InvoiceMethod  `gorm:"type:varchar(20);not null"`
	ShipmentMethod channel.ShipmentMethod `gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for GORM
func (OrderStateModel) TableName() string {
	return "channel_order_states"
}

// ToDomain converts the persistence model to a domain OrderState.
func (m *OrderStateModel) ToDomain() *channel.OrderState {
	return &channel.OrderState{
		BaseEntity:     m.Entity(),
		ChannelID:      m.ChannelID,
		Code:           m.Code,
		Name:           m.Name,
		Action:         m.Action,
		InvoiceMethod:  m.InvoiceMethod,
		ShipmentMethod: m.ShipmentMethod,
	}
}

// OrderStateModelFromDomain creates a new persistence model from a domain OrderState.
func OrderStateModelFromDomain(s *channel.OrderState) *OrderStateModel {
	m := &OrderStateModel{
		ChannelID:      s.ChannelID,
		Code:           s.Code,
		Name:           s.Name,
		Action:         s.Action,
		InvoiceMethod:  s.InvoiceMethod,
		ShipmentMethod: s.ShipmentMethod,
	}
	m.setEntity(s.BaseEntity)
	return m
}

// CarrierModel is the persistence model for a channel carrier mapping.
type CarrierModel struct {
	BaseModel
	ChannelID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_carrier_channel_code,priority:1"`
	Code         string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_carrier_channel_code,priority:2"`
	Title        string    `gorm:"type:varchar(200);not null"`
	LocalCarrier string    `gorm:"type:varchar(100);not null;default:'';index"`
}

// TableName returns the table name for GORM
func (CarrierModel) TableName() string {
	return "channel_carriers"
}

// ToDomain converts the persistence model to a domain Carrier.
func (m *CarrierModel) ToDomain() *channel.Carrier {
	return &channel.Carrier{
		BaseEntity:   m.Entity(),
		ChannelID:    m.ChannelID,
		Code:         m.Code,
		Title:        m.Title,
		LocalCarrier: m.LocalCarrier,
	}
}

// CarrierModelFromDomain creates a new persistence model from a domain Carrier.
func CarrierModelFromDomain(c *channel.Carrier) *CarrierModel {
	m := &CarrierModel{
		ChannelID:    c.ChannelID,
		Code:         c.Code,
		Title:        c.Title,
		LocalCarrier: c.LocalCarrier,
	}
	m.setEntity(c.BaseEntity)
	return m
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
