package models

import (
	"github.com/erp/channelsync/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product domain entity.
type ProductModel struct {
	AggregateModel
	Code        string                `gorm:"type:varchar(64);not null;uniqueIndex"`
	Name        string                `gorm:"type:varchar(200);not null"`
	Description string                `gorm:"type:text"`
	Type        catalog.ProductType   `gorm:"type:varchar(20);not null;default:'goods'"`
	ListPrice   decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	CategoryID  *uuid.UUID            `gorm:"type:uuid;index"`
	Status      catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot: m.aggregate(),
		Code:              m.Code,
		Name:              m.Name,
		Description:       m.Description,
		Type:              m.Type,
		ListPrice:         m.ListPrice,
		CategoryID:        m.CategoryID,
		Status:            m.Status,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.setAggregate(p.BaseAggregateRoot)
	m.Code = p.Code
	m.Name = p.Name
	m.Description = p.Description
	m.Type = p.Type
	m.ListPrice = p.ListPrice
	m.CategoryID = p.CategoryID
	m.Status = p.Status
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// ListingModel binds a product to a channel under its remote identifier.
type ListingModel struct {
	BaseModel
	ChannelID         uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_listing_channel_product,priority:1"`
	ProductID         uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_listing_channel_product,priority:2"`
	ProductCode       string             `gorm:"type:varchar(64);not null;index"`
	ProductIdentifier string             `gorm:"type:varchar(64);not null"`
	Tiers             []ListingTierModel `gorm:"foreignKey:ListingID;references:ID"`
}

// TableName returns the table name for GORM
func (ListingModel) TableName() string {
	return "channel_listings"
}

// ToDomain converts the persistence model to a domain Listing.
func (m *ListingModel) ToDomain() *catalog.Listing {
	l := &catalog.Listing{
		BaseEntity:        m.Entity(),
		ChannelID:         m.ChannelID,
		ProductID:         m.ProductID,
		ProductCode:       m.ProductCode,
		ProductIdentifier: m.ProductIdentifier,
	}
	for _, t := range m.Tiers {
		l.Tiers = append(l.Tiers, catalog.ListingTier{ID: t.ID, Quantity: t.Quantity, Price: t.Price})
	}
	return l
}

// ListingModelFromDomain creates a new persistence model from a domain Listing.
func ListingModelFromDomain(l *catalog.Listing) *ListingModel {
	m := &ListingModel{
		ChannelID:         l.ChannelID,
		ProductID:         l.ProductID,
		ProductCode:       l.ProductCode,
		ProductIdentifier: l.ProductIdentifier,
		Tiers:             make([]ListingTierModel, len(l.Tiers)),
	}
	m.setEntity(l.BaseEntity)
	for i, t := range l.Tiers {
		m.Tiers[i] = ListingTierModel{ID: t.ID, ListingID: l.ID, Quantity: t.Quantity, Price: t.Price}
	}
	return m
}

// ListingTierModel is a listing-specific tier with its precomputed price.
type ListingTierModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	ListingID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_listing_tier_quantity,priority:1"`
	Quantity  float64         `gorm:"not null;uniqueIndex:idx_listing_tier_quantity,priority:2"`
	Price     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (ListingTierModel) TableName() string {
	return "channel_listing_tiers"
}

// CategoryModel is the persistence model for the Category domain entity.
type CategoryModel struct {
	AggregateModel
	Code      string     `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name      string     `gorm:"type:varchar(100);not null"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index"`
	Path      string     `gorm:"type:varchar(500);not null;index"`
	Level     int        `gorm:"not null;default:0"`
	ChannelID *uuid.UUID `gorm:"type:uuid;index:idx_category_remote,priority:1"`
	RemoteID  *int       `gorm:"index:idx_category_remote,priority:2"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category entity.
func (m *CategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{
		BaseAggregateRoot: m.aggregate(),
		Code:              m.Code,
		Name:              m.Name,
		ParentID:          m.ParentID,
		Path:              m.Path,
		Level:             m.Level,
		ChannelID:         m.ChannelID,
		RemoteID:          m.RemoteID,
	}
}

// CategoryModelFromDomain creates a new persistence model from a domain Category entity.
func CategoryModelFromDomain(c *catalog.Category) *CategoryModel {
	m := &CategoryModel{
		Code:      c.Code,
		Name:      c.Name,
		ParentID:  c.ParentID,
		Path:      c.Path,
		Level:     c.Level,
		ChannelID: c.ChannelID,
		RemoteID:  c.RemoteID,
	}
	m.setAggregate(c.BaseAggregateRoot)
	return m
}

// PriceListModel is the persistence model for a price list with its rules.
type PriceListModel struct {
	BaseModel
	Name  string               `gorm:"type:varchar(100);not null"`
	Rules []PriceListRuleModel `gorm:"foreignKey:PriceListID;references:ID"`
}

// TableName returns the table name for GORM
func (PriceListModel) TableName() string {
	return "price_lists"
}

// ToDomain converts the persistence model to a domain PriceList.
func (m *PriceListModel) ToDomain() *catalog.PriceList {
	pl := &catalog.PriceList{
		BaseEntity: m.Entity(),
		Name:       m.Name,
	}
	for _, r := range m.Rules {
		pl.Rules = append(pl.Rules, catalog.PriceListRule{MinQuantity: r.MinQuantity, DiscountPercent: r.DiscountPercent})
	}
	return pl
}

// PriceListModelFromDomain creates a new persistence model from a domain PriceList.
func PriceListModelFromDomain(pl *catalog.PriceList) *PriceListModel {
	m := &PriceListModel{Name: pl.Name, Rules: make([]PriceListRuleModel, len(pl.Rules))}
	m.setEntity(pl.BaseEntity)
	for i, r := range pl.Rules {
		m.Rules[i] = PriceListRuleModel{
			PriceListID:     pl.ID,
			Sequence:        i,
			MinQuantity:     r.MinQuantity,
			DiscountPercent: r.DiscountPercent,
		}
	}
	return m
}

// PriceListRuleModel is one ordered rule of a price list.
type PriceListRuleModel struct {
	PriceListID     uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Sequence        int             `gorm:"primaryKey;autoIncrement:false"`
	MinQuantity     float64         `gorm:"not null;default:0"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (PriceListRuleModel) TableName() string {
	return "price_list_rules"
}
