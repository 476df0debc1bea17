package models

import (
	"time"

	"github.com/erp/channelsync/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleModel is the persistence model for the Sale aggregate.
type SaleModel struct {
	AggregateModel
	ChannelID      uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_sale_channel_reference,priority:1"`
	Reference      string              `gorm:"type:varchar(64);not null;uniqueIndex:idx_sale_channel_reference,priority:2"`
	RemoteID       *int                `gorm:"index"`
	State          trade.SaleState     `gorm:"type:varchar(20);not null;default:'draft';index"`
	ShipmentState  trade.ShipmentState `gorm:"type:varchar(20);not null;default:'none'"`
	RemoteState    string              `gorm:"type:varchar(50)"`
	CustomerName   string              `gorm:"type:varchar(200)"`
	CustomerEmail  string              `gorm:"type:varchar(200)"`
	Currency       string              `gorm:"type:varchar(3)"`
	ShippingAmount decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Lines          []SaleLineModel     `gorm:"foreignKey:SaleID;references:ID"`
	Shipments      []ShipmentModel     `gorm:"foreignKey:SaleID;references:ID"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale.
func (m *SaleModel) ToDomain() *trade.Sale {
	sale := &trade.Sale{
		BaseAggregateRoot: m.aggregate(),
		ChannelID:         m.ChannelID,
		Reference:         m.Reference,
		RemoteID:          m.RemoteID,
		State:             m.State,
		ShipmentState:     m.ShipmentState,
		RemoteState:       m.RemoteState,
		CustomerName:      m.CustomerName,
		CustomerEmail:     m.CustomerEmail,
		Currency:          m.Currency,
		ShippingAmount:    m.ShippingAmount,
	}
	for i := range m.Lines {
		sale.Lines = append(sale.Lines, m.Lines[i].ToDomain())
	}
	for i := range m.Shipments {
		sale.Shipments = append(sale.Shipments, m.Shipments[i].ToDomain())
	}
	return sale
}

// FromDomain populates the persistence model from a domain Sale.
func (m *SaleModel) FromDomain(s *trade.Sale) {
	m.setAggregate(s.BaseAggregateRoot)
	m.ChannelID = s.ChannelID
	m.Reference = s.Reference
	m.RemoteID = s.RemoteID
	m.State = s.State
	m.ShipmentState = s.ShipmentState
	m.RemoteState = s.RemoteState
	m.CustomerName = s.CustomerName
	m.CustomerEmail = s.CustomerEmail
	m.Currency = s.Currency
	m.ShippingAmount = s.ShippingAmount

	m.Lines = make([]SaleLineModel, len(s.Lines))
	for i := range s.Lines {
		m.Lines[i] = SaleLineModelFromDomain(s.ID, &s.Lines[i])
	}
	m.Shipments = make([]ShipmentModel, len(s.Shipments))
	for i := range s.Shipments {
		m.Shipments[i] = ShipmentModelFromDomain(s.ID, &s.Shipments[i])
	}
}

// SaleModelFromDomain creates a new persistence model from a domain Sale.
func SaleModelFromDomain(s *trade.Sale) *SaleModel {
	m := &SaleModel{}
	m.FromDomain(s)
	return m
}

// SaleLineModel is the persistence model for a sale line.
type SaleLineModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	RemoteID    *int            `gorm:"index"`
	ProductCode string          `gorm:"type:varchar(64);not null"`
	Description string          `gorm:"type:varchar(255)"`
	Quantity    float64         `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TaxCodes    string          `gorm:"type:varchar(255);not null;default:''"`
}

// TableName returns the table name for GORM
func (SaleLineModel) TableName() string {
	return "sale_lines"
}

// ToDomain converts the persistence model to a domain SaleLine.
func (m *SaleLineModel) ToDomain() trade.SaleLine {
	return trade.SaleLine{
		ID:          m.ID,
		SaleID:      m.SaleID,
		RemoteID:    m.RemoteID,
		ProductCode: m.ProductCode,
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		TaxCodes:    splitCodes(m.TaxCodes),
	}
}

// SaleLineModelFromDomain creates a persistence model for a line of a sale.
func SaleLineModelFromDomain(saleID uuid.UUID, l *trade.SaleLine) SaleLineModel {
	return SaleLineModel{
		ID:          l.ID,
		SaleID:      saleID,
		RemoteID:    l.RemoteID,
		ProductCode: l.ProductCode,
		Description: l.Description,
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
		TaxCodes:    joinCodes(l.TaxCodes),
	}
}

// ShipmentModel is the persistence model for an outgoing shipment.
type ShipmentModel struct {
	ID                uuid.UUID            `gorm:"type:uuid;primary_key"`
	SaleID            uuid.UUID            `gorm:"type:uuid;not null;index"`
	State             trade.ShipmentStatus `gorm:"type:varchar(20);not null;default:'draft'"`
	Carrier           string               `gorm:"type:varchar(100)"`
	TrackingNumber    string               `gorm:"type:varchar(100)"`
	RemoteIncrementID string               `gorm:"type:varchar(50);not null;default:''"`
	TrackingExported  bool                 `gorm:"not null;default:false"`
	Moves             []MoveModel          `gorm:"foreignKey:ShipmentID;references:ID"`
	UpdatedAt         time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ShipmentModel) TableName() string {
	return "shipments"
}

// ToDomain converts the persistence model to a domain Shipment.
func (m *ShipmentModel) ToDomain() trade.Shipment {
	s := trade.Shipment{
		ID:                m.ID,
		SaleID:            m.SaleID,
		State:             m.State,
		Carrier:           m.Carrier,
		TrackingNumber:    m.TrackingNumber,
		RemoteIncrementID: m.RemoteIncrementID,
		TrackingExported:  m.TrackingExported,
		UpdatedAt:         m.UpdatedAt,
	}
	for _, mv := range m.Moves {
		s.Moves = append(s.Moves, trade.Move{
			ID:         mv.ID,
			ShipmentID: mv.ShipmentID,
			SaleLineID: mv.SaleLineID,
			Quantity:   mv.Quantity,
		})
	}
	return s
}

// ShipmentModelFromDomain creates a persistence model for a shipment of a sale.
func ShipmentModelFromDomain(saleID uuid.UUID, s *trade.Shipment) ShipmentModel {
	m := ShipmentModel{
		ID:                s.ID,
		SaleID:            saleID,
		State:             s.State,
		Carrier:           s.Carrier,
		TrackingNumber:    s.TrackingNumber,
		RemoteIncrementID: s.RemoteIncrementID,
		TrackingExported:  s.TrackingExported,
		UpdatedAt:         s.UpdatedAt,
		Moves:             make([]MoveModel, len(s.Moves)),
	}
	for i, mv := range s.Moves {
		m.Moves[i] = MoveModel{ID: mv.ID, ShipmentID: s.ID, SaleLineID: mv.SaleLineID, Quantity: mv.Quantity}
	}
	return m
}

// MoveModel is one product movement of a shipment.
type MoveModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key"`
	ShipmentID uuid.UUID  `gorm:"type:uuid;not null;index"`
	SaleLineID *uuid.UUID `gorm:"type:uuid"`
	Quantity   float64    `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MoveModel) TableName() string {
	return "stock_moves"
}
