package trade

import (
	"time"

	"github.com/google/uuid"
)

// ShipmentStatus is the state of a customer shipment
type ShipmentStatus string

const (
	ShipmentDraft     ShipmentStatus = "draft"
	ShipmentWaiting   ShipmentStatus = "waiting"
	ShipmentAssigned  ShipmentStatus = "assigned"
	ShipmentPacked    ShipmentStatus = "packed"
	ShipmentDone      ShipmentStatus = "done"
	ShipmentCancelled ShipmentStatus = "cancelled"
)

// Move is one product movement of a shipment
type Move struct {
	ID         uuid.UUID
	ShipmentID uuid.UUID
	SaleLineID *uuid.UUID
	Quantity   float64
}

// Shipment is an outgoing customer shipment of a sale
type Shipment struct {
	ID                uuid.UUID
	SaleID            uuid.UUID
	State             ShipmentStatus
	Carrier           string
	TrackingNumber    string
	RemoteIncrementID string
	TrackingExported  bool
	Moves             []Move
	UpdatedAt         time.Time
}

// NewShipment creates a draft shipment for a sale
func NewShipment(saleID uuid.UUID) *Shipment {
	return &Shipment{
		ID:        uuid.New(),
		SaleID:    saleID,
		State:     ShipmentDraft,
		UpdatedAt: time.Now().UTC(),
	}
}

// AddMove ships quantity of the given sale line
func (s *Shipment) AddMove(line *SaleLine, quantity float64) {
	lineID := line.ID
	s.Moves = append(s.Moves, Move{
		ID:         uuid.New(),
		ShipmentID: s.ID,
		SaleLineID: &lineID,
		Quantity:   quantity,
	})
}

// IsExported returns true once the storefront has a shipment for it
func (s *Shipment) IsExported() bool {
	return s.RemoteIncrementID != ""
}

// NeedsTrackingExport returns true when tracking info is known but not pushed yet
func (s *Shipment) NeedsTrackingExport() bool {
	return !s.TrackingExported && s.TrackingNumber != "" && s.Carrier != ""
}
