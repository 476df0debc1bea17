package trade

import (
	"strconv"
	"strings"

	"github.com/erp/channelsync/internal/domain/channel"
	"github.com/erp/channelsync/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleState represents the status of a sale
type SaleState string

const (
	SaleStateDraft      SaleState = "draft"
	SaleStateQuotation  SaleState = "quotation"
	SaleStateConfirmed  SaleState = "confirmed"
	SaleStateProcessing SaleState = "processing"
	SaleStateDone       SaleState = "done"
	SaleStateCancelled  SaleState = "cancelled"
)

// IsValid checks if the state is a valid SaleState
func (s SaleState) IsValid() bool {
	switch s {
	case SaleStateDraft, SaleStateQuotation, SaleStateConfirmed,
		SaleStateProcessing, SaleStateDone, SaleStateCancelled:
		return true
	}
	return false
}

// IsTerminal returns true for states a sale never leaves
func (s SaleState) IsTerminal() bool {
	return s == SaleStateDone || s == SaleStateCancelled
}

// ShipmentState summarizes the shipping progress of a sale
type ShipmentState string

const (
	ShipmentStateNone      ShipmentState = "none"
	ShipmentStateWaiting   ShipmentState = "waiting"
	ShipmentStateSent      ShipmentState = "sent"
	ShipmentStateException ShipmentState = "exception"
)

// StateForAction returns the initial state of a sale imported with the given action
func StateForAction(action channel.OrderAction) SaleState {
	switch action {
	case channel.OrderActionProcessAutomatically:
		return SaleStateConfirmed
	case channel.OrderActionImportAsPast:
		return SaleStateDone
	default:
		return SaleStateDraft
	}
}

// SaleLine represents a line of a sale.
// RemoteID is the storefront order item id the line was imported from.
type SaleLine struct {
	ID          uuid.UUID
	SaleID      uuid.UUID
	RemoteID    *int
	ProductCode string
	Description string
	Quantity    float64
	UnitPrice   decimal.Decimal
	TaxCodes    []string
}

// Amount returns quantity times unit price
func (l *SaleLine) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromFloat(l.Quantity)).Round(2)
}

// Sale is a customer order, usually imported from a channel
type Sale struct {
	shared.BaseAggregateRoot
	ChannelID      uuid.UUID
	Reference      string
	RemoteID       *int
	State          SaleState
	ShipmentState  ShipmentState
	RemoteState    string
	CustomerName   string
	CustomerEmail  string
	Currency       string
	ShippingAmount decimal.Decimal
	Lines          []SaleLine
	Shipments      []Shipment
}

// NewSale creates a draft sale for a channel
func NewSale(channelID uuid.UUID, reference string) (*Sale, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Sale reference cannot be empty")
	}
	return &Sale{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ChannelID:         channelID,
		Reference:         reference,
		State:             SaleStateDraft,
		ShipmentState:     ShipmentStateNone,
		ShippingAmount:    decimal.Zero,
	}, nil
}

// AddLine appends a line; remoteID may be nil for lines created locally
func (s *Sale) AddLine(productCode, description string, quantity float64, unitPrice decimal.Decimal, remoteID *int) (*SaleLine, error) {
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Line quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	s.Lines = append(s.Lines, SaleLine{
		ID:          uuid.New(),
		SaleID:      s.ID,
		RemoteID:    remoteID,
		ProductCode: productCode,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
	})
	s.Touch()
	return &s.Lines[len(s.Lines)-1], nil
}

// Line returns the line with the given id, nil when missing
func (s *Sale) Line(id uuid.UUID) *SaleLine {
	for i := range s.Lines {
		if s.Lines[i].ID == id {
			return &s.Lines[i]
		}
	}
	return nil
}

// Total returns the sum of line amounts plus shipping
func (s *Sale) Total() decimal.Decimal {
	total := s.ShippingAmount
	for i := range s.Lines {
		total = total.Add(s.Lines[i].Amount())
	}
	return total
}

// HasShipments returns true when at least one shipment exists
func (s *Sale) HasShipments() bool {
	return len(s.Shipments) > 0
}

// HasRemoteOrder returns true when the sale is linked to a storefront order
func (s *Sale) HasRemoteOrder() bool {
	return s.RemoteID != nil
}

// ShipmentItemsQty sums the shipment's moves per originating remote order item.
// Moves whose sale line carries no remote id are left out.
func (s *Sale) ShipmentItemsQty(shipment *Shipment) map[string]float64 {
	items := make(map[string]float64)
	for _, move := range shipment.Moves {
		if move.SaleLineID == nil {
			continue
		}
		line := s.Line(*move.SaleLineID)
		if line == nil || line.RemoteID == nil {
			continue
		}
		items[strconv.Itoa(*line.RemoteID)] += move.Quantity
	}
	return items
}

// ApplyRemoteState moves the sale to the local state matching a storefront
// order state and reports whether anything changed
func (s *Sale) ApplyRemoteState(remoteState string) bool {
	changed := s.RemoteState != remoteState
	s.RemoteState = remoteState

	if !s.State.IsTerminal() {
		target := s.State
		switch remoteState {
		case "canceled":
			target = SaleStateCancelled
		case "complete", "closed":
			target = SaleStateDone
		case "processing":
			if s.State == SaleStateConfirmed {
				target = SaleStateProcessing
			}
		}
		if target != s.State {
			s.State = target
			changed = true
		}
	}

	if changed {
		s.Touch()
		s.IncrementVersion()
	}
	return changed
}

// RemoteStatus returns the storefront status matching the local state.
// cancel is true when the remote order must be cancelled instead of commented.
// An empty status means there is nothing to push.
func (s *Sale) RemoteStatus() (status string, cancel bool) {
	switch s.State {
	case SaleStateCancelled:
		return "canceled", true
	case SaleStateDone:
		return "complete", false
	case SaleStateConfirmed, SaleStateProcessing:
		return "processing", false
	default:
		return "", false
	}
}
