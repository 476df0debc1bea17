package channel

import (
	"strings"

	"github.com/erp/channelsync/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderAction is what the ERP does with an imported order in a given remote state
type OrderAction string

const (
	OrderActionProcessManually      OrderAction = "process_manually"
	OrderActionProcessAutomatically OrderAction = "process_automatically"
	OrderActionImportAsPast         OrderAction = "import_as_past"
	OrderActionDoNotImport          OrderAction = "do_not_import"
)

// InvoiceMethod controls when invoices are created for an imported sale
type InvoiceMethod string

const (
	InvoiceMethodOrder    InvoiceMethod = "order"
	InvoiceMethodShipment InvoiceMethod = "shipment"
	InvoiceMethodManual   InvoiceMethod = "manual"
)

// ShipmentMethod controls when shipments are created for an imported sale
type ShipmentMethod string

const (
	ShipmentMethodOrder   ShipmentMethod = "order"
	ShipmentMethodInvoice ShipmentMethod = "invoice"
	ShipmentMethodManual  ShipmentMethod = "manual"
)

// DefaultAction is the local handling suggested for a remote order state
type DefaultAction struct {
	Action         OrderAction
	InvoiceMethod  InvoiceMethod
	ShipmentMethod ShipmentMethod
}

// DefaultActionForState maps a Magento order state code to its default local action
func DefaultActionForState(code string) DefaultAction {
	switch code {
	case "new", "holded":
		return DefaultAction{OrderActionProcessManually, InvoiceMethodOrder, ShipmentMethodOrder}
	case "pending_payment", "payment_review":
		return DefaultAction{OrderActionImportAsPast, InvoiceMethodOrder, ShipmentMethodInvoice}
	case "closed", "complete":
		return DefaultAction{OrderActionImportAsPast, InvoiceMethodOrder, ShipmentMethodOrder}
	case "processing":
		return DefaultAction{OrderActionProcessAutomatically, InvoiceMethodOrder, ShipmentMethodOrder}
	default:
		return DefaultAction{OrderActionDoNotImport, InvoiceMethodManual, ShipmentMethodManual}
	}
}

// OrderState is a remote order state known on a channel
type OrderState struct {
	shared.BaseEntity
	ChannelID      uuid.UUID
	Code           string
	Name           string
	Action         OrderAction
	InvoiceMethod  InvoiceMethod
	ShipmentMethod ShipmentMethod
}

// NewOrderState creates an order state with the default action for its code
func NewOrderState(channelID uuid.UUID, code, name string) (*OrderState, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_STATE", "Order state code cannot be empty")
	}
	def := DefaultActionForState(code)
	return &OrderState{
		BaseEntity:     shared.NewBaseEntity(),
		ChannelID:      channelID,
		Code:           code,
		Name:           name,
		Action:         def.Action,
		InvoiceMethod:  def.InvoiceMethod,
		ShipmentMethod: def.ShipmentMethod,
	}, nil
}

// Importable reports whether orders in this state are pulled on import
func (s *OrderState) Importable() bool {
	return s.Action != OrderActionDoNotImport
}
