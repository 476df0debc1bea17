package trade

import "github.com/erp/channelsync/internal/domain/shared"

var (
	ErrSaleNotFound     = shared.NewDomainError("SALE_NOT_FOUND", "Sale not found")
	ErrShipmentNotFound = shared.NewDomainError("SHIPMENT_NOT_FOUND", "Shipment not found")
)
