package integration

import (
	"time"

	"github.com/erp/channelsync/internal/domain/catalog"
	"github.com/erp/channelsync/internal/domain/integration"
)

// SyncFailureDTO describes an item skipped by a sync run
type SyncFailureDTO struct {
	ItemID       string `json:"item_id"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message"`
}

// SyncResultDTO is the response of a sync run
type SyncResultDTO struct {
	Operation      string           `json:"operation"`
	ChannelID      string           `json:"channel_id"`
	Status         string           `json:"status"`
	ProcessedCount int              `json:"processed_count"`
	Items          []string         `json:"items"`
	FailedItems    []SyncFailureDTO `json:"failed_items,omitempty"`
	StartedAt      time.Time        `json:"started_at"`
	SyncedAt       time.Time        `json:"synced_at"`
}

// ToSyncResultDTO converts a domain sync result
func ToSyncResultDTO(r *integration.SyncResult) SyncResultDTO {
	dto := SyncResultDTO{
		Operation:      r.Operation.String(),
		ChannelID:      r.ChannelID.String(),
		Status:         string(r.Status()),
		ProcessedCount: r.ProcessedCount(),
		Items:          r.Items,
		StartedAt:      r.StartedAt,
		SyncedAt:       r.SyncedAt,
	}
	if dto.Items == nil {
		dto.Items = []string{}
	}
	for _, f := range r.FailedItems {
		dto.FailedItems = append(dto.FailedItems, SyncFailureDTO{
			ItemID:       f.ItemID,
			ErrorCode:    f.ErrorCode,
			ErrorMessage: f.ErrorMessage,
		})
	}
	return dto
}

// ImportProductRequest is the body of a single product import
type ImportProductRequest struct {
	SKU string `json:"sku" binding:"required,max=64"`
}

// ProductDTO is the response of a single product import
type ProductDTO struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	ListPrice string `json:"list_price"`
	Status    string `json:"status"`
}

// ToProductDTO converts a catalog product
func ToProductDTO(p *catalog.Product) ProductDTO {
	return ProductDTO{
		ID:        p.ID.String(),
		Code:      p.Code,
		Name:      p.Name,
		Type:      string(p.Type),
		ListPrice: p.ListPrice.StringFixed(2),
		Status:    string(p.Status),
	}
}
