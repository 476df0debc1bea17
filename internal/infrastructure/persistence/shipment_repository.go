package persistence

import (
	"context"

	"github.com/erp/channelsync/internal/domain/trade"
	"github.com/erp/channelsync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormShipmentRepository implements trade.ShipmentRepository using GORM.
// Both updates use UpdateColumn so the shipment's updated_at is preserved.
type GormShipmentRepository struct {
	db *gorm.DB
}

// NewGormShipmentRepository creates a new GormShipmentRepository
func NewGormShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

var _ trade.ShipmentRepository = (*GormShipmentRepository)(nil)

// SetRemoteIncrementID writes the storefront shipment id on every shipment of the sale
func (r *GormShipmentRepository) SetRemoteIncrementID(ctx context.Context, saleID uuid.UUID, incrementID string) error {
	return r.db.WithContext(ctx).
		Model(&models.ShipmentModel{}).
		Where("sale_id = ?", saleID).
		UpdateColumn("remote_increment_id", incrementID).Error
}

// MarkTrackingExported flags the tracking number of a shipment as sent
func (r *GormShipmentRepository) MarkTrackingExported(ctx context.Context, shipmentID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.ShipmentModel{}).
		Where("id = ?", shipmentID).
		UpdateColumn("tracking_exported", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return trade.ErrShipmentNotFound
	}
	return nil
}
