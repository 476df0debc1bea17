package persistence

import (
	"context"

	"github.com/erp/channelsync/internal/domain/channel"
	"github.com/erp/channelsync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCarrierRepository implements channel.CarrierRepository using GORM
type GormCarrierRepository struct {
	db *gorm.DB
}

// NewGormCarrierRepository creates a new GormCarrierRepository
func NewGormCarrierRepository(db *gorm.DB) *GormCarrierRepository {
	return &GormCarrierRepository{db: db}
}

var _ channel.CarrierRepository = (*GormCarrierRepository)(nil)

// FindByCode returns the mapping of a remote shipping method code
func (r *GormCarrierRepository) FindByCode(ctx context.Context, channelID uuid.UUID, code string) (*channel.Carrier, error) {
	return r.findOne(ctx, "channel_id = ? AND code = ?", channelID, code)
}

// FindByLocalCarrier returns the mapping bound to a local carrier name
func (r *GormCarrierRepository) FindByLocalCarrier(ctx context.Context, channelID uuid.UUID, localCarrier string) (*channel.Carrier, error) {
	return r.findOne(ctx, "channel_id = ? AND local_carrier = ?", channelID, localCarrier)
}

func (r *GormCarrierRepository) findOne(ctx context.Context, query string, args ...any) (*channel.Carrier, error) {
	var model models.CarrierModel
	if err := r.db.WithContext(ctx).Where(query, args...).Order("code ASC").First(&model).Error; err != nil {
		return nil, translateNotFound(err, channel.ErrCarrierNotFound)
	}
	return model.ToDomain(), nil
}

// Save creates or updates a mapping
func (r *GormCarrierRepository) Save(ctx context.Context, carrier *channel.Carrier) error {
	return r.db.WithContext(ctx).Save(models.CarrierModelFromDomain(carrier)).Error
}
