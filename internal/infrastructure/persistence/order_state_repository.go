package persistence

import (
	"context"

	"github.com/erp/channelsync/internal/domain/channel"
	"github.com/erp/channelsync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOrderStateRepository implements channel.OrderStateRepository using GORM
type GormOrderStateRepository struct {
	db *gorm.DB
}

// NewGormOrderStateRepository creates a new GormOrderStateRepository
func NewGormOrderStateRepository(db *gorm.DB) *GormOrderStateRepository {
	return &GormOrderStateRepository{db: db}
}

var _ channel.OrderStateRepository = (*GormOrderStateRepository)(nil)

// FindByCode returns the state of a channel with the given remote code
func (r *GormOrderStateRepository) FindByCode(ctx context.Context, channelID uuid.UUID, code string) (*channel.OrderState, error) {
	var model models.OrderStateModel
	err := r.db.WithContext(ctx).
		Where("channel_id = ? AND code = ?", channelID, code).
		First(&model).Error
	if err != nil {
		return nil, translateNotFound(err, channel.ErrOrderStateNotFound)
	}
	return model.ToDomain(), nil
}

// FindByChannel returns every known state of a channel
func (r *GormOrderStateRepository) FindByChannel(ctx context.Context, channelID uuid.UUID) ([]channel.OrderState, error) {
	var rows []models.OrderStateModel
	if err := r.db.WithContext(ctx).Where("channel_id = ?", channelID).Order("code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	states := make([]channel.OrderState, len(rows))
	for i := range rows {
		states[i] = *rows[i].ToDomain()
	}
	return states, nil
}

// Save creates or updates a state
func (r *GormOrderStateRepository) Save(ctx context.Context, state *channel.OrderState) error {
	return r.db.WithContext(ctx).Save(models.OrderStateModelFromDomain(state)).Error
}
