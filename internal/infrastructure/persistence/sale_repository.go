package persistence

import (
	"context"
	"time"

	"github.com/erp/channelsync/internal/domain/trade"
	"github.com/erp/channelsync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSaleRepository implements trade.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

var _ trade.SaleRepository = (*GormSaleRepository)(nil)

// withChildren preloads lines and shipments with their moves
func (r *GormSaleRepository) withChildren(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Shipments", func(db *gorm.DB) *gorm.DB { return db.Order("updated_at ASC") }).
		Preload("Shipments.Moves")
}

// FindByID finds a sale by its ID
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	var model models.SaleModel
	if err := r.withChildren(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, trade.ErrSaleNotFound)
	}
	return model.ToDomain(), nil
}

// FindByReference finds the sale of a channel by its order reference
func (r *GormSaleRepository) FindByReference(ctx context.Context, channelID uuid.UUID, reference string) (*trade.Sale, error) {
	var model models.SaleModel
	err := r.withChildren(ctx).
		Where("channel_id = ? AND reference = ?", channelID, reference).
		First(&model).Error
	if err != nil {
		return nil, translateNotFound(err, trade.ErrSaleNotFound)
	}
	return model.ToDomain(), nil
}

// FindModifiedSince returns sales of the channel updated at or after since
func (r *GormSaleRepository) FindModifiedSince(ctx context.Context, channelID uuid.UUID, since *time.Time) ([]trade.Sale, error) {
	query := r.withChildren(ctx).Where("channel_id = ?", channelID)
	if since != nil {
		query = query.Where("updated_at >= ?", since.UTC())
	}
	return r.find(query)
}

// FindShippedModifiedSince returns storefront sales of the channel that are
// sent, own at least one shipment, and were updated at or after since
func (r *GormSaleRepository) FindShippedModifiedSince(ctx context.Context, channelID uuid.UUID, since *time.Time) ([]trade.Sale, error) {
	query := r.withChildren(ctx).
		Where("channel_id = ? AND shipment_state = ? AND remote_id IS NOT NULL", channelID, trade.ShipmentStateSent).
		Where("EXISTS (SELECT 1 FROM shipments WHERE shipments.sale_id = sales.id)")
	if since != nil {
		query = query.Where("updated_at >= ?", since.UTC())
	}
	return r.find(query)
}

// FindByStates returns sales of the channel in any of the given states
func (r *GormSaleRepository) FindByStates(ctx context.Context, channelID uuid.UUID, states []trade.SaleState) ([]trade.Sale, error) {
	if len(states) == 0 {
		return nil, nil
	}
	return r.find(r.withChildren(ctx).Where("channel_id = ? AND state IN ?", channelID, states))
}

func (r *GormSaleRepository) find(query *gorm.DB) ([]trade.Sale, error) {
	var rows []models.SaleModel
	if err := query.Order("updated_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	sales := make([]trade.Sale, len(rows))
	for i := range rows {
		sales[i] = *rows[i].ToDomain()
	}
	return sales, nil
}

// Save creates or updates a sale with its lines, shipments and moves
func (r *GormSaleRepository) Save(ctx context.Context, sale *trade.Sale) error {
	model := models.SaleModelFromDomain(sale)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}

		lineIDs := idsOf(model.Lines, func(l models.SaleLineModel) any { return l.ID })
		staleLines := tx.Where("sale_id = ?", model.ID)
		if len(lineIDs) > 0 {
			staleLines = staleLines.Where("id NOT IN ?", lineIDs)
		}
		if err := staleLines.Delete(&models.SaleLineModel{}).Error; err != nil {
			return err
		}
		for i := range model.Lines {
			if err := tx.Save(&model.Lines[i]).Error; err != nil {
				return err
			}
		}

		shipmentIDs := idsOf(model.Shipments, func(s models.ShipmentModel) any { return s.ID })
		staleShipments := tx.Where("sale_id = ?", model.ID)
		if len(shipmentIDs) > 0 {
			staleShipments = staleShipments.Where("id NOT IN ?", shipmentIDs)
		}
		var removed []uuid.UUID
		if err := staleShipments.Model(&models.ShipmentModel{}).Pluck("id", &removed).Error; err != nil {
			return err
		}
		if len(removed) > 0 {
			if err := tx.Where("shipment_id IN ?", removed).Delete(&models.MoveModel{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", removed).Delete(&models.ShipmentModel{}).Error; err != nil {
				return err
			}
		}
		for i := range model.Shipments {
			if err := saveShipment(tx, &model.Shipments[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func saveShipment(tx *gorm.DB, shipment *models.ShipmentModel) error {
	if err := tx.Omit(clause.Associations).Save(shipment).Error; err != nil {
		return err
	}
	moveIDs := idsOf(shipment.Moves, func(m models.MoveModel) any { return m.ID })
	stale := tx.Where("shipment_id = ?", shipment.ID)
	if len(moveIDs) > 0 {
		stale = stale.Where("id NOT IN ?", moveIDs)
	}
	if err := stale.Delete(&models.MoveModel{}).Error; err != nil {
		return err
	}
	for i := range shipment.Moves {
		if err := tx.Save(&shipment.Moves[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
