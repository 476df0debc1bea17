package persistence

import (
	"context"
	"time"

	"github.com/erp/channelsync/internal/domain/catalog"
	"github.com/erp/channelsync/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)

// FindByCode finds a product by its SKU
func (r *GormProductRepository) FindByCode(ctx context.Context, code string) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error; err != nil {
		return nil, translateNotFound(err, catalog.ErrProductNotFound)
	}
	return model.ToDomain(), nil
}

// FindWithCodeModifiedSince returns products with a code modified at or after since
func (r *GormProductRepository) FindWithCodeModifiedSince(ctx context.Context, since *time.Time) ([]catalog.Product, error) {
	query := r.db.WithContext(ctx).Where("code <> ''")
	if since != nil {
		query = query.Where("updated_at >= ?", since.UTC())
	}

	var rows []models.ProductModel
	if err := query.Order("updated_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Save(models.ProductModelFromDomain(product)).Error
}
