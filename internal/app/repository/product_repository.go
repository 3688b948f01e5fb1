package repository

import (
	"github.com/pixelsock/matrix-configurator-backend/internal/app/model"
	"github.com/pixelsock/matrix-configurator-backend/pkg/logger"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(product *model.Product) error
	FindByProductLine(productLineID uint) ([]model.Product, error)
	FindByID(id uint) (*model.Product, error)
	ReplaceForProductLine(productLineID uint, products []model.Product) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *model.Product) error {
	if err := r.db.Create(product).Error; err != nil {
		logger.Error("Failed to create product", err, map[string]interface{}{
			"sku_code":        product.SKUCode,
			"product_line_id": product.ProductLineID,
		})
		return err
	}
	return nil
}

func (r *productRepository) baseQuery() *gorm.DB {
	return r.db.Model(&model.Product{}).
		Preload("OptionOverrides").
		Preload("SKUOverrides")
}

func (r *productRepository) FindByProductLine(productLineID uint) ([]model.Product, error) {
	logger.Debug("Finding products for product line", map[string]interface{}{
		"product_line_id": productLineID,
	})

	var products []model.Product
	err := r.baseQuery().
		Where("product_line_id = ?", productLineID).
		Order("id ASC").
		Find(&products).Error
	if err != nil {
		logger.Error("Failed to find products for product line", err, map[string]interface{}{
			"product_line_id": productLineID,
		})
		return nil, err
	}

	logger.Debug("Products found for product line", map[string]interface{}{
		"product_line_id": productLineID,
		"count":           len(products),
	})
	return products, nil
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	var product model.Product
	if err := r.baseQuery().First(&product, id).Error; err != nil {
		logger.Error("Failed to find product by ID", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}
	return &product, nil
}

// ReplaceForProductLine swaps the line's catalog rows wholesale, used by
// the remote sync path.
func (r *productRepository) ReplaceForProductLine(productLineID uint, products []model.Product) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_line_id = ?", productLineID).Delete(&model.Product{}).Error; err != nil {
			return err
		}
		for i := range products {
			products[i].ProductLineID = productLineID
			if err := tx.Create(&products[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
