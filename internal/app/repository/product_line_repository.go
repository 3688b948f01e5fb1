package repository

import (
	"github.com/pixelsock/matrix-configurator-backend/internal/app/model"
	"github.com/pixelsock/matrix-configurator-backend/pkg/logger"
	"gorm.io/gorm"
)

type ProductLineRepository interface {
	Create(line *model.ProductLine) error
	FindAllActive() ([]model.ProductLine, error)
	FindBySlug(slug string) (*model.ProductLine, error)
	FindByID(id uint) (*model.ProductLine, error)
}

type productLineRepository struct {
	db *gorm.DB
}

func NewProductLineRepository(db *gorm.DB) ProductLineRepository {
	return &productLineRepository{db: db}
}

func (r *productLineRepository) Create(line *model.ProductLine) error {
	if err := r.db.Create(line).Error; err != nil {
		logger.Error("Failed to create product line", err, map[string]interface{}{
			"slug": line.Slug,
		})
		return err
	}
	return nil
}

func (r *productLineRepository) FindAllActive() ([]model.ProductLine, error) {
	var lines []model.ProductLine
	if err := r.db.Where("active = ?", true).Order("name ASC").Find(&lines).Error; err != nil {
		logger.Error("Failed to list product lines", err, nil)
		return nil, err
	}
	return lines, nil
}

func (r *productLineRepository) baseQuery() *gorm.DB {
	return r.db.Model(&model.ProductLine{}).
		Preload("Categories", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("DefaultOptions").
		Preload("DefaultOptions.Option")
}

func (r *productLineRepository) FindBySlug(slug string) (*model.ProductLine, error) {
	logger.Debug("Finding product line by slug", map[string]interface{}{
		"slug": slug,
	})

	var line model.ProductLine
	if err := r.baseQuery().Where("slug = ?", slug).First(&line).Error; err != nil {
		logger.Error("Failed to find product line by slug", err, map[string]interface{}{
			"slug": slug,
		})
		return nil, err
	}
	return &line, nil
}

func (r *productLineRepository) FindByID(id uint) (*model.ProductLine, error) {
	var line model.ProductLine
	if err := r.baseQuery().First(&line, id).Error; err != nil {
		logger.Error("Failed to find product line by ID", err, map[string]interface{}{
			"product_line_id": id,
		})
		return nil, err
	}
	return &line, nil
}
