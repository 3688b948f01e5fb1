package db

import (
	"github.com/pixelsock/matrix-configurator-backend/internal/app/model"
	"github.com/pixelsock/matrix-configurator-backend/pkg/logger"
)

// Migrate runs the schema migrations for the catalog mirror.
func Migrate() error {
	logger.Info("Running database migrations", nil)

	err := DB.AutoMigrate(
		&model.ProductLine{},
		&model.ProductLineCategory{},
		&model.ProductLineOption{},
		&model.Option{},
		&model.Product{},
		&model.ProductOptionOverride{},
		&model.ProductSKUOverride{},
		&model.Rule{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", err, nil)
		return err
	}

	logger.Info("Database migrations completed", nil)
	return nil
}
