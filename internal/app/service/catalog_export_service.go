package service

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/pixelsock/matrix-configurator-backend/internal/app/model"
	"github.com/pixelsock/matrix-configurator-backend/pkg/logger"
)

// CatalogExportService renders a product line's variant matrix - every
// catalog row with its option names and assembled SKU - as an xlsx sheet.
type CatalogExportService interface {
	ExportVariantMatrix(snapshot *CatalogSnapshot) ([]byte, error)
}

type catalogExportService struct {
	sku SKUService
}

func NewCatalogExportService(skuService SKUService) CatalogExportService {
	return &catalogExportService{sku: skuService}
}

func (s *catalogExportService) ExportVariantMatrix(snapshot *CatalogSnapshot) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	sheet := "Variants"
	if err := file.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []interface{}{"Product", "SKU"}
	for _, category := range model.ProductCategories {
		header = append(header, string(category))
	}
	if err := file.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i := range snapshot.Products {
		product := &snapshot.Products[i]

		config := model.NewConfiguration(snapshot.Line.ID)
		for _, category := range model.ProductCategories {
			if value, ok := product.CategoryValue(category); ok {
				config.Select(category, value)
			}
		}

		overrides := mergeSKUOverrides(product, nil)
		row := []interface{}{product.Name, s.sku.Build(config, snapshot, overrides)}
		for _, category := range model.ProductCategories {
			row = append(row, s.optionName(snapshot, category, product))
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := file.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write variant row: %w", err)
		}
	}

	var buffer bytes.Buffer
	if err := file.Write(&buffer); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	logger.Info("Variant matrix exported", map[string]interface{}{
		"product_line": snapshot.Line.Slug,
		"variants":     len(snapshot.Products),
	})
	return buffer.Bytes(), nil
}

func (s *catalogExportService) optionName(snapshot *CatalogSnapshot, category model.OptionCategory, product *model.Product) string {
	value, ok := product.CategoryValue(category)
	if !ok {
		return ""
	}
	if option, found := snapshot.OptionByID(category, value); found {
		return option.Name
	}
	return fmt.Sprintf("#%d", value)
}
