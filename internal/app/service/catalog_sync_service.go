package service

import (
	"context"
	"errors"

	"github.com/pixelsock/matrix-configurator-backend/internal/app/model"
	"github.com/pixelsock/matrix-configurator-backend/internal/app/repository"
	"github.com/pixelsock/matrix-configurator-backend/pkg/directus"
	"github.com/pixelsock/matrix-configurator-backend/pkg/logger"
	"gorm.io/gorm"
)

var ErrRemoteSyncUnavailable = errors.New("remote catalog sync not configured")

// CatalogSyncService refreshes the local catalog mirror from the hosted
// backend. Option reference data is seeded locally; products and rules
// are the volatile collections worth pulling.
type CatalogSyncService interface {
	SyncProductLine(ctx context.Context, slug string) error
	SyncAll(ctx context.Context) error
}

type catalogSyncService struct {
	remote      *directus.Client
	lineRepo    repository.ProductLineRepository
	productRepo repository.ProductRepository
	ruleRepo    repository.RuleRepository
	catalog     CatalogService
}

func NewCatalogSyncService(
	remote *directus.Client,
	lineRepo repository.ProductLineRepository,
	productRepo repository.ProductRepository,
	ruleRepo repository.RuleRepository,
	catalog CatalogService,
) CatalogSyncService {
	return &catalogSyncService{
		remote:      remote,
		lineRepo:    lineRepo,
		productRepo: productRepo,
		ruleRepo:    ruleRepo,
		catalog:     catalog,
	}
}

func (s *catalogSyncService) SyncProductLine(ctx context.Context, slug string) error {
	if s.remote == nil {
		return ErrRemoteSyncUnavailable
	}

	logger.Info("Syncing product line from remote backend", map[string]interface{}{
		"product_line": slug,
	})

	line, err := s.lineRepo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductLineNotFound
		}
		return err
	}

	remoteLine, err := s.remote.GetProductLine(ctx, slug)
	if err != nil {
		logger.Error("Failed to fetch product line from remote backend", err, map[string]interface{}{
			"product_line": slug,
		})
		return err
	}

	remoteProducts, err := s.remote.ListProducts(ctx, remoteLine.ID)
	if err != nil {
		logger.Error("Failed to fetch products from remote backend", err, map[string]interface{}{
			"product_line": slug,
		})
		return err
	}

	remoteRules, err := s.remote.ListRules(ctx, remoteLine.ID)
	if err != nil {
		logger.Error("Failed to fetch rules from remote backend", err, map[string]interface{}{
			"product_line": slug,
		})
		return err
	}

	products := make([]model.Product, 0, len(remoteProducts))
	for _, item := range remoteProducts {
		products = append(products, mapRemoteProduct(item, line.ID))
	}
	if err := s.productRepo.ReplaceForProductLine(line.ID, products); err != nil {
		logger.Error("Failed to replace products from remote backend", err, map[string]interface{}{
			"product_line": slug,
		})
		return err
	}

	rules := make([]model.Rule, 0, len(remoteRules))
	for _, item := range remoteRules {
		rules = append(rules, model.Rule{
			Name:     item.Name,
			Priority: item.Priority,
			IfThis:   string(item.IfThis),
			ThenThat: string(item.ThenThat),
		})
	}
	if err := s.ruleRepo.ReplaceForProductLine(line.ID, rules); err != nil {
		logger.Error("Failed to replace rules from remote backend", err, map[string]interface{}{
			"product_line": slug,
		})
		return err
	}

	s.catalog.Invalidate(ctx, slug)

	logger.Info("Product line synced from remote backend", map[string]interface{}{
		"product_line": slug,
		"products":     len(products),
		"rules":        len(rules),
	})
	return nil
}

func (s *catalogSyncService) SyncAll(ctx context.Context) error {
	if s.remote == nil {
		return ErrRemoteSyncUnavailable
	}

	lines, err := s.lineRepo.FindAllActive()
	if err != nil {
		return err
	}

	var firstErr error
	for _, line := range lines {
		if err := s.SyncProductLine(ctx, line.Slug); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func mapRemoteProduct(item directus.ProductItem, productLineID uint) model.Product {
	product := model.Product{
		ProductLineID:      productLineID,
		Name:               item.Name,
		SKUCode:            item.SKUCode,
		Active:             item.Active,
		MirrorStyleID:      item.MirrorStyle,
		LightDirectionID:   item.LightDirection,
		SizeID:             item.Size,
		FrameColorID:       item.FrameColor,
		FrameThicknessID:   item.FrameThickness,
		VerticalImageURL:   item.VerticalImage,
		HorizontalImageURL: item.HorizontalImage,
	}
	for _, override := range item.OptionOverrides {
		product.OptionOverrides = append(product.OptionOverrides, model.ProductOptionOverride{
			Category: model.OptionCategory(override.Category),
			OptionID: override.Option,
		})
	}
	for _, override := range item.SKUOverrides {
		product.SKUOverrides = append(product.SKUOverrides, model.ProductSKUOverride{
			Category: model.OptionCategory(override.Category),
			Code:     override.Code,
		})
	}
	return product
}
