package service

import (
	"github.com/pixelsock/matrix-configurator-backend/internal/app/model"
	"github.com/pixelsock/matrix-configurator-backend/pkg/logger"
)

// AvailabilityResult is the catalog-derived availability picture for one
// configuration.
type AvailabilityResult struct {
	// MatchingProducts are the catalog rows compatible with every
	// selected category, in catalog order. Used downstream for product
	// and image selection, never disabled themselves.
	MatchingProducts []model.Product

	// AvailableIDs per category: ids reachable from at least one row that
	// matches all *other* selected categories.
	AvailableIDs map[model.OptionCategory]model.IDSet

	// UnavailableIDs per category: catalog-reachable ids minus available.
	UnavailableIDs map[model.OptionCategory]model.IDSet
}

// AvailabilityEngine filters the product catalog against a partial
// configuration. Pure function of (catalog, configuration).
type AvailabilityEngine interface {
	Compute(catalog []model.Product, config model.Configuration) AvailabilityResult
}

type availabilityEngine struct{}

func NewAvailabilityEngine() AvailabilityEngine {
	return &availabilityEngine{}
}

// matches reports whether a catalog row is compatible with the
// configuration, ignoring the excluded category. Open filtering: only
// categories that are both selected and defined on the row are predicates.
func matches(product *model.Product, config model.Configuration, exclude model.OptionCategory) bool {
	for _, category := range model.ProductCategories {
		if category == exclude {
			continue
		}
		selected, ok := config.Selected(category)
		if !ok {
			continue
		}
		value, defined := product.CategoryValue(category)
		if !defined {
			continue
		}
		if value != selected {
			return false
		}
	}
	return true
}

func (e *availabilityEngine) Compute(catalog []model.Product, config model.Configuration) AvailabilityResult {
	result := AvailabilityResult{
		AvailableIDs:   make(map[model.OptionCategory]model.IDSet),
		UnavailableIDs: make(map[model.OptionCategory]model.IDSet),
	}

	for i := range catalog {
		if !catalog[i].Active {
			continue
		}
		if matches(&catalog[i], config, "") {
			result.MatchingProducts = append(result.MatchingProducts, catalog[i])
		}
	}

	for _, category := range model.ProductCategories {
		available := model.NewIDSet()
		reachable := model.NewIDSet()

		for i := range catalog {
			product := &catalog[i]
			if !product.Active {
				continue
			}
			value, defined := product.CategoryValue(category)
			if !defined {
				continue
			}
			reachable.Add(value)

			// The category's own selection is excluded from the match so
			// a selection never disables itself.
			if matches(product, config, category) {
				available.Add(value)
			}
		}

		if len(reachable) == 0 {
			continue
		}

		unavailable := model.NewIDSet()
		for id := range reachable {
			if !available.Has(id) {
				unavailable.Add(id)
			}
		}

		result.AvailableIDs[category] = available
		result.UnavailableIDs[category] = unavailable
	}

	logger.Debug("Availability computed", map[string]interface{}{
		"matching_products": len(result.MatchingProducts),
		"categories":        len(result.AvailableIDs),
	})
	return result
}
