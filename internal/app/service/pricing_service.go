package service

import (
	"github.com/shopspring/decimal"

	"github.com/pixelsock/matrix-configurator-backend/internal/app/model"
)

// PriceSummary is the number the UI shows next to the configuration:
// line base price plus selected option modifiers, times quantity.
type PriceSummary struct {
	Base      decimal.Decimal `json:"base"`
	Modifiers decimal.Decimal `json:"modifiers"`
	Unit      decimal.Decimal `json:"unit"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

// PricingService summarizes the price of a configuration. Quote
// collection and export are deliberately elsewhere; this only computes.
type PricingService interface {
	Summarize(config model.Configuration, snapshot *CatalogSnapshot) PriceSummary
}

type pricingService struct{}

func NewPricingService() PricingService {
	return &pricingService{}
}

func (s *pricingService) Summarize(config model.Configuration, snapshot *CatalogSnapshot) PriceSummary {
	modifiers := decimal.Zero

	for _, category := range snapshot.CategoryOrder() {
		if category == model.CategoryAccessory {
			for _, id := range config.Accessories {
				if option, ok := snapshot.OptionByID(category, id); ok {
					modifiers = modifiers.Add(option.PriceModifier)
				}
			}
			continue
		}
		if selected, ok := config.Selected(category); ok {
			if option, found := snapshot.OptionByID(category, selected); found {
				modifiers = modifiers.Add(option.PriceModifier)
			}
		}
	}

	quantity := config.Quantity
	if quantity < 1 {
		quantity = 1
	}

	unit := snapshot.Line.BasePrice.Add(modifiers)
	return PriceSummary{
		Base:      snapshot.Line.BasePrice,
		Modifiers: modifiers,
		Unit:      unit,
		Quantity:  quantity,
		Total:     unit.Mul(decimal.NewFromInt(int64(quantity))),
	}
}
