package service

import (
	"sort"
	"strings"

	"github.com/pixelsock/matrix-configurator-backend/internal/app/model"
	"github.com/pixelsock/matrix-configurator-backend/pkg/logger"
)

// CatalogSnapshot is everything the engines need for one product line,
// loaded once per line session: the ordered category layout, the option
// sets, the concrete product rows, and the parsed rules.
type CatalogSnapshot struct {
	Line       model.ProductLine
	Categories []model.ProductLineCategory
	Options    map[model.OptionCategory][]model.Option
	Products   []model.Product
	Rules      []ParsedRule

	optionsByID   map[model.OptionCategory]map[uint]*model.Option
	optionsByCode map[model.OptionCategory]map[string]*model.Option
}

// NewCatalogSnapshot indexes the loaded catalog data and parses the rule
// payloads. A rule that fails to parse is dropped with a warning; it never
// takes the rest of the catalog down with it.
func NewCatalogSnapshot(
	line model.ProductLine,
	categories []model.ProductLineCategory,
	options map[model.OptionCategory][]model.Option,
	products []model.Product,
	rules []model.Rule,
) *CatalogSnapshot {
	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].Position < categories[j].Position
	})
	for category := range options {
		model.SortOptions(options[category])
	}

	snapshot := &CatalogSnapshot{
		Line:          line,
		Categories:    categories,
		Options:       options,
		Products:      products,
		optionsByID:   make(map[model.OptionCategory]map[uint]*model.Option),
		optionsByCode: make(map[model.OptionCategory]map[string]*model.Option),
	}

	for category, categoryOptions := range options {
		byID := make(map[uint]*model.Option, len(categoryOptions))
		byCode := make(map[string]*model.Option, len(categoryOptions))
		for i := range categoryOptions {
			option := &categoryOptions[i]
			byID[option.ID] = option
			byCode[strings.ToUpper(option.SKUCode)] = option
		}
		snapshot.optionsByID[category] = byID
		snapshot.optionsByCode[category] = byCode
	}

	for _, rule := range rules {
		parsed, err := ParseRule(rule)
		if err != nil {
			logger.Warn("Skipping malformed rule", map[string]interface{}{
				"rule_id":      rule.ID,
				"rule_name":    rule.Name,
				"product_line": line.Slug,
				"error":        err.Error(),
			})
			continue
		}
		snapshot.Rules = append(snapshot.Rules, parsed)
	}

	return snapshot
}

// CategoryOrder returns the line's categories in SKU/display order.
func (s *CatalogSnapshot) CategoryOrder() []model.OptionCategory {
	order := make([]model.OptionCategory, 0, len(s.Categories))
	for _, category := range s.Categories {
		order = append(order, category.Category)
	}
	return order
}

// HasCategory reports whether the line carries the category at all.
func (s *CatalogSnapshot) HasCategory(category model.OptionCategory) bool {
	for _, lineCategory := range s.Categories {
		if lineCategory.Category == category {
			return true
		}
	}
	return false
}

// FullIDs is the line's complete option id set for a category, the
// baseline every narrowing is computed against.
func (s *CatalogSnapshot) FullIDs(category model.OptionCategory) model.IDSet {
	set := model.NewIDSet()
	for _, option := range s.Options[category] {
		set.Add(option.ID)
	}
	return set
}

// FullIDsByCategory returns FullIDs for every category of the line.
func (s *CatalogSnapshot) FullIDsByCategory() map[model.OptionCategory]model.IDSet {
	out := make(map[model.OptionCategory]model.IDSet, len(s.Options))
	for category := range s.Options {
		out[category] = s.FullIDs(category)
	}
	return out
}

// OptionByID resolves an option id within a category.
func (s *CatalogSnapshot) OptionByID(category model.OptionCategory, id uint) (*model.Option, bool) {
	option, ok := s.optionsByID[category][id]
	return option, ok
}

// OptionByCode resolves a SKU code within a category, case-insensitively.
func (s *CatalogSnapshot) OptionByCode(category model.OptionCategory, code string) (*model.Option, bool) {
	option, ok := s.optionsByCode[category][strings.ToUpper(code)]
	return option, ok
}
