package service

import (
	"strings"

	"github.com/pixelsock/matrix-configurator-backend/internal/app/model"
	"github.com/pixelsock/matrix-configurator-backend/pkg/logger"
)

const (
	skuDelimiter     = "-"
	accessoryJoin    = "+"
	accessoryNoneTok = "NA"
)

// SKUService is the deterministic bidirectional mapping between a
// configuration and its delimited SKU string.
type SKUService interface {
	// Build assembles the SKU in the line's category order. Categories
	// without a selection contribute nothing; the accessory position
	// always carries a token (the none sentinel when empty) unless the
	// line has no accessory category at all.
	Build(config model.Configuration, snapshot *CatalogSnapshot, overrides map[model.OptionCategory]string) string

	// Parse resolves as many fields as it can from a SKU string. Unknown
	// tokens are skipped with a warning; Parse never fails outright.
	Parse(raw string, snapshot *CatalogSnapshot) model.Configuration
}

type skuService struct{}

func NewSKUService() SKUService {
	return &skuService{}
}

func (s *skuService) Build(config model.Configuration, snapshot *CatalogSnapshot, overrides map[model.OptionCategory]string) string {
	var tokens []string

	for _, category := range snapshot.CategoryOrder() {
		if category == model.CategoryAccessory {
			tokens = append(tokens, s.accessoryToken(config, snapshot))
			continue
		}

		selected, ok := config.Selected(category)
		if !ok {
			continue
		}

		if code, hasOverride := overrides[category]; hasOverride && code != "" {
			tokens = append(tokens, code)
			continue
		}

		option, found := snapshot.OptionByID(category, selected)
		if !found || option.SKUCode == "" {
			logger.Warn("Selected option has no SKU code", map[string]interface{}{
				"category":  category,
				"option_id": selected,
			})
			continue
		}
		tokens = append(tokens, option.SKUCode)
	}

	return strings.Join(tokens, skuDelimiter)
}

// accessoryToken builds the combined accessory token. An empty selection
// yields the none sentinel so positional parsing stays unambiguous.
func (s *skuService) accessoryToken(config model.Configuration, snapshot *CatalogSnapshot) string {
	var codes []string
	// Walk options in display order so the token is deterministic.
	for _, option := range snapshot.Options[model.CategoryAccessory] {
		if config.HasAccessory(option.ID) && option.SKUCode != "" {
			codes = append(codes, option.SKUCode)
		}
	}
	if len(codes) == 0 {
		return accessoryNoneTok
	}
	return strings.Join(codes, accessoryJoin)
}

func (s *skuService) Parse(raw string, snapshot *CatalogSnapshot) model.Configuration {
	config := model.NewConfiguration(snapshot.Line.ID)

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return config
	}

	order := snapshot.CategoryOrder()
	next := 0

	for _, token := range strings.Split(raw, skuDelimiter) {
		if token == "" {
			continue
		}

		matched := false
		for i := next; i < len(order); i++ {
			category := order[i]

			if category == model.CategoryAccessory {
				if s.parseAccessoryToken(token, snapshot, &config) {
					next = i + 1
					matched = true
				}
				if matched {
					break
				}
				continue
			}

			if option, ok := snapshot.OptionByCode(category, token); ok {
				config.Select(category, option.ID)
				next = i + 1
				matched = true
				break
			}
		}

		if !matched {
			logger.Warn("Unrecognized SKU token ignored", map[string]interface{}{
				"token":        token,
				"sku":          raw,
				"product_line": snapshot.Line.Slug,
			})
		}
	}

	return config
}

// parseAccessoryToken resolves a combined accessory token. The token is
// accepted only if every part resolves (or it is the none sentinel).
func (s *skuService) parseAccessoryToken(token string, snapshot *CatalogSnapshot, config *model.Configuration) bool {
	if strings.EqualFold(token, accessoryNoneTok) {
		return true
	}

	parts := strings.Split(token, accessoryJoin)
	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		option, ok := snapshot.OptionByCode(model.CategoryAccessory, part)
		if !ok {
			return false
		}
		ids = append(ids, option.ID)
	}
	for _, id := range ids {
		config.AddAccessory(id)
	}
	return true
}
