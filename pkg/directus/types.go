package directus

import "encoding/json"

// listEnvelope is the standard Directus response wrapper.
type listEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// ProductLineItem is a row of the product_lines collection.
type ProductLineItem struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	BasePrice   string `json:"base_price"`
	Active      bool   `json:"active"`
}

// ProductItem is a row of the products collection: one concrete variant
// with its per-category foreign ids and sku code.
type ProductItem struct {
	ID               uint   `json:"id"`
	ProductLine      uint   `json:"product_line"`
	Name             string `json:"name"`
	SKUCode          string `json:"sku_code"`
	Active           bool   `json:"active"`
	MirrorStyle      *uint  `json:"mirror_style"`
	LightDirection   *uint  `json:"light_direction"`
	Size             *uint  `json:"size"`
	FrameColor       *uint  `json:"frame_color"`
	FrameThickness   *uint  `json:"frame_thickness"`
	VerticalImage    string `json:"vertical_image"`
	HorizontalImage  string `json:"horizontal_image"`

	OptionOverrides []ProductOverrideItem `json:"option_overrides"`
	SKUOverrides    []SKUOverrideItem     `json:"sku_overrides"`
}

// ProductOverrideItem narrows one category for a specific product.
type ProductOverrideItem struct {
	Category string `json:"category"`
	Option   uint   `json:"option"`
}

// SKUOverrideItem replaces one category's sku code for a product.
type SKUOverrideItem struct {
	Category string `json:"category"`
	Code     string `json:"code"`
}

// RuleItem is a row of the rules collection. The condition and effect
// trees stay raw JSON; parsing is the configurator core's concern.
type RuleItem struct {
	ID          uint            `json:"id"`
	ProductLine uint            `json:"product_line"`
	Name        string          `json:"name"`
	Priority    *int            `json:"priority"`
	IfThis      json.RawMessage `json:"if_this"`
	ThenThat    json.RawMessage `json:"then_that"`
}
