package model

import (
	"time"

	"gorm.io/gorm"
)

// Product is one concrete, purchasable catalog row: a fixed combination of
// option ids plus a sku code. The catalog is the ground truth availability
// is filtered against.
type Product struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	ProductLineID uint           `gorm:"index;not null" json:"product_line_id"`
	Name          string         `gorm:"not null" json:"name"`
	SKUCode       string         `gorm:"column:sku_code;not null" json:"sku_code"`
	Active        bool           `gorm:"default:true" json:"active"`

	// Per-category option references. Nullable: a row constrains only the
	// categories it defines.
	MirrorStyleID    *uint `gorm:"index" json:"mirror_style_id,omitempty"`
	LightDirectionID *uint `gorm:"index" json:"light_direction_id,omitempty"`
	SizeID           *uint `gorm:"index" json:"size_id,omitempty"`
	FrameColorID     *uint `gorm:"index" json:"frame_color_id,omitempty"`
	FrameThicknessID *uint `gorm:"index" json:"frame_thickness_id,omitempty"`

	VerticalImageURL   string `json:"vertical_image_url,omitempty"`
	HorizontalImageURL string `json:"horizontal_image_url,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	ProductLine     ProductLine             `gorm:"foreignKey:ProductLineID" json:"-"`
	OptionOverrides []ProductOptionOverride `gorm:"foreignKey:ProductID" json:"option_overrides,omitempty"`
	SKUOverrides    []ProductSKUOverride    `gorm:"foreignKey:ProductID" json:"sku_overrides,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// CategoryValue returns the row's option id for a category, when the
// catalog schema defines a field for it.
func (p *Product) CategoryValue(category OptionCategory) (uint, bool) {
	var ref *uint
	switch category {
	case CategoryMirrorStyle:
		ref = p.MirrorStyleID
	case CategoryLightDirection:
		ref = p.LightDirectionID
	case CategorySize:
		ref = p.SizeID
	case CategoryFrameColor:
		ref = p.FrameColorID
	case CategoryFrameThickness:
		ref = p.FrameThicknessID
	default:
		return 0, false
	}
	if ref == nil {
		return 0, false
	}
	return *ref, true
}

// ProductCategories are the categories a catalog row can constrain.
var ProductCategories = []OptionCategory{
	CategoryMirrorStyle,
	CategoryLightDirection,
	CategorySize,
	CategoryFrameColor,
	CategoryFrameThickness,
}

// ProductOptionOverride narrows one category of the line's default option
// set for a specific product. Categories without override rows keep the
// line default.
type ProductOptionOverride struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	ProductID uint           `gorm:"index;not null" json:"product_id"`
	Category  OptionCategory `gorm:"type:varchar(50);not null" json:"category"`
	OptionID  uint           `gorm:"not null" json:"option_id"`
}

func (ProductOptionOverride) TableName() string {
	return "product_option_overrides"
}

// ProductSKUOverride replaces one category's SKU code when this product is
// the matched catalog row.
type ProductSKUOverride struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	ProductID uint           `gorm:"index;not null" json:"product_id"`
	Category  OptionCategory `gorm:"type:varchar(50);not null" json:"category"`
	Code      string         `gorm:"not null" json:"code"`
}

func (ProductSKUOverride) TableName() string {
	return "product_sku_overrides"
}
