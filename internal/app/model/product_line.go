package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductLine is the scoping unit for which option catalog and rules apply.
type ProductLine struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	Name        string          `gorm:"not null" json:"name"`
	Slug        string          `gorm:"uniqueIndex;not null" json:"slug"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	BasePrice   decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"base_price"`
	Active      bool            `gorm:"default:true" json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relationships
	Categories     []ProductLineCategory `gorm:"foreignKey:ProductLineID" json:"categories,omitempty"`
	DefaultOptions []ProductLineOption   `gorm:"foreignKey:ProductLineID" json:"default_options,omitempty"`
	Products       []Product             `gorm:"foreignKey:ProductLineID" json:"-"`
	Rules          []Rule                `gorm:"foreignKey:ProductLineID" json:"-"`
}

func (ProductLine) TableName() string {
	return "product_lines"
}

// ProductLineCategory declares that a product line carries a category and
// fixes its position in the SKU layout. A line without an accessory row
// has no accessory token in its SKUs.
type ProductLineCategory struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	ProductLineID uint           `gorm:"index;not null" json:"product_line_id"`
	Category      OptionCategory `gorm:"type:varchar(50);not null" json:"category"`
	Position      int            `gorm:"not null" json:"position"`
	Required      bool           `gorm:"default:true" json:"required"`
}

func (ProductLineCategory) TableName() string {
	return "product_line_categories"
}

// ProductLineOption is one entry of a line's default option set: the
// baseline of selectable ids per category before product overrides apply.
type ProductLineOption struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	ProductLineID uint           `gorm:"index;not null" json:"product_line_id"`
	Category      OptionCategory `gorm:"type:varchar(50);index;not null" json:"category"`
	OptionID      uint           `gorm:"not null" json:"option_id"`

	Option Option `gorm:"foreignKey:OptionID" json:"-"`
}

func (ProductLineOption) TableName() string {
	return "product_line_options"
}
