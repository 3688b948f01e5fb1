package model

import (
	"time"

	"gorm.io/gorm"
)

// Rule is declarative reference data: a condition over configuration
// fields and an effect that forces or narrows fields when it holds.
// The JSON payloads are parsed once at load time, not on every evaluation.
type Rule struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	ProductLineID uint           `gorm:"index;not null" json:"product_line_id"`
	Name          string         `json:"name"`
	Priority      *int           `gorm:"index" json:"priority"`
	IfThis        string         `gorm:"column:if_this;type:text;not null" json:"if_this"`
	ThenThat      string         `gorm:"column:then_that;type:text;not null" json:"then_that"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Rule) TableName() string {
	return "rules"
}
