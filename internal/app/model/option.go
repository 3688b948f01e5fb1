package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OptionCategory is one configurable attribute axis of a product line.
type OptionCategory string

const (
	CategoryMirrorStyle      OptionCategory = "mirror_style"
	CategoryLightDirection   OptionCategory = "light_direction"
	CategoryFrameColor       OptionCategory = "frame_color"
	CategoryFrameThickness   OptionCategory = "frame_thickness"
	CategorySize             OptionCategory = "size"
	CategoryMounting         OptionCategory = "mounting"
	CategoryColorTemperature OptionCategory = "color_temperature"
	CategoryLightOutput      OptionCategory = "light_output"
	CategoryDriver           OptionCategory = "driver"
	CategoryAccessory        OptionCategory = "accessory"
)

// Option is a selectable value within a category. Options are immutable
// reference data for the duration of a session; which subset is available
// changes with the rest of the configuration.
type Option struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	Category      OptionCategory  `gorm:"type:varchar(50);index;not null" json:"category"`
	Name          string          `gorm:"not null" json:"name"`
	SKUCode       string          `gorm:"column:sku_code;not null" json:"sku_code"`
	SortOrder     int             `gorm:"default:0" json:"sort_order"`
	HexColor      string          `json:"hex_color,omitempty"`
	Width         float64         `json:"width,omitempty"`
	Height        float64         `json:"height,omitempty"`
	Description   string          `gorm:"type:text" json:"description,omitempty"`
	PriceModifier decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"price_modifier"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Option) TableName() string {
	return "options"
}

// SortOptions orders options by display order, then id for stable output.
func SortOptions(options []Option) {
	sort.SliceStable(options, func(i, j int) bool {
		if options[i].SortOrder != options[j].SortOrder {
			return options[i].SortOrder < options[j].SortOrder
		}
		return options[i].ID < options[j].ID
	})
}

// IDSet is a set of option ids.
type IDSet map[uint]struct{}

func NewIDSet(ids ...uint) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Add(id uint) {
	s[id] = struct{}{}
}

func (s IDSet) Has(id uint) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Union adds every id of other into s.
func (s IDSet) Union(other IDSet) {
	for id := range other {
		s[id] = struct{}{}
	}
}

func (s IDSet) Equal(other IDSet) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Has(id) {
			return false
		}
	}
	return true
}

// Sorted returns the ids in ascending order.
func (s IDSet) Sorted() []uint {
	ids := make([]uint, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// DisabledOptions maps a category to the option ids currently not
// selectable in that category. Derived state, owned by the filtering pass.
type DisabledOptions map[OptionCategory]IDSet

func (d DisabledOptions) Disable(category OptionCategory, ids ...uint) {
	set, ok := d[category]
	if !ok {
		set = NewIDSet()
		d[category] = set
	}
	for _, id := range ids {
		set.Add(id)
	}
}

func (d DisabledOptions) IsDisabled(category OptionCategory, id uint) bool {
	set, ok := d[category]
	return ok && set.Has(id)
}

func (d DisabledOptions) Clone() DisabledOptions {
	out := make(DisabledOptions, len(d))
	for category, set := range d {
		out[category] = set.Clone()
	}
	return out
}

func (d DisabledOptions) Equal(other DisabledOptions) bool {
	for category, set := range d {
		if len(set) == 0 {
			continue
		}
		if !set.Equal(other[category]) {
			return false
		}
	}
	for category, set := range other {
		if len(set) == 0 {
			continue
		}
		if !set.Equal(d[category]) {
			return false
		}
	}
	return true
}
