package model

import "sort"

// Configuration is the current selection state of a configurator session:
// one option id per single-value category, a set of accessory ids, and a
// quantity. It lives for the duration of a product-line session and is
// replaced wholesale when the line changes.
type Configuration struct {
	ProductLineID uint                    `json:"product_line_id"`
	Selections    map[OptionCategory]uint `json:"selections"`
	Accessories   []uint                  `json:"accessories"`
	Quantity      int                     `json:"quantity"`
}

func NewConfiguration(productLineID uint) Configuration {
	return Configuration{
		ProductLineID: productLineID,
		Selections:    make(map[OptionCategory]uint),
		Quantity:      1,
	}
}

// Selected returns the single-value selection for a category.
// A zero id means the category is unselected.
func (c Configuration) Selected(category OptionCategory) (uint, bool) {
	id, ok := c.Selections[category]
	return id, ok && id != 0
}

func (c *Configuration) Select(category OptionCategory, id uint) {
	if c.Selections == nil {
		c.Selections = make(map[OptionCategory]uint)
	}
	if id == 0 {
		delete(c.Selections, category)
		return
	}
	c.Selections[category] = id
}

func (c Configuration) HasAccessory(id uint) bool {
	for _, accessoryID := range c.Accessories {
		if accessoryID == id {
			return true
		}
	}
	return false
}

func (c *Configuration) AddAccessory(id uint) {
	if c.HasAccessory(id) {
		return
	}
	c.Accessories = append(c.Accessories, id)
	sort.Slice(c.Accessories, func(i, j int) bool { return c.Accessories[i] < c.Accessories[j] })
}

func (c *Configuration) RemoveAccessory(id uint) {
	kept := c.Accessories[:0]
	for _, accessoryID := range c.Accessories {
		if accessoryID != id {
			kept = append(kept, accessoryID)
		}
	}
	c.Accessories = kept
}

func (c Configuration) Clone() Configuration {
	out := c
	out.Selections = make(map[OptionCategory]uint, len(c.Selections))
	for category, id := range c.Selections {
		out.Selections[category] = id
	}
	out.Accessories = append([]uint(nil), c.Accessories...)
	return out
}

func (c Configuration) Equal(other Configuration) bool {
	if c.ProductLineID != other.ProductLineID || c.Quantity != other.Quantity {
		return false
	}
	if len(c.Selections) != len(other.Selections) {
		return false
	}
	for category, id := range c.Selections {
		if other.Selections[category] != id {
			return false
		}
	}
	if len(c.Accessories) != len(other.Accessories) {
		return false
	}
	for i, id := range c.Accessories {
		if other.Accessories[i] != id {
			return false
		}
	}
	return true
}
