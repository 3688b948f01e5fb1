package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfiguration_Select(t *testing.T) {
	config := NewConfiguration(1)

	config.Select(CategoryDriver, 42)
	selected, ok := config.Selected(CategoryDriver)
	assert.True(t, ok)
	assert.Equal(t, uint(42), selected)

	// Selecting zero clears the field
	config.Select(CategoryDriver, 0)
	_, ok = config.Selected(CategoryDriver)
	assert.False(t, ok)
}

func TestConfiguration_Accessories(t *testing.T) {
	config := NewConfiguration(1)

	config.AddAccessory(52)
	config.AddAccessory(51)
	config.AddAccessory(51) // duplicate
	assert.Equal(t, []uint{51, 52}, config.Accessories)
	assert.True(t, config.HasAccessory(51))

	config.RemoveAccessory(51)
	assert.Equal(t, []uint{52}, config.Accessories)
	assert.False(t, config.HasAccessory(51))
}

func TestConfiguration_CloneIsIndependent(t *testing.T) {
	config := NewConfiguration(1)
	config.Select(CategoryDriver, 41)
	config.AddAccessory(51)

	clone := config.Clone()
	clone.Select(CategoryDriver, 42)
	clone.AddAccessory(52)

	selected, _ := config.Selected(CategoryDriver)
	assert.Equal(t, uint(41), selected)
	assert.Equal(t, []uint{51}, config.Accessories)
}

func TestConfiguration_Equal(t *testing.T) {
	base := NewConfiguration(1)
	base.Select(CategoryDriver, 41)
	base.AddAccessory(51)

	same := base.Clone()
	assert.True(t, base.Equal(same))

	differentSelection := base.Clone()
	differentSelection.Select(CategoryDriver, 42)
	assert.False(t, base.Equal(differentSelection))

	differentAccessories := base.Clone()
	differentAccessories.AddAccessory(52)
	assert.False(t, base.Equal(differentAccessories))

	differentQuantity := base.Clone()
	differentQuantity.Quantity = 2
	assert.False(t, base.Equal(differentQuantity))
}
