package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortOptions(t *testing.T) {
	options := []Option{
		{ID: 3, SortOrder: 2},
		{ID: 1, SortOrder: 1},
		{ID: 2, SortOrder: 1},
	}

	SortOptions(options)

	assert.Equal(t, uint(1), options[0].ID)
	assert.Equal(t, uint(2), options[1].ID)
	assert.Equal(t, uint(3), options[2].ID)
}

func TestIDSet(t *testing.T) {
	set := NewIDSet(3, 1)
	set.Add(2)

	assert.True(t, set.Has(1))
	assert.False(t, set.Has(4))
	assert.Equal(t, []uint{1, 2, 3}, set.Sorted())

	clone := set.Clone()
	clone.Add(4)
	assert.False(t, set.Has(4))

	other := NewIDSet(5)
	set.Union(other)
	assert.True(t, set.Has(5))

	assert.True(t, NewIDSet(1, 2).Equal(NewIDSet(2, 1)))
	assert.False(t, NewIDSet(1).Equal(NewIDSet(1, 2)))
}

func TestDisabledOptions(t *testing.T) {
	disabled := make(DisabledOptions)
	disabled.Disable(CategoryDriver, 41, 42)

	assert.True(t, disabled.IsDisabled(CategoryDriver, 41))
	assert.False(t, disabled.IsDisabled(CategoryDriver, 43))
	assert.False(t, disabled.IsDisabled(CategorySize, 41))

	clone := disabled.Clone()
	clone.Disable(CategoryDriver, 43)
	assert.False(t, disabled.IsDisabled(CategoryDriver, 43))
}

func TestDisabledOptions_Equal(t *testing.T) {
	a := make(DisabledOptions)
	a.Disable(CategoryDriver, 41)

	b := make(DisabledOptions)
	b.Disable(CategoryDriver, 41)
	assert.True(t, a.Equal(b))

	// An empty set entry counts the same as no entry
	b[CategorySize] = NewIDSet()
	assert.True(t, a.Equal(b))

	b.Disable(CategorySize, 21)
	assert.False(t, a.Equal(b))
	assert.False(t, b.Equal(a))
}
