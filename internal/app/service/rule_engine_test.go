package service

import (
	"testing"

	"github.com/pixelsock/matrix-configurator-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseTestRule(t *testing.T, ifThis, thenThat string) ParsedRule {
	t.Helper()
	parsed, err := ParseRule(model.Rule{IfThis: ifThis, ThenThat: thenThat})
	require.NoError(t, err)
	return parsed
}

func testConfig(selections map[model.OptionCategory]uint) model.Configuration {
	config := model.NewConfiguration(7)
	for category, id := range selections {
		config.Select(category, id)
	}
	return config
}

func TestParseRule(t *testing.T) {
	tests := []struct {
		name     string
		ifThis   string
		thenThat string
		wantErr  bool
	}{
		{
			name:     "simple equality",
			ifThis:   `{"driver":{"_eq":42}}`,
			thenThat: `{"light_output":{"_eq":32}}`,
		},
		{
			name:     "numeric string ids",
			ifThis:   `{"driver":{"_eq":"42"}}`,
			thenThat: `{"light_output":{"_in":["31","32"]}}`,
		},
		{
			name:     "boolean composites",
			ifThis:   `{"_or":[{"driver":{"_eq":42}},{"_and":[{"size":{"_nempty":true}},{"mirror_style":{"_neq":2}}]}]}`,
			thenThat: `{"light_output":{"_eq":32}}`,
		},
		{
			name:     "side channel effects only",
			ifThis:   `{"mirror_style":{"_eq":2}}`,
			thenThat: `{"product_image":"img.png","sku_overrides":{"size":"XL"}}`,
		},
		{
			name:     "condition is not json",
			ifThis:   `nope`,
			thenThat: `{"light_output":{"_eq":32}}`,
			wantErr:  true,
		},
		{
			name:     "effect operator unsupported",
			ifThis:   `{"driver":{"_eq":42}}`,
			thenThat: `{"light_output":{"_neq":31}}`,
			wantErr:  true,
		},
		{
			name:     "effect id not numeric",
			ifThis:   `{"driver":{"_eq":42}}`,
			thenThat: `{"light_output":{"_eq":"high"}}`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRule(model.Rule{IfThis: tt.ifThis, ThenThat: tt.thenThat})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRuleEngine_Evaluate_ConditionOperators(t *testing.T) {
	engine := NewRuleEngine()
	fullIDs := newTestSnapshot().FullIDsByCategory()
	effect := `{"light_output":{"_eq":32}}`

	tests := []struct {
		name       string
		ifThis     string
		selections map[model.OptionCategory]uint
		wantForced bool
	}{
		{"eq matches", `{"driver":{"_eq":42}}`, map[model.OptionCategory]uint{model.CategoryDriver: 42}, true},
		{"eq on unselected field", `{"driver":{"_eq":42}}`, nil, false},
		{"neq matches", `{"driver":{"_neq":41}}`, map[model.OptionCategory]uint{model.CategoryDriver: 42}, true},
		{"neq on unselected field", `{"driver":{"_neq":41}}`, nil, false},
		{"in matches", `{"driver":{"_in":[42,43]}}`, map[model.OptionCategory]uint{model.CategoryDriver: 43}, true},
		{"in misses", `{"driver":{"_in":[42,43]}}`, map[model.OptionCategory]uint{model.CategoryDriver: 41}, false},
		{"nin matches", `{"driver":{"_nin":[42,43]}}`, map[model.OptionCategory]uint{model.CategoryDriver: 41}, true},
		{"empty matches unselected", `{"driver":{"_empty":true}}`, nil, true},
		{"nempty matches selected", `{"driver":{"_nempty":true}}`, map[model.OptionCategory]uint{model.CategoryDriver: 41}, true},
		{"unknown operator fails closed", `{"driver":{"_gt":10}}`, map[model.OptionCategory]uint{model.CategoryDriver: 42}, false},
		{"multiple keys combine as and", `{"driver":{"_eq":42},"size":{"_eq":21}}`, map[model.OptionCategory]uint{model.CategoryDriver: 42}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := parseTestRule(t, tt.ifThis, effect)
			result := engine.Evaluate([]ParsedRule{rule}, testConfig(tt.selections), fullIDs)
			if tt.wantForced {
				assert.Equal(t, uint(32), result.Forced[model.CategoryLightOutput])
			} else {
				assert.Empty(t, result.Forced)
			}
		})
	}
}

func TestRuleEngine_Evaluate_NarrowingDisablesComplement(t *testing.T) {
	engine := NewRuleEngine()
	fullIDs := newTestSnapshot().FullIDsByCategory()

	rule := parseTestRule(t, `{"mirror_style":{"_eq":2}}`, `{"driver":{"_in":[41]}}`)
	config := testConfig(map[model.OptionCategory]uint{model.CategoryMirrorStyle: 2})

	result := engine.Evaluate([]ParsedRule{rule}, config, fullIDs)

	assert.Empty(t, result.Forced)
	assert.Equal(t, []uint{42, 43}, result.Disabled[model.CategoryDriver].Sorted())
}

func TestRuleEngine_Evaluate_PriorityChaining(t *testing.T) {
	engine := NewRuleEngine()
	fullIDs := newTestSnapshot().FullIDsByCategory()

	// The second rule only matches because the first one forced the driver.
	first := parseTestRule(t, `{"mirror_style":{"_eq":2}}`, `{"driver":{"_eq":42}}`)
	first.Priority = intPtr(1)
	second := parseTestRule(t, `{"driver":{"_eq":42}}`, `{"light_output":{"_eq":32}}`)
	second.Priority = intPtr(2)

	config := testConfig(map[model.OptionCategory]uint{
		model.CategoryMirrorStyle: 2,
		model.CategoryDriver:      41,
	})

	// Feed the rules in reverse to prove evaluation order comes from
	// priority, not slice order.
	result := engine.Evaluate([]ParsedRule{second, first}, config, fullIDs)

	assert.Equal(t, uint(42), result.Forced[model.CategoryDriver])
	assert.Equal(t, uint(32), result.Forced[model.CategoryLightOutput])
}

func TestRuleEngine_Evaluate_LastForceWins(t *testing.T) {
	engine := NewRuleEngine()
	fullIDs := newTestSnapshot().FullIDsByCategory()

	low := parseTestRule(t, `{"mirror_style":{"_eq":2}}`, `{"light_output":{"_eq":31}}`)
	low.Priority = intPtr(1)
	high := parseTestRule(t, `{"mirror_style":{"_eq":2}}`, `{"light_output":{"_eq":32}}`)
	high.Priority = intPtr(5)
	unprioritized := parseTestRule(t, `{"mirror_style":{"_eq":2}}`, `{"driver":{"_eq":41}}`)

	config := testConfig(map[model.OptionCategory]uint{model.CategoryMirrorStyle: 2})

	result := engine.Evaluate([]ParsedRule{unprioritized, high, low}, config, fullIDs)

	// Priority 5 evaluates after priority 1, so its force sticks; the
	// nil-priority rule still applies, just last.
	assert.Equal(t, uint(32), result.Forced[model.CategoryLightOutput])
	assert.Equal(t, uint(41), result.Forced[model.CategoryDriver])
}

func TestRuleEngine_Evaluate_SideEffects(t *testing.T) {
	engine := NewRuleEngine()
	fullIDs := newTestSnapshot().FullIDsByCategory()

	rule := parseTestRule(t, `{"mirror_style":{"_eq":2}}`, `{"product_image":"round.png","sku_overrides":{"mirror_style":"RND"}}`)

	matched := engine.Evaluate([]ParsedRule{rule}, testConfig(map[model.OptionCategory]uint{model.CategoryMirrorStyle: 2}), fullIDs)
	assert.Equal(t, "round.png", matched.SideEffects.ProductImage)
	assert.Equal(t, "RND", matched.SideEffects.SKUOverrides[model.CategoryMirrorStyle])

	unmatched := engine.Evaluate([]ParsedRule{rule}, testConfig(map[model.OptionCategory]uint{model.CategoryMirrorStyle: 1}), fullIDs)
	assert.Empty(t, unmatched.SideEffects.ProductImage)
	assert.Empty(t, unmatched.SideEffects.SKUOverrides)
}
