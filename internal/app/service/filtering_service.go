package service

import (
	"github.com/pixelsock/matrix-configurator-backend/internal/app/model"
	"github.com/pixelsock/matrix-configurator-backend/pkg/logger"
)

// maxFilterIterations caps the stabilization loop. Convergence normally
// takes one or two passes; the cap is a safety valve against a
// pathological rule set.
const maxFilterIterations = 3

// FilterState is the stabilized output of one filtering pass: the
// (possibly adjusted) configuration and everything derived from it.
type FilterState struct {
	Config           model.Configuration
	Disabled         model.DisabledOptions
	MatchingProducts []model.Product
	CurrentProduct   *model.Product
	ImageOverride    string
	SKUOverrides     map[model.OptionCategory]string
	Adjustments      []model.Adjustment
	Unresolvable     []model.OptionCategory
	Converged        bool
	Iterations       int
}

// FilteringService is the central orchestration: it merges rule effects
// with catalog availability, applies forced values, validates the
// selection, and repeats until the configuration reaches a fixed point.
// Pure orchestration over its inputs; it owns no state of its own.
type FilteringService interface {
	Recompute(snapshot *CatalogSnapshot, config model.Configuration) FilterState
}

type filteringService struct {
	ruleEngine   RuleEngine
	availability AvailabilityEngine
	newValidator func() SelectionValidator
}

// NewFilteringService builds the coordinator. newValidator is called once
// per Recompute so each stabilization run carries its own re-entrancy
// guard; a guard shared across concurrent sessions would make one
// session's validation silently skip another's.
func NewFilteringService(ruleEngine RuleEngine, availability AvailabilityEngine, newValidator func() SelectionValidator) FilteringService {
	return &filteringService{
		ruleEngine:   ruleEngine,
		availability: availability,
		newValidator: newValidator,
	}
}

func (s *filteringService) Recompute(snapshot *CatalogSnapshot, config model.Configuration) FilterState {
	state := FilterState{Config: config.Clone()}
	fullIDs := snapshot.FullIDsByCategory()
	validator := s.newValidator()

	for iteration := 0; iteration < maxFilterIterations; iteration++ {
		state.Iterations = iteration + 1
		startConfig := state.Config.Clone()

		availability := s.availability.Compute(snapshot.Products, state.Config)
		ruleResult := s.ruleEngine.Evaluate(snapshot.Rules, state.Config, fullIDs)

		disabled := make(model.DisabledOptions)
		for category, set := range availability.UnavailableIDs {
			disabled[category] = set.Clone()
		}
		for category, set := range ruleResult.Disabled {
			disabled.Disable(category, set.Sorted()...)
		}

		state.MatchingProducts = availability.MatchingProducts
		state.CurrentProduct = nil
		if len(availability.MatchingProducts) > 0 {
			state.CurrentProduct = &availability.MatchingProducts[0]
			applyProductOverrides(disabled, state.CurrentProduct, fullIDs)
		}

		// A rule force is authoritative: the forced category's disabled
		// set becomes everything but the forced id, and the value is
		// written through regardless of the user's selection.
		for category, forcedID := range ruleResult.Forced {
			forcedDisabled := model.NewIDSet()
			for id := range fullIDs[category] {
				if id != forcedID {
					forcedDisabled.Add(id)
				}
			}
			disabled[category] = forcedDisabled
			state.Config.Select(category, forcedID)
		}

		// Side effects reset each pass; no matching rule means no override.
		state.ImageOverride = ruleResult.SideEffects.ProductImage
		state.SKUOverrides = ruleResult.SideEffects.SKUOverrides

		validation := validator.ValidateAndAdjust(state.Config, disabled, snapshot)
		state.Config = validation.Config
		state.Disabled = disabled
		state.Adjustments = append(state.Adjustments, validation.Adjustments...)
		state.Unresolvable = validation.Unresolvable

		if state.Config.Equal(startConfig) {
			state.Converged = true
			break
		}
	}

	if !state.Converged {
		logger.Warn("Filtering did not stabilize within iteration cap", map[string]interface{}{
			"product_line": snapshot.Line.Slug,
			"iterations":   state.Iterations,
		})
	}

	return state
}

// applyProductOverrides narrows the categories a product's override rows
// define to exactly the override set. Categories without override rows
// keep the line default untouched.
func applyProductOverrides(disabled model.DisabledOptions, product *model.Product, fullIDs map[model.OptionCategory]model.IDSet) {
	if len(product.OptionOverrides) == 0 {
		return
	}

	allowed := make(map[model.OptionCategory]model.IDSet)
	for _, override := range product.OptionOverrides {
		set, ok := allowed[override.Category]
		if !ok {
			set = model.NewIDSet()
			allowed[override.Category] = set
		}
		set.Add(override.OptionID)
	}

	for category, allowedSet := range allowed {
		for id := range fullIDs[category] {
			if !allowedSet.Has(id) {
				disabled.Disable(category, id)
			}
		}
	}
}
