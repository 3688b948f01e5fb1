package service

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pixelsock/matrix-configurator-backend/internal/app/model"
	"github.com/pixelsock/matrix-configurator-backend/pkg/logger"
)

// ValidationResult is the outcome of one validation pass.
type ValidationResult struct {
	Changed      bool
	Config       model.Configuration
	Adjustments  []model.Adjustment
	Unresolvable []model.OptionCategory
}

// SelectionValidator detects selections that landed in a disabled set and
// substitutes the first still-available value. It never silently nulls a
// required field: if no replacement exists the stale value stays and the
// category is reported unresolvable.
type SelectionValidator interface {
	ValidateAndAdjust(config model.Configuration, disabled model.DisabledOptions, snapshot *CatalogSnapshot) ValidationResult
}

type selectionValidator struct {
	// inFlight rejects recursive invocations; the filtering loop is the
	// only legitimate repeat mechanism. The guard is per instance, so a
	// validator must not be shared across concurrent recomputes.
	inFlight atomic.Bool
}

func NewSelectionValidator() SelectionValidator {
	return &selectionValidator{}
}

func (v *selectionValidator) ValidateAndAdjust(config model.Configuration, disabled model.DisabledOptions, snapshot *CatalogSnapshot) ValidationResult {
	if !v.inFlight.CompareAndSwap(false, true) {
		logger.Warn("Selection validation already in progress, skipping", map[string]interface{}{
			"product_line": snapshot.Line.Slug,
		})
		return ValidationResult{Config: config}
	}
	defer v.inFlight.Store(false)

	result := ValidationResult{Config: config.Clone()}

	for _, category := range snapshot.CategoryOrder() {
		if category == model.CategoryAccessory {
			v.adjustAccessories(&result, disabled)
			continue
		}

		selected, ok := result.Config.Selected(category)
		if !ok || !disabled.IsDisabled(category, selected) {
			continue
		}

		replacement, found := firstAvailable(snapshot.Options[category], disabled[category])
		if !found {
			logger.Warn("No available replacement for disabled selection", map[string]interface{}{
				"category":  category,
				"option_id": selected,
			})
			result.Unresolvable = append(result.Unresolvable, category)
			continue
		}

		result.Config.Select(category, replacement)
		result.Changed = true
		result.Adjustments = append(result.Adjustments, model.Adjustment{
			ID:        uuid.NewString(),
			Category:  category,
			OldID:     selected,
			NewID:     replacement,
			Reason:    model.AdjustmentReasonUnavailable,
			CreatedAt: time.Now(),
		})

		logger.Info("Selection auto-adjusted", map[string]interface{}{
			"category": category,
			"old_id":   selected,
			"new_id":   replacement,
		})
	}

	return result
}

// adjustAccessories drops disabled accessory ids. Dropped accessories are
// not replaced with substitutes.
func (v *selectionValidator) adjustAccessories(result *ValidationResult, disabled model.DisabledOptions) {
	kept := make([]uint, 0, len(result.Config.Accessories))
	for _, id := range result.Config.Accessories {
		if disabled.IsDisabled(model.CategoryAccessory, id) {
			result.Changed = true
			result.Adjustments = append(result.Adjustments, model.Adjustment{
				ID:        uuid.NewString(),
				Category:  model.CategoryAccessory,
				OldID:     id,
				NewID:     0,
				Reason:    model.AdjustmentReasonUnavailable,
				CreatedAt: time.Now(),
			})
			continue
		}
		kept = append(kept, id)
	}
	result.Config.Accessories = kept
}

// firstAvailable picks the first non-disabled option in display order.
func firstAvailable(options []model.Option, disabled model.IDSet) (uint, bool) {
	for _, option := range options {
		if disabled == nil || !disabled.Has(option.ID) {
			return option.ID, true
		}
	}
	return 0, false
}
