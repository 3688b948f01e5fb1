package model

import "time"

// AdjustmentReason says why a selection was changed out from under the user.
type AdjustmentReason string

const (
	AdjustmentReasonUnavailable  AdjustmentReason = "unavailable"
	AdjustmentReasonRuleForced   AdjustmentReason = "rule_forced"
	AdjustmentReasonUnresolvable AdjustmentReason = "unresolvable"
)

// Adjustment records one automatic substitution made while validating a
// configuration. Transient, user-feedback only.
type Adjustment struct {
	ID        string           `json:"id"`
	Category  OptionCategory   `json:"category"`
	OldID     uint             `json:"old_id"`
	NewID     uint             `json:"new_id"`
	Reason    AdjustmentReason `json:"reason"`
	CreatedAt time.Time        `json:"created_at"`
}
