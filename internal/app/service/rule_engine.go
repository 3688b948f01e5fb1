package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/pixelsock/matrix-configurator-backend/internal/app/model"
	"github.com/pixelsock/matrix-configurator-backend/pkg/logger"
)

// Comparison operators supported in rule conditions. Anything else fails
// closed: the condition evaluates false instead of erroring.
const (
	opEq     = "_eq"
	opNeq    = "_neq"
	opIn     = "_in"
	opNin    = "_nin"
	opEmpty  = "_empty"
	opNEmpty = "_nempty"
	opAnd    = "_and"
	opOr     = "_or"
)

// fieldGetter reads the current value of a configuration field during
// condition evaluation. ok is false when the field is unselected.
type fieldGetter func(field model.OptionCategory) (uint, bool)

// Condition is one node of a parsed rule condition tree.
type Condition interface {
	eval(get fieldGetter) bool
}

type andCondition []Condition

func (c andCondition) eval(get fieldGetter) bool {
	for _, child := range c {
		if !child.eval(get) {
			return false
		}
	}
	return true
}

type orCondition []Condition

func (c orCondition) eval(get fieldGetter) bool {
	for _, child := range c {
		if child.eval(get) {
			return true
		}
	}
	return false
}

type leafCondition struct {
	field  model.OptionCategory
	op     string
	values []uint
}

func (c leafCondition) eval(get fieldGetter) bool {
	current, selected := get(c.field)

	switch c.op {
	case opEq:
		return selected && len(c.values) == 1 && current == c.values[0]
	case opNeq:
		return selected && len(c.values) == 1 && current != c.values[0]
	case opIn:
		if !selected {
			return false
		}
		for _, v := range c.values {
			if v == current {
				return true
			}
		}
		return false
	case opNin:
		if !selected {
			return false
		}
		for _, v := range c.values {
			if v == current {
				return false
			}
		}
		return true
	case opEmpty:
		return !selected
	case opNEmpty:
		return selected
	default:
		// Unknown operator: fail closed.
		return false
	}
}

// ForcedValue pins a configuration field to an exact value.
type ForcedValue struct {
	Category model.OptionCategory
	OptionID uint
}

// Narrowing restricts a field to a set; every id outside the set is
// disabled relative to the field's full option list.
type Narrowing struct {
	Category model.OptionCategory
	Allowed  model.IDSet
}

// RuleSideEffects are effect outputs that are not configuration fields.
type RuleSideEffects struct {
	ProductImage string
	SKUOverrides map[model.OptionCategory]string
}

// ParsedRule is the load-time form of a rule: condition tree plus the
// decomposed effects, ready for repeated evaluation.
type ParsedRule struct {
	ID        uint
	Name      string
	Priority  *int
	Condition Condition
	Forces    []ForcedValue
	Narrows   []Narrowing
	Effects   RuleSideEffects
}

// ParseRule parses a rule's condition and effect JSON into a ParsedRule.
func ParseRule(rule model.Rule) (ParsedRule, error) {
	parsed := ParsedRule{
		ID:       rule.ID,
		Name:     rule.Name,
		Priority: rule.Priority,
	}

	var rawCondition map[string]json.RawMessage
	if err := json.Unmarshal([]byte(rule.IfThis), &rawCondition); err != nil {
		return ParsedRule{}, fmt.Errorf("invalid if_this: %w", err)
	}
	condition, err := parseConditionObject(rawCondition)
	if err != nil {
		return ParsedRule{}, fmt.Errorf("invalid if_this: %w", err)
	}
	parsed.Condition = condition

	var rawEffect map[string]json.RawMessage
	if err := json.Unmarshal([]byte(rule.ThenThat), &rawEffect); err != nil {
		return ParsedRule{}, fmt.Errorf("invalid then_that: %w", err)
	}
	if err := parseEffects(rawEffect, &parsed); err != nil {
		return ParsedRule{}, fmt.Errorf("invalid then_that: %w", err)
	}

	return parsed, nil
}

// parseConditionObject handles one JSON object: either a boolean composite
// ({"_and": [...]}) or field comparisons. Multiple keys combine as AND.
func parseConditionObject(raw map[string]json.RawMessage) (Condition, error) {
	var children []Condition

	for key, value := range raw {
		switch key {
		case opAnd, opOr:
			var clauses []map[string]json.RawMessage
			if err := json.Unmarshal(value, &clauses); err != nil {
				return nil, fmt.Errorf("%s expects an array of conditions: %w", key, err)
			}
			nested := make([]Condition, 0, len(clauses))
			for _, clause := range clauses {
				child, err := parseConditionObject(clause)
				if err != nil {
					return nil, err
				}
				nested = append(nested, child)
			}
			if key == opAnd {
				children = append(children, andCondition(nested))
			} else {
				children = append(children, orCondition(nested))
			}
		default:
			leaves, err := parseLeaves(model.OptionCategory(key), value)
			if err != nil {
				return nil, err
			}
			children = append(children, leaves...)
		}
	}

	if len(children) == 1 {
		return children[0], nil
	}
	return andCondition(children), nil
}

// parseLeaves parses {"_eq": 4, ...} comparisons for one field. Unknown
// operators are kept as leaves that evaluate false.
func parseLeaves(field model.OptionCategory, raw json.RawMessage) ([]Condition, error) {
	var comparisons map[string]json.RawMessage
	if err := json.Unmarshal(raw, &comparisons); err != nil {
		return nil, fmt.Errorf("field %q expects an operator object: %w", field, err)
	}

	leaves := make([]Condition, 0, len(comparisons))
	for op, operand := range comparisons {
		leaf := leafCondition{field: field, op: op}
		switch op {
		case opEq, opNeq:
			id, err := parseOptionID(operand)
			if err != nil {
				return nil, fmt.Errorf("field %q %s: %w", field, op, err)
			}
			leaf.values = []uint{id}
		case opIn, opNin:
			ids, err := parseOptionIDList(operand)
			if err != nil {
				return nil, fmt.Errorf("field %q %s: %w", field, op, err)
			}
			leaf.values = ids
		case opEmpty, opNEmpty:
			// No operand.
		default:
			logger.Warn("Unknown rule condition operator, failing closed", map[string]interface{}{
				"field":    field,
				"operator": op,
			})
		}
		leaves = append(leaves, leaf)
	}
	return leaves, nil
}

// parseEffects splits then_that into configuration effects and side
// channels. A field keyed by a category forces (_eq) or narrows (_in);
// product_image and sku_overrides are captured out of band.
func parseEffects(raw map[string]json.RawMessage, parsed *ParsedRule) error {
	for key, value := range raw {
		switch key {
		case "product_image":
			var image string
			if err := json.Unmarshal(value, &image); err != nil {
				return fmt.Errorf("product_image expects a string: %w", err)
			}
			parsed.Effects.ProductImage = image
		case "sku_overrides":
			var overrides map[string]string
			if err := json.Unmarshal(value, &overrides); err != nil {
				return fmt.Errorf("sku_overrides expects an object of codes: %w", err)
			}
			if parsed.Effects.SKUOverrides == nil {
				parsed.Effects.SKUOverrides = make(map[model.OptionCategory]string, len(overrides))
			}
			for category, code := range overrides {
				parsed.Effects.SKUOverrides[model.OptionCategory(category)] = code
			}
		default:
			category := model.OptionCategory(key)
			var comparisons map[string]json.RawMessage
			if err := json.Unmarshal(value, &comparisons); err != nil {
				return fmt.Errorf("effect %q expects an operator object: %w", key, err)
			}
			for op, operand := range comparisons {
				switch op {
				case opEq:
					id, err := parseOptionID(operand)
					if err != nil {
						return fmt.Errorf("effect %q %s: %w", key, op, err)
					}
					parsed.Forces = append(parsed.Forces, ForcedValue{Category: category, OptionID: id})
				case opIn:
					ids, err := parseOptionIDList(operand)
					if err != nil {
						return fmt.Errorf("effect %q %s: %w", key, op, err)
					}
					parsed.Narrows = append(parsed.Narrows, Narrowing{Category: category, Allowed: model.NewIDSet(ids...)})
				default:
					return fmt.Errorf("effect %q has unsupported operator %q", key, op)
				}
			}
		}
	}
	return nil
}

func parseOptionID(raw json.RawMessage) (uint, error) {
	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		if number < 0 {
			return 0, fmt.Errorf("option id must be non-negative, got %v", number)
		}
		return uint(number), nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		id, err := strconv.ParseUint(text, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("option id %q is not numeric", text)
		}
		return uint(id), nil
	}
	return 0, fmt.Errorf("option id must be a number or numeric string")
}

func parseOptionIDList(raw json.RawMessage) ([]uint, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("expected an array of option ids: %w", err)
	}
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		id, err := parseOptionID(item)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// RuleEvalResult is the output of one rule pass over a configuration.
type RuleEvalResult struct {
	Forced      map[model.OptionCategory]uint
	Disabled    model.DisabledOptions
	SideEffects RuleSideEffects
}

// RuleEngine evaluates parsed rules against a configuration. Pure: the
// same rules and configuration always produce the same result.
type RuleEngine interface {
	Evaluate(rules []ParsedRule, config model.Configuration, fullIDs map[model.OptionCategory]model.IDSet) RuleEvalResult
}

type ruleEngine struct{}

func NewRuleEngine() RuleEngine {
	return &ruleEngine{}
}

// Evaluate walks rules in priority order (ascending, nil priority last,
// stable within ties). Later rules see earlier rules' forced values, and
// the last rule to force a field wins.
func (e *ruleEngine) Evaluate(rules []ParsedRule, config model.Configuration, fullIDs map[model.OptionCategory]model.IDSet) RuleEvalResult {
	result := RuleEvalResult{
		Forced:   make(map[model.OptionCategory]uint),
		Disabled: make(model.DisabledOptions),
	}

	ordered := make([]ParsedRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i].Priority, ordered[j].Priority
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return *a < *b
	})

	get := func(field model.OptionCategory) (uint, bool) {
		if forced, ok := result.Forced[field]; ok {
			return forced, true
		}
		return config.Selected(field)
	}

	for _, rule := range ordered {
		if rule.Condition == nil || !rule.Condition.eval(get) {
			continue
		}

		logger.Debug("Rule condition matched", map[string]interface{}{
			"rule_id":   rule.ID,
			"rule_name": rule.Name,
		})

		for _, force := range rule.Forces {
			result.Forced[force.Category] = force.OptionID
		}
		for _, narrow := range rule.Narrows {
			for id := range fullIDs[narrow.Category] {
				if !narrow.Allowed.Has(id) {
					result.Disabled.Disable(narrow.Category, id)
				}
			}
		}
		if rule.Effects.ProductImage != "" {
			result.SideEffects.ProductImage = rule.Effects.ProductImage
		}
		for category, code := range rule.Effects.SKUOverrides {
			if result.SideEffects.SKUOverrides == nil {
				result.SideEffects.SKUOverrides = make(map[model.OptionCategory]string)
			}
			result.SideEffects.SKUOverrides[category] = code
		}
	}

	return result
}
