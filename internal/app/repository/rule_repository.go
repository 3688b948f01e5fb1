package repository

import (
	"github.com/pixelsock/matrix-configurator-backend/internal/app/model"
	"github.com/pixelsock/matrix-configurator-backend/pkg/logger"
	"gorm.io/gorm"
)

type RuleRepository interface {
	Create(rule *model.Rule) error
	FindByProductLine(productLineID uint) ([]model.Rule, error)
	ReplaceForProductLine(productLineID uint, rules []model.Rule) error
}

type ruleRepository struct {
	db *gorm.DB
}

func NewRuleRepository(db *gorm.DB) RuleRepository {
	return &ruleRepository{db: db}
}

func (r *ruleRepository) Create(rule *model.Rule) error {
	if err := r.db.Create(rule).Error; err != nil {
		logger.Error("Failed to create rule", err, map[string]interface{}{
			"rule_name":       rule.Name,
			"product_line_id": rule.ProductLineID,
		})
		return err
	}
	return nil
}

// FindByProductLine loads the line's rules in priority order; rules
// without a priority sort after the prioritized ones, keeping their
// insert order.
func (r *ruleRepository) FindByProductLine(productLineID uint) ([]model.Rule, error) {
	logger.Debug("Finding rules for product line", map[string]interface{}{
		"product_line_id": productLineID,
	})

	var rules []model.Rule
	err := r.db.
		Where("product_line_id = ?", productLineID).
		Order("priority IS NULL, priority ASC, id ASC").
		Find(&rules).Error
	if err != nil {
		logger.Error("Failed to find rules for product line", err, map[string]interface{}{
			"product_line_id": productLineID,
		})
		return nil, err
	}
	return rules, nil
}

func (r *ruleRepository) ReplaceForProductLine(productLineID uint, rules []model.Rule) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_line_id = ?", productLineID).Delete(&model.Rule{}).Error; err != nil {
			return err
		}
		for i := range rules {
			rules[i].ProductLineID = productLineID
			if err := tx.Create(&rules[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
