package service

import (
	"context"
	"testing"
	"time"

	"github.com/pixelsock/matrix-configurator-backend/internal/app/model"
	"github.com/pixelsock/matrix-configurator-backend/internal/app/repository"
	"github.com/pixelsock/matrix-configurator-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedTestCatalog(t *testing.T, gdb *gorm.DB) {
	t.Helper()

	line, categories, options, products, rules := testCatalog()
	line.BasePrice = decimal.NewFromInt(450)
	require.NoError(t, gdb.Create(&line).Error)
	require.NoError(t, gdb.Create(&categories).Error)

	var lineOptions []model.ProductLineOption
	for category, categoryOptions := range options {
		for i := range categoryOptions {
			require.NoError(t, gdb.Create(&categoryOptions[i]).Error)
			lineOptions = append(lineOptions, model.ProductLineOption{
				ProductLineID: line.ID,
				Category:      category,
				OptionID:      categoryOptions[i].ID,
			})
		}
	}
	require.NoError(t, gdb.Create(&lineOptions).Error)
	require.NoError(t, gdb.Create(&products).Error)
	require.NoError(t, gdb.Create(&rules).Error)

	// A second, minimal line for switch tests
	quadro := model.ProductLine{ID: 8, Name: "Quadro", Slug: "quadro", Active: true, BasePrice: decimal.NewFromInt(300)}
	require.NoError(t, gdb.Create(&quadro).Error)
	require.NoError(t, gdb.Create(&model.ProductLineCategory{ProductLineID: 8, Category: model.CategoryMirrorStyle, Position: 1, Required: true}).Error)
	squareStyle := model.Option{ID: 61, Category: model.CategoryMirrorStyle, Name: "Square", SKUCode: "10", SortOrder: 1}
	require.NoError(t, gdb.Create(&squareStyle).Error)
	require.NoError(t, gdb.Create(&model.ProductLineOption{ProductLineID: 8, Category: model.CategoryMirrorStyle, OptionID: 61}).Error)
	require.NoError(t, gdb.Create(&model.Product{ID: 110, ProductLineID: 8, Name: "Square", SKUCode: "Q10", Active: true, MirrorStyleID: uintPtr(61)}).Error)
}

func setupConfiguratorTest(t *testing.T) ConfiguratorService {
	t.Helper()

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	seedTestCatalog(t, testDB)

	lineRepo := repository.NewProductLineRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	ruleRepo := repository.NewRuleRepository(testDB)

	catalog := NewCatalogService(lineRepo, productRepo, ruleRepo, time.Minute)
	filtering := newFilteringService()
	return NewConfiguratorService(catalog, filtering, NewSKUService(), NewPricingService())
}

func TestConfiguratorService_CreateSession_Defaults(t *testing.T) {
	configurator := setupConfiguratorTest(t)

	state, err := configurator.CreateSession(context.Background(), "deco", "")
	require.NoError(t, err)

	assert.NotEmpty(t, state.SessionID)
	assert.Equal(t, "deco", state.ProductLine.Slug)
	assert.True(t, state.Converged)
	assert.Empty(t, state.Notifications)

	// Defaults pick the first option of every required category
	assert.Equal(t, "01-D-2436-S-V-NA", state.SKU)
	assert.True(t, state.Price.Total.Equal(decimal.NewFromInt(450)), "total %s", state.Price.Total)
}

func TestConfiguratorService_CreateSession_SeedSKU(t *testing.T) {
	configurator := setupConfiguratorTest(t)

	state, err := configurator.CreateSession(context.Background(), "deco", "02-D")
	require.NoError(t, err)

	style, ok := state.Config.Selected(model.CategoryMirrorStyle)
	require.True(t, ok)
	assert.Equal(t, uint(2), style)
	// The round-style rule swaps the style code in the assembled SKU
	assert.Equal(t, "RND-D-2436-S-V-NA", state.SKU)

	require.NotNil(t, state.CurrentProduct)
	assert.Equal(t, "Round Direct", state.CurrentProduct.Name)
	// The round-style rule supplies the image override
	assert.Equal(t, "https://cdn.example.com/deco/round.png", state.ImageOverride)
}

func TestConfiguratorService_CreateSession_UnknownLine(t *testing.T) {
	configurator := setupConfiguratorTest(t)

	_, err := configurator.CreateSession(context.Background(), "missing", "")
	assert.ErrorIs(t, err, ErrProductLineNotFound)
}

func TestConfiguratorService_GetSession(t *testing.T) {
	configurator := setupConfiguratorTest(t)

	created, err := configurator.CreateSession(context.Background(), "deco", "")
	require.NoError(t, err)

	fetched, err := configurator.GetSession(created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, created.SKU, fetched.SKU)

	_, err = configurator.GetSession("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestConfiguratorService_UpdateField_RuleForce(t *testing.T) {
	configurator := setupConfiguratorTest(t)

	created, err := configurator.CreateSession(context.Background(), "deco", "")
	require.NoError(t, err)

	state, err := configurator.UpdateField(context.Background(), created.SessionID, model.CategoryDriver, 42)
	require.NoError(t, err)

	// The dimming rule forces high output and locks the alternative out
	output, ok := state.Config.Selected(model.CategoryLightOutput)
	require.True(t, ok)
	assert.Equal(t, uint(32), output)
	assert.Equal(t, []uint{31}, state.Disabled[model.CategoryLightOutput])
	assert.Equal(t, "01-D-2436-H-0-NA", state.SKU)
}

func TestConfiguratorService_UpdateField_AutoAdjustNotification(t *testing.T) {
	configurator := setupConfiguratorTest(t)

	created, err := configurator.CreateSession(context.Background(), "deco", "")
	require.NoError(t, err)

	_, err = configurator.UpdateField(context.Background(), created.SessionID, model.CategoryLightDirection, 12)
	require.NoError(t, err)

	// Round style has no indirect row; the stale direction gets substituted
	state, err := configurator.UpdateField(context.Background(), created.SessionID, model.CategoryMirrorStyle, 2)
	require.NoError(t, err)

	require.NotEmpty(t, state.Notifications)
	assert.Equal(t, model.AdjustmentReasonUnavailable, state.Notifications[0].Reason)
	assert.True(t, state.Converged)
}

func TestConfiguratorService_UpdateField_Validation(t *testing.T) {
	configurator := setupConfiguratorTest(t)

	created, err := configurator.CreateSession(context.Background(), "deco", "")
	require.NoError(t, err)

	tests := []struct {
		name      string
		sessionID string
		category  model.OptionCategory
		optionID  uint
		wantErr   error
	}{
		{"unknown session", "nope", model.CategoryDriver, 41, ErrSessionNotFound},
		{"category not on line", created.SessionID, model.CategoryFrameColor, 1, ErrUnknownCategory},
		{"option from another category", created.SessionID, model.CategoryDriver, 11, ErrInvalidOption},
		{"accessories are toggled", created.SessionID, model.CategoryAccessory, 51, ErrAccessoryCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := configurator.UpdateField(context.Background(), tt.sessionID, tt.category, tt.optionID)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfiguratorService_ToggleAccessory(t *testing.T) {
	configurator := setupConfiguratorTest(t)

	created, err := configurator.CreateSession(context.Background(), "deco", "")
	require.NoError(t, err)

	state, err := configurator.ToggleAccessory(context.Background(), created.SessionID, 51, true)
	require.NoError(t, err)
	assert.Equal(t, "01-D-2436-S-V-NL", state.SKU)

	state, err = configurator.ToggleAccessory(context.Background(), created.SessionID, 51, false)
	require.NoError(t, err)
	assert.Equal(t, "01-D-2436-S-V-NA", state.SKU)

	_, err = configurator.ToggleAccessory(context.Background(), created.SessionID, 999, true)
	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestConfiguratorService_SetQuantity(t *testing.T) {
	configurator := setupConfiguratorTest(t)

	created, err := configurator.CreateSession(context.Background(), "deco", "")
	require.NoError(t, err)

	state, err := configurator.SetQuantity(context.Background(), created.SessionID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, state.Config.Quantity)
	assert.True(t, state.Price.Total.Equal(decimal.NewFromInt(1350)), "total %s", state.Price.Total)

	_, err = configurator.SetQuantity(context.Background(), created.SessionID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestConfiguratorService_SwitchProductLine(t *testing.T) {
	configurator := setupConfiguratorTest(t)

	created, err := configurator.CreateSession(context.Background(), "deco", "")
	require.NoError(t, err)

	state, err := configurator.SwitchProductLine(context.Background(), created.SessionID, "quadro")
	require.NoError(t, err)

	assert.Equal(t, "quadro", state.ProductLine.Slug)
	assert.Equal(t, "10", state.SKU)
	assert.Empty(t, state.Notifications)
	assert.True(t, state.Price.Total.Equal(decimal.NewFromInt(300)), "total %s", state.Price.Total)

	// A failed switch keeps the session on its current line
	_, err = configurator.SwitchProductLine(context.Background(), created.SessionID, "missing")
	assert.ErrorIs(t, err, ErrProductLineNotFound)

	unchanged, err := configurator.GetSession(created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "quadro", unchanged.ProductLine.Slug)
}

func TestConfiguratorService_Subscribe(t *testing.T) {
	configurator := setupConfiguratorTest(t)

	created, err := configurator.CreateSession(context.Background(), "deco", "")
	require.NoError(t, err)

	var received []SessionState
	unsubscribe, err := configurator.Subscribe(created.SessionID, func(state SessionState) {
		received = append(received, state)
	})
	require.NoError(t, err)

	_, err = configurator.UpdateField(context.Background(), created.SessionID, model.CategorySize, 22)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, "01-D-3036-S-V-NA", received[0].SKU)

	unsubscribe()
	_, err = configurator.SetQuantity(context.Background(), created.SessionID, 2)
	require.NoError(t, err)
	assert.Len(t, received, 1)

	_, err = configurator.Subscribe("nope", func(SessionState) {})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSession_AppendAdjustments_DedupWindow(t *testing.T) {
	sess := &session{}
	base := time.Now()

	substitution := func(at time.Time) model.Adjustment {
		return model.Adjustment{
			Category:  model.CategoryLightDirection,
			OldID:     12,
			NewID:     11,
			Reason:    model.AdjustmentReasonUnavailable,
			CreatedAt: at,
		}
	}

	// The same substitution repeated inside the window collapses to one
	sess.appendAdjustments([]model.Adjustment{substitution(base)})
	sess.appendAdjustments([]model.Adjustment{substitution(base.Add(200 * time.Millisecond))})
	sess.appendAdjustments([]model.Adjustment{substitution(base.Add(900 * time.Millisecond))})
	assert.Len(t, sess.notifications, 1)

	// A different substitution inside the window still gets through
	sess.appendAdjustments([]model.Adjustment{{
		Category:  model.CategoryMirrorStyle,
		OldID:     2,
		NewID:     1,
		Reason:    model.AdjustmentReasonUnavailable,
		CreatedAt: base.Add(300 * time.Millisecond),
	}})
	assert.Len(t, sess.notifications, 2)

	// Past the window the same substitution is news again
	sess.appendAdjustments([]model.Adjustment{substitution(base.Add(1500 * time.Millisecond))})
	assert.Len(t, sess.notifications, 3)
}

func TestSession_AppendAdjustments_HistoryBounded(t *testing.T) {
	sess := &session{}
	base := time.Now()

	total := adjustmentHistoryLimit + 5
	for i := 0; i < total; i++ {
		sess.appendAdjustments([]model.Adjustment{{
			Category:  model.CategorySize,
			OldID:     uint(100 + i),
			NewID:     21,
			Reason:    model.AdjustmentReasonUnavailable,
			CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
		}})
	}

	require.Len(t, sess.notifications, adjustmentHistoryLimit)

	// The oldest entries fell off and the newest survived
	assert.Equal(t, uint(105), sess.notifications[0].OldID)
	assert.Equal(t, uint(100+total-1), sess.notifications[len(sess.notifications)-1].OldID)
}
