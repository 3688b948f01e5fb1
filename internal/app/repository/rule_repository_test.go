package repository

import (
	"testing"

	"github.com/pixelsock/matrix-configurator-backend/internal/app/model"
	"github.com/pixelsock/matrix-configurator-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRuleRepositoryTest(t *testing.T) (*gorm.DB, RuleRepository) {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	return testDB, NewRuleRepository(testDB)
}

func intPtr(v int) *int { return &v }

func TestRuleRepository_FindByProductLine_OrdersByPriority(t *testing.T) {
	_, repo := setupRuleRepositoryTest(t)

	rules := []model.Rule{
		{ProductLineID: 1, Name: "no priority first inserted", IfThis: `{}`, ThenThat: `{}`},
		{ProductLineID: 1, Name: "priority five", Priority: intPtr(5), IfThis: `{}`, ThenThat: `{}`},
		{ProductLineID: 1, Name: "priority one", Priority: intPtr(1), IfThis: `{}`, ThenThat: `{}`},
		{ProductLineID: 2, Name: "other line", Priority: intPtr(1), IfThis: `{}`, ThenThat: `{}`},
	}
	for i := range rules {
		require.NoError(t, repo.Create(&rules[i]))
	}

	found, err := repo.FindByProductLine(1)
	require.NoError(t, err)
	require.Len(t, found, 3)

	// Prioritized rules ascend; nil priority sorts last
	assert.Equal(t, "priority one", found[0].Name)
	assert.Equal(t, "priority five", found[1].Name)
	assert.Equal(t, "no priority first inserted", found[2].Name)
}

func TestRuleRepository_ReplaceForProductLine(t *testing.T) {
	_, repo := setupRuleRepositoryTest(t)

	old := model.Rule{ProductLineID: 1, Name: "old", IfThis: `{}`, ThenThat: `{}`}
	require.NoError(t, repo.Create(&old))

	replacement := []model.Rule{
		{Name: "new a", IfThis: `{}`, ThenThat: `{}`},
		{Name: "new b", IfThis: `{}`, ThenThat: `{}`},
	}
	require.NoError(t, repo.ReplaceForProductLine(1, replacement))

	found, err := repo.FindByProductLine(1)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "new a", found[0].Name)
	assert.Equal(t, uint(1), found[0].ProductLineID)
}
