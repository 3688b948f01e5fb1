package service

import (
	"context"
	"testing"
	"time"

	"github.com/pixelsock/matrix-configurator-backend/internal/app/model"
	"github.com/pixelsock/matrix-configurator-backend/internal/app/repository"
	"github.com/pixelsock/matrix-configurator-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCatalogServiceTest(t *testing.T) CatalogService {
	t.Helper()

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	seedTestCatalog(t, testDB)

	return NewCatalogService(
		repository.NewProductLineRepository(testDB),
		repository.NewProductRepository(testDB),
		repository.NewRuleRepository(testDB),
		time.Minute,
	)
}

func TestCatalogService_ListProductLines(t *testing.T) {
	catalog := setupCatalogServiceTest(t)

	lines, err := catalog.ListProductLines(context.Background())
	require.NoError(t, err)
	require.Len(t, lines, 2)
	// Ordered by name
	assert.Equal(t, "deco", lines[0].Slug)
	assert.Equal(t, "quadro", lines[1].Slug)
}

func TestCatalogService_Snapshot(t *testing.T) {
	catalog := setupCatalogServiceTest(t)

	snapshot, err := catalog.Snapshot(context.Background(), "deco")
	require.NoError(t, err)

	assert.Equal(t, "deco", snapshot.Line.Slug)
	assert.Len(t, snapshot.Products, 4)
	assert.Len(t, snapshot.Rules, 2)
	assert.Len(t, snapshot.Options[model.CategoryDriver], 3)
	assert.Equal(t, model.CategoryMirrorStyle, snapshot.CategoryOrder()[0])
}

func TestCatalogService_Snapshot_UnknownSlug(t *testing.T) {
	catalog := setupCatalogServiceTest(t)

	_, err := catalog.Snapshot(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProductLineNotFound)
}

func TestCatalogService_Snapshot_CachesPerSlug(t *testing.T) {
	catalog := setupCatalogServiceTest(t)

	first, err := catalog.Snapshot(context.Background(), "deco")
	require.NoError(t, err)

	second, err := catalog.Snapshot(context.Background(), "deco")
	require.NoError(t, err)
	assert.Same(t, first, second)

	catalog.Invalidate(context.Background(), "deco")

	third, err := catalog.Snapshot(context.Background(), "deco")
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestCatalogService_RefreshCached(t *testing.T) {
	catalog := setupCatalogServiceTest(t)

	stale, err := catalog.Snapshot(context.Background(), "deco")
	require.NoError(t, err)

	require.NoError(t, catalog.RefreshCached(context.Background()))

	fresh, err := catalog.Snapshot(context.Background(), "deco")
	require.NoError(t, err)
	assert.NotSame(t, stale, fresh)
	assert.Equal(t, stale.Line.Slug, fresh.Line.Slug)
}
