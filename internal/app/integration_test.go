package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pixelsock/matrix-configurator-backend/internal/app/controller"
	"github.com/pixelsock/matrix-configurator-backend/internal/app/model"
	"github.com/pixelsock/matrix-configurator-backend/internal/app/repository"
	"github.com/pixelsock/matrix-configurator-backend/internal/app/service"
	"github.com/pixelsock/matrix-configurator-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type TestServer struct {
	Router *gin.Engine
	DB     *gorm.DB
}

func uintPtr(v uint) *uint { return &v }
func intPtr(v int) *int    { return &v }

func setupIntegrationTest(t *testing.T) *TestServer {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	seedIntegrationCatalog(t, testDB)

	lineRepo := repository.NewProductLineRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	ruleRepo := repository.NewRuleRepository(testDB)

	catalogService := service.NewCatalogService(lineRepo, productRepo, ruleRepo, time.Minute)
	filteringService := service.NewFilteringService(
		service.NewRuleEngine(),
		service.NewAvailabilityEngine(),
		service.NewSelectionValidator,
	)
	skuService := service.NewSKUService()
	configuratorService := service.NewConfiguratorService(
		catalogService,
		filteringService,
		skuService,
		service.NewPricingService(),
	)

	catalogController := controller.NewCatalogController(catalogService, service.NewCatalogExportService(skuService), nil)
	configuratorController := controller.NewConfiguratorController(configuratorService, catalogService, skuService)

	router := gin.New()

	lines := router.Group("/api/v1/product-lines")
	{
		lines.GET("", catalogController.ListProductLines)
		lines.GET("/:slug/catalog", catalogController.GetCatalog)
	}

	sessions := router.Group("/api/v1/sessions")
	{
		sessions.POST("", configuratorController.CreateSession)
		sessions.GET("/:id", configuratorController.GetSession)
		sessions.PUT("/:id/fields", configuratorController.UpdateField)
		sessions.PUT("/:id/accessories", configuratorController.ToggleAccessory)
		sessions.PUT("/:id/quantity", configuratorController.SetQuantity)
	}

	router.POST("/api/v1/sku/parse", configuratorController.ParseSKU)

	return &TestServer{Router: router, DB: testDB}
}

// seedIntegrationCatalog builds a line with a driver/output dependency:
// selecting the dimming driver forces high output.
func seedIntegrationCatalog(t *testing.T, gdb *gorm.DB) {
	t.Helper()

	line := &model.ProductLine{
		ID:        7,
		Name:      "Deco",
		Slug:      "deco",
		BasePrice: decimal.NewFromInt(450),
		Active:    true,
	}
	require.NoError(t, gdb.Create(line).Error)

	categories := []model.ProductLineCategory{
		{ProductLineID: 7, Category: model.CategoryMirrorStyle, Position: 1, Required: true},
		{ProductLineID: 7, Category: model.CategoryLightDirection, Position: 2, Required: true},
		{ProductLineID: 7, Category: model.CategoryDriver, Position: 3, Required: true},
		{ProductLineID: 7, Category: model.CategoryLightOutput, Position: 4, Required: true},
		{ProductLineID: 7, Category: model.CategoryAccessory, Position: 5, Required: false},
	}
	require.NoError(t, gdb.Create(&categories).Error)

	options := []model.Option{
		{ID: 1, Category: model.CategoryMirrorStyle, Name: "Rectangle", SKUCode: "01", SortOrder: 1},
		{ID: 11, Category: model.CategoryLightDirection, Name: "Direct", SKUCode: "D", SortOrder: 1},
		{ID: 41, Category: model.CategoryDriver, Name: "Voltage", SKUCode: "V", SortOrder: 1},
		{ID: 42, Category: model.CategoryDriver, Name: "0-10V Dimming", SKUCode: "0", SortOrder: 2},
		{ID: 31, Category: model.CategoryLightOutput, Name: "Standard", SKUCode: "S", SortOrder: 1},
		{ID: 32, Category: model.CategoryLightOutput, Name: "High", SKUCode: "H", SortOrder: 2},
		{ID: 51, Category: model.CategoryAccessory, Name: "Night Light", SKUCode: "NL", SortOrder: 1, PriceModifier: decimal.NewFromInt(40)},
	}
	require.NoError(t, gdb.Create(&options).Error)

	var lineOptions []model.ProductLineOption
	for _, opt := range options {
		lineOptions = append(lineOptions, model.ProductLineOption{
			ProductLineID: 7,
			Category:      opt.Category,
			OptionID:      opt.ID,
		})
	}
	require.NoError(t, gdb.Create(&lineOptions).Error)

	product := &model.Product{
		ID:            101,
		ProductLineID: 7,
		Name:          "Rectangle Direct",
		SKUCode:       "T01D",
		Active:        true,
		MirrorStyleID: uintPtr(1), LightDirectionID: uintPtr(11),
	}
	require.NoError(t, gdb.Create(product).Error)

	rule := &model.Rule{
		ID:            201,
		ProductLineID: 7,
		Name:          "dimming drivers require high output",
		Priority:      intPtr(1),
		IfThis:        `{"driver":{"_eq":42}}`,
		ThenThat:      `{"light_output":{"_eq":32}}`,
	}
	require.NoError(t, gdb.Create(rule).Error)
}

func (s *TestServer) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)

	var response map[string]interface{}
	if len(w.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	}
	return w, response
}

// TestConfiguratorFlow walks the whole journey: browse the catalog, open
// a session, trip a rule, add an accessory, change quantity.
func TestConfiguratorFlow(t *testing.T) {
	server := setupIntegrationTest(t)

	// 1. Browse product lines
	w, response := server.do(t, http.MethodGet, "/api/v1/product-lines", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), response["count"])

	// 2. Load the catalog
	w, response = server.do(t, http.MethodGet, "/api/v1/product-lines/deco/catalog", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), response["product_count"])
	assert.Equal(t, float64(1), response["rule_count"])

	// 3. Open a session; defaults pick the first option per category
	w, response = server.do(t, http.MethodPost, "/api/v1/sessions", map[string]interface{}{
		"product_line": "deco",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	sessionID := response["session_id"].(string)
	assert.Equal(t, "01-D-V-S-NA", response["sku"])
	assert.Equal(t, true, response["converged"])

	// 4. Pick the dimming driver; the rule forces high output
	w, response = server.do(t, http.MethodPut, fmt.Sprintf("/api/v1/sessions/%s/fields", sessionID), map[string]interface{}{
		"category":  "driver",
		"option_id": 42,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "01-D-0-H-NA", response["sku"])

	disabled := response["disabled_option_ids"].(map[string]interface{})
	outputDisabled := disabled["light_output"].([]interface{})
	assert.Equal(t, []interface{}{float64(31)}, outputDisabled)

	// 5. Add the night light
	w, response = server.do(t, http.MethodPut, fmt.Sprintf("/api/v1/sessions/%s/accessories", sessionID), map[string]interface{}{
		"option_id": 51,
		"selected":  true,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "01-D-0-H-NL", response["sku"])

	// 6. Two units: (450 + 40) * 2
	w, response = server.do(t, http.MethodPut, fmt.Sprintf("/api/v1/sessions/%s/quantity", sessionID), map[string]interface{}{
		"quantity": 2,
	})
	require.Equal(t, http.StatusOK, w.Code)
	price := response["price"].(map[string]interface{})
	assert.Equal(t, "980", price["total"])

	// 7. The session survives a reload
	w, response = server.do(t, http.MethodGet, fmt.Sprintf("/api/v1/sessions/%s", sessionID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "01-D-0-H-NL", response["sku"])

	// 8. Share the SKU: parsing it back yields the same configuration
	w, response = server.do(t, http.MethodPost, "/api/v1/sku/parse", map[string]interface{}{
		"product_line": "deco",
		"sku":          "01-D-0-H-NL",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, response["complete"])

	config := response["configuration"].(map[string]interface{})
	selections := config["selections"].(map[string]interface{})
	assert.Equal(t, float64(42), selections["driver"])
}
