package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pixelsock/matrix-configurator-backend/internal/app/model"
	"github.com/pixelsock/matrix-configurator-backend/internal/app/service"
	apperrors "github.com/pixelsock/matrix-configurator-backend/internal/errors"
	"github.com/pixelsock/matrix-configurator-backend/internal/middleware"
)

type ConfiguratorController struct {
	configuratorService service.ConfiguratorService
	catalogService      service.CatalogService
	skuService          service.SKUService
}

func NewConfiguratorController(configuratorService service.ConfiguratorService, catalogService service.CatalogService, skuService service.SKUService) *ConfiguratorController {
	return &ConfiguratorController{
		configuratorService: configuratorService,
		catalogService:      catalogService,
		skuService:          skuService,
	}
}

type CreateSessionRequest struct {
	ProductLine string `json:"product_line" binding:"required"`
	SKU         string `json:"sku"`
}

type UpdateFieldRequest struct {
	Category model.OptionCategory `json:"category" binding:"required"`
	OptionID uint                 `json:"option_id"`
}

type ToggleAccessoryRequest struct {
	OptionID uint  `json:"option_id" binding:"required"`
	Selected *bool `json:"selected" binding:"required"`
}

type SetQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

type SwitchProductLineRequest struct {
	Slug string `json:"slug" binding:"required"`
}

type ParseSKURequest struct {
	ProductLine string `json:"product_line" binding:"required"`
	SKU         string `json:"sku" binding:"required"`
}

// CreateSession starts a configurator session for a product line. A seed
// SKU (body field or ?search= query) pre-fills the configuration.
// POST /api/v1/sessions
func (ctrl *ConfiguratorController) CreateSession(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid session creation request", map[string]interface{}{"error": err.Error()})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "product_line is required")
		return
	}

	seedSKU := req.SKU
	if seedSKU == "" {
		seedSKU = c.Query("search")
	}

	state, err := ctrl.configuratorService.CreateSession(c.Request.Context(), req.ProductLine, seedSKU)
	if err != nil {
		ctrl.respondServiceError(c, err, "create session")
		return
	}

	log.Info("Configurator session created", map[string]interface{}{
		"session_id":   state.SessionID,
		"product_line": req.ProductLine,
	})

	c.JSON(http.StatusCreated, state)
}

// GetSession returns the current stabilized state of a session
// GET /api/v1/sessions/:id
func (ctrl *ConfiguratorController) GetSession(c *gin.Context) {
	state, err := ctrl.configuratorService.GetSession(c.Param("id"))
	if err != nil {
		ctrl.respondServiceError(c, err, "get session")
		return
	}
	c.JSON(http.StatusOK, state)
}

// UpdateField sets one category's selection and returns the stabilized state
// PUT /api/v1/sessions/:id/fields
func (ctrl *ConfiguratorController) UpdateField(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid field update request", map[string]interface{}{"error": err.Error()})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "category is required")
		return
	}

	state, err := ctrl.configuratorService.UpdateField(c.Request.Context(), c.Param("id"), req.Category, req.OptionID)
	if err != nil {
		ctrl.respondServiceError(c, err, "update field")
		return
	}

	c.JSON(http.StatusOK, state)
}

// ToggleAccessory adds or removes one accessory
// PUT /api/v1/sessions/:id/accessories
func (ctrl *ConfiguratorController) ToggleAccessory(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ToggleAccessoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid accessory toggle request", map[string]interface{}{"error": err.Error()})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "option_id and selected are required")
		return
	}

	state, err := ctrl.configuratorService.ToggleAccessory(c.Request.Context(), c.Param("id"), req.OptionID, *req.Selected)
	if err != nil {
		ctrl.respondServiceError(c, err, "toggle accessory")
		return
	}

	c.JSON(http.StatusOK, state)
}

// SetQuantity updates the order quantity, which affects price only
// PUT /api/v1/sessions/:id/quantity
func (ctrl *ConfiguratorController) SetQuantity(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid quantity request", map[string]interface{}{"error": err.Error()})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "quantity is required")
		return
	}

	state, err := ctrl.configuratorService.SetQuantity(c.Request.Context(), c.Param("id"), req.Quantity)
	if err != nil {
		ctrl.respondServiceError(c, err, "set quantity")
		return
	}

	c.JSON(http.StatusOK, state)
}

// SwitchProductLine moves the session to another product line, resetting
// the configuration to that line's defaults
// PUT /api/v1/sessions/:id/product-line
func (ctrl *ConfiguratorController) SwitchProductLine(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req SwitchProductLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid product line switch request", map[string]interface{}{"error": err.Error()})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "slug is required")
		return
	}

	state, err := ctrl.configuratorService.SwitchProductLine(c.Request.Context(), c.Param("id"), req.Slug)
	if err != nil {
		ctrl.respondServiceError(c, err, "switch product line")
		return
	}

	c.JSON(http.StatusOK, state)
}

// ParseSKU resolves a SKU string against a product line's catalog
// POST /api/v1/sku/parse
func (ctrl *ConfiguratorController) ParseSKU(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ParseSKURequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid SKU parse request", map[string]interface{}{"error": err.Error()})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "product_line and sku are required")
		return
	}

	snapshot, err := ctrl.catalogService.Snapshot(c.Request.Context(), req.ProductLine)
	if err != nil {
		ctrl.respondServiceError(c, err, "parse sku")
		return
	}

	config := ctrl.skuService.Parse(req.SKU, snapshot)
	rebuilt := ctrl.skuService.Build(config, snapshot, nil)

	log.Info("SKU parsed", map[string]interface{}{
		"product_line": req.ProductLine,
		"sku":          req.SKU,
		"resolved":     len(config.Selections),
	})

	c.JSON(http.StatusOK, gin.H{
		"configuration": config,
		"sku":           rebuilt,
		"complete":      rebuilt == req.SKU,
	})
}

// respondServiceError maps service sentinels onto the error taxonomy.
func (ctrl *ConfiguratorController) respondServiceError(c *gin.Context, err error, action string) {
	log := middleware.GetLoggerFromContext(c)

	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		apperrors.NotFound(c, apperrors.ConfigSessionNotFound, "Configurator session not found")
	case errors.Is(err, service.ErrProductLineNotFound):
		apperrors.NotFound(c, apperrors.CatalogLineNotFound, "Product line not found")
	case errors.Is(err, service.ErrUnknownCategory):
		apperrors.BadRequest(c, apperrors.ConfigUnknownCategory, "The category is not part of this product line")
	case errors.Is(err, service.ErrInvalidOption):
		apperrors.BadRequest(c, apperrors.ConfigInvalidOption, "The option does not belong to this category")
	case errors.Is(err, service.ErrInvalidQuantity):
		apperrors.BadRequest(c, apperrors.ConfigInvalidQuantity, "Quantity must be at least 1")
	case errors.Is(err, service.ErrAccessoryCategory):
		apperrors.BadRequest(c, apperrors.ConfigAccessoryToggle, "Accessories are toggled through the accessories endpoint")
	default:
		log.Error("Configurator request failed", err, map[string]interface{}{"action": action})
		info := apperrors.ParseError(err, "session")
		apperrors.RespondWithError(c, http.StatusInternalServerError, info.Code, info.Message)
	}
}
