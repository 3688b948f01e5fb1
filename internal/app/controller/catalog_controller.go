package controller

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pixelsock/matrix-configurator-backend/internal/app/model"
	"github.com/pixelsock/matrix-configurator-backend/internal/app/service"
	apperrors "github.com/pixelsock/matrix-configurator-backend/internal/errors"
	"github.com/pixelsock/matrix-configurator-backend/internal/middleware"
)

type CatalogController struct {
	catalogService service.CatalogService
	exportService  service.CatalogExportService
	syncService    service.CatalogSyncService // nil when no remote backend is configured
}

func NewCatalogController(catalogService service.CatalogService, exportService service.CatalogExportService, syncService service.CatalogSyncService) *CatalogController {
	return &CatalogController{
		catalogService: catalogService,
		exportService:  exportService,
		syncService:    syncService,
	}
}

// ListProductLines returns all active product lines
// GET /api/v1/product-lines
func (ctrl *CatalogController) ListProductLines(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	lines, err := ctrl.catalogService.ListProductLines(c.Request.Context())
	if err != nil {
		log.Error("Failed to fetch product lines", err, nil)
		info := apperrors.ParseError(err, "product lines")
		apperrors.RespondWithError(c, http.StatusInternalServerError, info.Code, info.Message)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product_lines": lines,
		"count":         len(lines),
	})
}

// GetCatalog returns the option catalog of one product line
// GET /api/v1/product-lines/:slug/catalog
func (ctrl *CatalogController) GetCatalog(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	slug := c.Param("slug")

	snapshot, err := ctrl.catalogService.Snapshot(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, service.ErrProductLineNotFound) {
			log.Warn("Product line not found", map[string]interface{}{"slug": slug})
			apperrors.NotFound(c, apperrors.CatalogLineNotFound, "Product line not found")
			return
		}
		log.Error("Failed to load catalog", err, map[string]interface{}{"slug": slug})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.CatalogLoadFailed, "Failed to load the catalog")
		return
	}

	line := snapshot.Line
	line.Products = nil
	line.Rules = nil

	optionCounts := make(map[model.OptionCategory]int, len(snapshot.Options))
	for category, options := range snapshot.Options {
		optionCounts[category] = len(options)
	}

	log.Info("Catalog fetched", map[string]interface{}{
		"slug":     slug,
		"products": len(snapshot.Products),
		"rules":    len(snapshot.Rules),
	})

	c.JSON(http.StatusOK, gin.H{
		"product_line":  line,
		"categories":    snapshot.Categories,
		"options":       snapshot.Options,
		"option_counts": optionCounts,
		"product_count": len(snapshot.Products),
		"rule_count":    len(snapshot.Rules),
	})
}

// ExportCatalog streams the variant matrix spreadsheet
// GET /api/v1/product-lines/:slug/catalog/export
func (ctrl *CatalogController) ExportCatalog(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	slug := c.Param("slug")

	snapshot, err := ctrl.catalogService.Snapshot(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, service.ErrProductLineNotFound) {
			apperrors.NotFound(c, apperrors.CatalogLineNotFound, "Product line not found")
			return
		}
		log.Error("Failed to load catalog for export", err, map[string]interface{}{"slug": slug})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.CatalogLoadFailed, "Failed to load the catalog")
		return
	}

	data, err := ctrl.exportService.ExportVariantMatrix(snapshot)
	if err != nil {
		log.Error("Failed to export variant matrix", err, map[string]interface{}{"slug": slug})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.CatalogExportFailed, "Failed to export the variant matrix")
		return
	}

	log.Info("Variant matrix exported", map[string]interface{}{
		"slug":  slug,
		"bytes": len(data),
	})

	filename := fmt.Sprintf("%s-variants.xlsx", slug)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// SyncCatalog pulls a product line's products and rules from the remote
// backend and drops the cached snapshot
// POST /api/v1/product-lines/:slug/sync
func (ctrl *CatalogController) SyncCatalog(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	slug := c.Param("slug")

	if ctrl.syncService == nil {
		apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.CatalogSyncFailed, "Remote catalog sync is not configured")
		return
	}

	if err := ctrl.syncService.SyncProductLine(c.Request.Context(), slug); err != nil {
		switch {
		case errors.Is(err, service.ErrRemoteSyncUnavailable):
			apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.CatalogSyncFailed, "Remote catalog sync is not configured")
		case errors.Is(err, service.ErrProductLineNotFound):
			apperrors.NotFound(c, apperrors.CatalogLineNotFound, "Product line not found")
		default:
			log.Error("Catalog sync failed", err, map[string]interface{}{"slug": slug})
			apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.CatalogSyncFailed, "Failed to sync the catalog from the remote backend")
		}
		return
	}

	log.Info("Catalog synced from remote backend", map[string]interface{}{"slug": slug})
	c.JSON(http.StatusOK, gin.H{"message": "Catalog synced", "product_line": slug})
}
