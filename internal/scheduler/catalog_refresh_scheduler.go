package scheduler

import (
	"context"
	"time"

	"github.com/pixelsock/matrix-configurator-backend/internal/app/service"
	"github.com/pixelsock/matrix-configurator-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const refreshTimeout = 2 * time.Minute

// CatalogRefreshScheduler periodically rebuilds cached catalog snapshots
// so rule and option edits made upstream reach long-lived sessions.
type CatalogRefreshScheduler struct {
	cron           *cron.Cron
	spec           string
	catalogService service.CatalogService
	syncService    service.CatalogSyncService // nil when no remote source is configured
}

// NewCatalogRefreshScheduler creates a scheduler with the given cron spec.
// syncService may be nil; refresh then reloads from the local database only.
func NewCatalogRefreshScheduler(spec string, catalogService service.CatalogService, syncService service.CatalogSyncService) *CatalogRefreshScheduler {
	return &CatalogRefreshScheduler{
		cron:           cron.New(),
		spec:           spec,
		catalogService: catalogService,
		syncService:    syncService,
	}
}

// Start registers the refresh job and starts the cron loop
func (s *CatalogRefreshScheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.refresh)
	if err != nil {
		logger.Error("Failed to add cron job for catalog refresh", err)
		return err
	}

	s.cron.Start()
	logger.Info("Catalog refresh scheduler started", map[string]interface{}{
		"spec": s.spec,
	})

	return nil
}

func (s *CatalogRefreshScheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	logger.Info("Starting scheduled catalog refresh", nil)

	if s.syncService != nil {
		if err := s.syncService.SyncAll(ctx); err != nil {
			// Keep going: a stale local catalog still beats an empty one
			logger.Error("Failed to sync catalog from remote source", err)
		}
	}

	if err := s.catalogService.RefreshCached(ctx); err != nil {
		logger.Error("Failed to refresh cached catalog snapshots", err)
		return
	}

	logger.Info("Catalog refresh completed", nil)
}

// Stop halts the cron loop
func (s *CatalogRefreshScheduler) Stop() {
	logger.Info("Stopping catalog refresh scheduler...", nil)
	s.cron.Stop()
	logger.Info("Catalog refresh scheduler stopped", nil)
}
