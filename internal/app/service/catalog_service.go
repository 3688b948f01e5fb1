package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/pixelsock/matrix-configurator-backend/internal/app/model"
	"github.com/pixelsock/matrix-configurator-backend/internal/app/repository"
	"github.com/pixelsock/matrix-configurator-backend/pkg/logger"
	"github.com/pixelsock/matrix-configurator-backend/pkg/redis"
	"gorm.io/gorm"
)

var ErrProductLineNotFound = errors.New("product line not found")

// catalogPayload is the serializable form of a loaded catalog, shared
// through the Redis layer. Rules travel raw and are parsed on arrival.
type catalogPayload struct {
	Line       model.ProductLine                      `json:"line"`
	Categories []model.ProductLineCategory            `json:"categories"`
	Options    map[model.OptionCategory][]model.Option `json:"options"`
	Products   []model.Product                        `json:"products"`
	Rules      []model.Rule                           `json:"rules"`
}

// snapshotEntry is one in-process cache slot.
type snapshotEntry struct {
	snapshot *CatalogSnapshot
	expires  time.Time
}

// snapshotCache is the loader's explicit in-process cache: constructed
// per service, TTL-bounded, invalidated on product-line switch. No
// ambient package-level state.
type snapshotCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]snapshotEntry
}

func newSnapshotCache(ttl time.Duration) *snapshotCache {
	return &snapshotCache{
		ttl:     ttl,
		entries: make(map[string]snapshotEntry),
	}
}

func (c *snapshotCache) get(slug string) (*CatalogSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[slug]
	if !ok || time.Now().After(entry.expires) {
		return nil, false
	}
	return entry.snapshot, true
}

func (c *snapshotCache) set(slug string, snapshot *CatalogSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[slug] = snapshotEntry{
		snapshot: snapshot,
		expires:  time.Now().Add(c.ttl),
	}
}

func (c *snapshotCache) delete(slug string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, slug)
}

func (c *snapshotCache) slugs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.entries))
	for slug := range c.entries {
		out = append(out, slug)
	}
	return out
}

// CatalogService loads, caches, and invalidates per-line catalog
// snapshots: the option sets, the product rows, and the parsed rules.
type CatalogService interface {
	ListProductLines(ctx context.Context) ([]model.ProductLine, error)
	Snapshot(ctx context.Context, slug string) (*CatalogSnapshot, error)
	Invalidate(ctx context.Context, slug string)
	RefreshCached(ctx context.Context) error
}

type catalogService struct {
	lineRepo    repository.ProductLineRepository
	productRepo repository.ProductRepository
	ruleRepo    repository.RuleRepository
	cache       *snapshotCache
	cacheTTL    time.Duration
}

func NewCatalogService(
	lineRepo repository.ProductLineRepository,
	productRepo repository.ProductRepository,
	ruleRepo repository.RuleRepository,
	cacheTTL time.Duration,
) CatalogService {
	return &catalogService{
		lineRepo:    lineRepo,
		productRepo: productRepo,
		ruleRepo:    ruleRepo,
		cache:       newSnapshotCache(cacheTTL),
		cacheTTL:    cacheTTL,
	}
}

func (s *catalogService) ListProductLines(ctx context.Context) ([]model.ProductLine, error) {
	lines, err := s.lineRepo.FindAllActive()
	if err != nil {
		logger.Error("Failed to list product lines", err, nil)
		return nil, err
	}
	return lines, nil
}

// Snapshot returns the catalog snapshot for a product line, checking the
// in-process cache, then the shared Redis cache, then the database.
func (s *catalogService) Snapshot(ctx context.Context, slug string) (*CatalogSnapshot, error) {
	if snapshot, ok := s.cache.get(slug); ok {
		logger.Debug("Catalog snapshot cache hit", map[string]interface{}{
			"product_line": slug,
		})
		return snapshot, nil
	}

	if raw, err := redis.GetCatalog(ctx, slug); err == nil {
		var payload catalogPayload
		if err := json.Unmarshal(raw, &payload); err == nil {
			snapshot := snapshotFromPayload(payload)
			s.cache.set(slug, snapshot)
			logger.Debug("Catalog snapshot loaded from shared cache", map[string]interface{}{
				"product_line": slug,
			})
			return snapshot, nil
		}
		logger.Warn("Discarding undecodable cached catalog payload", map[string]interface{}{
			"product_line": slug,
		})
	}

	payload, err := s.loadPayload(slug)
	if err != nil {
		return nil, err
	}

	if redis.Enabled() {
		if raw, err := json.Marshal(payload); err == nil {
			// Best effort; a cache write failure never blocks the load.
			_ = redis.SetCatalog(ctx, slug, raw, s.cacheTTL)
		}
	}

	snapshot := snapshotFromPayload(*payload)
	s.cache.set(slug, snapshot)

	logger.Info("Catalog snapshot loaded", map[string]interface{}{
		"product_line": slug,
		"options":      len(snapshot.Options),
		"products":     len(snapshot.Products),
		"rules":        len(snapshot.Rules),
	})
	return snapshot, nil
}

func (s *catalogService) loadPayload(slug string) (*catalogPayload, error) {
	line, err := s.lineRepo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductLineNotFound
		}
		return nil, err
	}

	products, err := s.productRepo.FindByProductLine(line.ID)
	if err != nil {
		return nil, err
	}

	rules, err := s.ruleRepo.FindByProductLine(line.ID)
	if err != nil {
		return nil, err
	}

	options := make(map[model.OptionCategory][]model.Option)
	for _, defaultOption := range line.DefaultOptions {
		options[defaultOption.Category] = append(options[defaultOption.Category], defaultOption.Option)
	}

	payload := &catalogPayload{
		Line:       *line,
		Categories: line.Categories,
		Options:    options,
		Products:   products,
		Rules:      rules,
	}
	payload.Line.DefaultOptions = nil
	payload.Line.Categories = nil
	return payload, nil
}

func snapshotFromPayload(payload catalogPayload) *CatalogSnapshot {
	return NewCatalogSnapshot(payload.Line, payload.Categories, payload.Options, payload.Products, payload.Rules)
}

// Invalidate drops a product line's snapshot from both cache layers,
// called on product-line switch and after a remote sync.
func (s *catalogService) Invalidate(ctx context.Context, slug string) {
	s.cache.delete(slug)
	_ = redis.InvalidateCatalog(ctx, slug)
	logger.Debug("Catalog snapshot invalidated", map[string]interface{}{
		"product_line": slug,
	})
}

// RefreshCached re-loads every line currently held in the in-process
// cache, used by the refresh scheduler to keep long sessions warm.
func (s *catalogService) RefreshCached(ctx context.Context) error {
	var firstErr error
	for _, slug := range s.cache.slugs() {
		s.Invalidate(ctx, slug)
		if _, err := s.Snapshot(ctx, slug); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
