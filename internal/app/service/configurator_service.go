package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pixelsock/matrix-configurator-backend/internal/app/model"
	"github.com/pixelsock/matrix-configurator-backend/pkg/logger"
)

var (
	ErrSessionNotFound   = errors.New("configurator session not found")
	ErrUnknownCategory   = errors.New("category not part of product line")
	ErrInvalidOption     = errors.New("option does not belong to category")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrAccessoryCategory = errors.New("accessories are toggled, not selected")
)

const (
	// Duplicate adjustment notifications within this window are dropped
	// so the stabilization loop cannot spam the UI.
	adjustmentDedupWindow = time.Second

	// Most recent notifications kept per session.
	adjustmentHistoryLimit = 20
)

// SessionState is the read model handed to the UI layer and websocket
// subscribers: the stabilized configuration plus everything derived from it.
type SessionState struct {
	SessionID      string                          `json:"session_id"`
	ProductLine    model.ProductLine               `json:"product_line"`
	Config         model.Configuration             `json:"configuration"`
	Disabled       map[model.OptionCategory][]uint `json:"disabled_option_ids"`
	CurrentProduct *model.Product                  `json:"current_product,omitempty"`
	ImageOverride  string                          `json:"image_override,omitempty"`
	SKU            string                          `json:"sku"`
	Price          PriceSummary                    `json:"price"`
	Notifications  []model.Adjustment              `json:"notifications"`
	Unresolvable   []model.OptionCategory          `json:"unresolvable,omitempty"`
	Converged      bool                            `json:"converged"`
	UpdatedAt      time.Time                       `json:"updated_at"`
}

// ConfiguratorService owns configurator sessions: each holds the single
// current configuration for a product line and serializes every
// recompute. Engines stay pure; only this store writes state.
type ConfiguratorService interface {
	CreateSession(ctx context.Context, slug string, seedSKU string) (SessionState, error)
	GetSession(sessionID string) (SessionState, error)
	UpdateField(ctx context.Context, sessionID string, category model.OptionCategory, optionID uint) (SessionState, error)
	ToggleAccessory(ctx context.Context, sessionID string, optionID uint, selected bool) (SessionState, error)
	SetQuantity(ctx context.Context, sessionID string, quantity int) (SessionState, error)
	SwitchProductLine(ctx context.Context, sessionID string, slug string) (SessionState, error)
	Subscribe(sessionID string, listener func(SessionState)) (func(), error)
}

type session struct {
	mu sync.Mutex

	id       string
	snapshot *CatalogSnapshot

	config         model.Configuration
	disabled       model.DisabledOptions
	currentProduct *model.Product
	imageOverride  string
	skuOverrides   map[model.OptionCategory]string
	notifications  []model.Adjustment
	unresolvable   []model.OptionCategory
	converged      bool
	sku            string
	price          PriceSummary
	updatedAt      time.Time

	listeners map[string]func(SessionState)
}

type configuratorService struct {
	catalog   CatalogService
	filtering FilteringService
	sku       SKUService
	pricing   PricingService

	mu       sync.RWMutex
	sessions map[string]*session
}

func NewConfiguratorService(catalog CatalogService, filtering FilteringService, skuService SKUService, pricing PricingService) ConfiguratorService {
	return &configuratorService{
		catalog:   catalog,
		filtering: filtering,
		sku:       skuService,
		pricing:   pricing,
		sessions:  make(map[string]*session),
	}
}

func (s *configuratorService) CreateSession(ctx context.Context, slug string, seedSKU string) (SessionState, error) {
	snapshot, err := s.catalog.Snapshot(ctx, slug)
	if err != nil {
		return SessionState{}, err
	}

	sess := &session{
		id:        uuid.NewString(),
		snapshot:  snapshot,
		config:    defaultConfiguration(snapshot),
		listeners: make(map[string]func(SessionState)),
	}

	if seedSKU != "" {
		seeded := s.sku.Parse(seedSKU, snapshot)
		for category, id := range seeded.Selections {
			sess.config.Select(category, id)
		}
		for _, id := range seeded.Accessories {
			sess.config.AddAccessory(id)
		}
	}

	sess.mu.Lock()
	s.recomputeLocked(sess)
	state := s.stateLocked(sess)
	sess.mu.Unlock()

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	logger.Info("Configurator session created", map[string]interface{}{
		"session_id":   sess.id,
		"product_line": slug,
		"seeded":       seedSKU != "",
	})
	return state, nil
}

func (s *configuratorService) find(sessionID string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *configuratorService) GetSession(sessionID string) (SessionState, error) {
	sess, err := s.find(sessionID)
	if err != nil {
		return SessionState{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.stateLocked(sess), nil
}

// UpdateField applies a user selection and runs the filtering pass. The
// session mutex is the single control path: a second update waits for the
// in-flight recompute and then runs against the latest state.
func (s *configuratorService) UpdateField(ctx context.Context, sessionID string, category model.OptionCategory, optionID uint) (SessionState, error) {
	sess, err := s.find(sessionID)
	if err != nil {
		return SessionState{}, err
	}

	sess.mu.Lock()
	if category == model.CategoryAccessory {
		sess.mu.Unlock()
		return SessionState{}, ErrAccessoryCategory
	}
	if !sess.snapshot.HasCategory(category) {
		sess.mu.Unlock()
		return SessionState{}, ErrUnknownCategory
	}
	if optionID != 0 {
		if _, ok := sess.snapshot.OptionByID(category, optionID); !ok {
			sess.mu.Unlock()
			return SessionState{}, ErrInvalidOption
		}
	}

	logger.Debug("Updating configuration field", map[string]interface{}{
		"session_id": sessionID,
		"category":   category,
		"option_id":  optionID,
	})

	sess.config.Select(category, optionID)
	s.recomputeLocked(sess)
	state := s.stateLocked(sess)
	sess.mu.Unlock()

	s.notify(sess, state)
	return state, nil
}

func (s *configuratorService) ToggleAccessory(ctx context.Context, sessionID string, optionID uint, selected bool) (SessionState, error) {
	sess, err := s.find(sessionID)
	if err != nil {
		return SessionState{}, err
	}

	sess.mu.Lock()
	if !sess.snapshot.HasCategory(model.CategoryAccessory) {
		sess.mu.Unlock()
		return SessionState{}, ErrUnknownCategory
	}
	if _, ok := sess.snapshot.OptionByID(model.CategoryAccessory, optionID); !ok {
		sess.mu.Unlock()
		return SessionState{}, ErrInvalidOption
	}

	if selected {
		sess.config.AddAccessory(optionID)
	} else {
		sess.config.RemoveAccessory(optionID)
	}
	s.recomputeLocked(sess)
	state := s.stateLocked(sess)
	sess.mu.Unlock()

	s.notify(sess, state)
	return state, nil
}

func (s *configuratorService) SetQuantity(ctx context.Context, sessionID string, quantity int) (SessionState, error) {
	if quantity < 1 {
		return SessionState{}, ErrInvalidQuantity
	}

	sess, err := s.find(sessionID)
	if err != nil {
		return SessionState{}, err
	}

	sess.mu.Lock()
	sess.config.Quantity = quantity
	// Quantity affects price only; no filtering pass needed.
	sess.price = s.pricing.Summarize(sess.config, sess.snapshot)
	sess.updatedAt = time.Now()
	state := s.stateLocked(sess)
	sess.mu.Unlock()

	s.notify(sess, state)
	return state, nil
}

// SwitchProductLine discards the session's configuration and disabled
// sets wholesale and rebuilds them for the new line.
func (s *configuratorService) SwitchProductLine(ctx context.Context, sessionID string, slug string) (SessionState, error) {
	sess, err := s.find(sessionID)
	if err != nil {
		return SessionState{}, err
	}

	snapshot, err := s.catalog.Snapshot(ctx, slug)
	if err != nil {
		// Data-load failure: prior stable state is retained.
		return SessionState{}, err
	}

	sess.mu.Lock()
	previous := sess.snapshot.Line.Slug
	sess.snapshot = snapshot
	sess.config = defaultConfiguration(snapshot)
	sess.notifications = nil
	s.recomputeLocked(sess)
	state := s.stateLocked(sess)
	sess.mu.Unlock()

	s.catalog.Invalidate(ctx, previous)

	logger.Info("Configurator session switched product line", map[string]interface{}{
		"session_id": sessionID,
		"from":       previous,
		"to":         slug,
	})

	s.notify(sess, state)
	return state, nil
}

func (s *configuratorService) Subscribe(sessionID string, listener func(SessionState)) (func(), error) {
	sess, err := s.find(sessionID)
	if err != nil {
		return nil, err
	}

	key := uuid.NewString()
	sess.mu.Lock()
	sess.listeners[key] = listener
	sess.mu.Unlock()

	return func() {
		sess.mu.Lock()
		delete(sess.listeners, key)
		sess.mu.Unlock()
	}, nil
}

// recomputeLocked runs the filtering pass against the session's current
// configuration and folds the result back into the session. Caller holds
// the session mutex.
func (s *configuratorService) recomputeLocked(sess *session) {
	result := s.filtering.Recompute(sess.snapshot, sess.config)

	sess.config = result.Config
	sess.disabled = result.Disabled
	sess.currentProduct = result.CurrentProduct
	sess.imageOverride = result.ImageOverride
	sess.skuOverrides = mergeSKUOverrides(result.CurrentProduct, result.SKUOverrides)
	sess.unresolvable = result.Unresolvable
	sess.converged = result.Converged
	sess.appendAdjustments(result.Adjustments)

	sess.sku = s.sku.Build(sess.config, sess.snapshot, sess.skuOverrides)
	sess.price = s.pricing.Summarize(sess.config, sess.snapshot)
	sess.updatedAt = time.Now()
}

// mergeSKUOverrides layers rule-provided codes over the matched product's
// own sku overrides; rules win.
func mergeSKUOverrides(product *model.Product, ruleOverrides map[model.OptionCategory]string) map[model.OptionCategory]string {
	if product == nil && len(ruleOverrides) == 0 {
		return nil
	}
	merged := make(map[model.OptionCategory]string)
	if product != nil {
		for _, override := range product.SKUOverrides {
			merged[override.Category] = override.Code
		}
	}
	for category, code := range ruleOverrides {
		merged[category] = code
	}
	return merged
}

// appendAdjustments adds new notifications, suppressing duplicates of the
// same substitution inside the dedup window and bounding the history.
func (sess *session) appendAdjustments(adjustments []model.Adjustment) {
	for _, adjustment := range adjustments {
		if sess.isDuplicate(adjustment) {
			continue
		}
		sess.notifications = append(sess.notifications, adjustment)
	}
	if overflow := len(sess.notifications) - adjustmentHistoryLimit; overflow > 0 {
		sess.notifications = append([]model.Adjustment(nil), sess.notifications[overflow:]...)
	}
}

func (sess *session) isDuplicate(adjustment model.Adjustment) bool {
	for i := len(sess.notifications) - 1; i >= 0; i-- {
		existing := sess.notifications[i]
		if adjustment.CreatedAt.Sub(existing.CreatedAt) > adjustmentDedupWindow {
			return false
		}
		if existing.Category == adjustment.Category &&
			existing.OldID == adjustment.OldID &&
			existing.NewID == adjustment.NewID {
			return true
		}
	}
	return false
}

// stateLocked builds the caller-facing read model. Caller holds the
// session mutex.
func (s *configuratorService) stateLocked(sess *session) SessionState {
	disabled := make(map[model.OptionCategory][]uint, len(sess.disabled))
	for category, set := range sess.disabled {
		if len(set) == 0 {
			continue
		}
		disabled[category] = set.Sorted()
	}

	line := sess.snapshot.Line
	line.Products = nil
	line.Rules = nil

	return SessionState{
		SessionID:      sess.id,
		ProductLine:    line,
		Config:         sess.config.Clone(),
		Disabled:       disabled,
		CurrentProduct: sess.currentProduct,
		ImageOverride:  sess.imageOverride,
		SKU:            sess.sku,
		Price:          sess.price,
		Notifications:  append([]model.Adjustment(nil), sess.notifications...),
		Unresolvable:   append([]model.OptionCategory(nil), sess.unresolvable...),
		Converged:      sess.converged,
		UpdatedAt:      sess.updatedAt,
	}
}

// notify fans the stabilized state out to subscribers, outside the
// session mutex: one event per stabilized change, not per iteration.
func (s *configuratorService) notify(sess *session, state SessionState) {
	sess.mu.Lock()
	listeners := make([]func(SessionState), 0, len(sess.listeners))
	for _, listener := range sess.listeners {
		listeners = append(listeners, listener)
	}
	sess.mu.Unlock()

	for _, listener := range listeners {
		listener(state)
	}
}

// defaultConfiguration selects the first option of every required
// single-value category in display order; the first filtering pass
// adjusts anything the catalog or rules disagree with.
func defaultConfiguration(snapshot *CatalogSnapshot) model.Configuration {
	config := model.NewConfiguration(snapshot.Line.ID)
	for _, lineCategory := range snapshot.Categories {
		if lineCategory.Category == model.CategoryAccessory || !lineCategory.Required {
			continue
		}
		options := snapshot.Options[lineCategory.Category]
		if len(options) > 0 {
			config.Select(lineCategory.Category, options[0].ID)
		}
	}
	return config
}
