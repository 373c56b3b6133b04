// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nutriplan/planner/internal/domain/plan"
	"github.com/nutriplan/planner/internal/domain/profile"
	"github.com/nutriplan/planner/internal/domain/recipe"
	"github.com/nutriplan/planner/internal/domain/shared"
	"github.com/nutriplan/planner/internal/ports/outbound"
	"github.com/stretchr/testify/mock"
)

// MockProfileSupplier provides a mock implementation of ProfileSupplier
type MockProfileSupplier struct {
	mock.Mock
}

// GetProfile returns the stubbed profile
func (m *MockProfileSupplier) GetProfile(ctx context.Context, userID uuid.UUID) (*profile.Snapshot, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.Snapshot), args.Error(1)
}

// MockRecipeCatalog provides a mock implementation of RecipeCatalog.
// CreateDraft keeps what it was given so tests can inspect the drafts.
type MockRecipeCatalog struct {
	mock.Mock
	mu      sync.Mutex
	Created []*recipe.Recipe
}

// FindByTitles returns the stubbed matches
func (m *MockRecipeCatalog) FindByTitles(ctx context.Context, titles []string) ([]*recipe.Recipe, error) {
	args := m.Called(ctx, titles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*recipe.Recipe), args.Error(1)
}

// FindApprovedSample returns the stubbed sample
func (m *MockRecipeCatalog) FindApprovedSample(ctx context.Context, limit int) ([]*recipe.Recipe, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*recipe.Recipe), args.Error(1)
}

// CreateDraft records the draft
func (m *MockRecipeCatalog) CreateDraft(ctx context.Context, r *recipe.Recipe) error {
	args := m.Called(ctx, r)
	if args.Error(0) == nil {
		m.mu.Lock()
		m.Created = append(m.Created, r)
		m.mu.Unlock()
	}
	return args.Error(0)
}

// UpdateStatusCascade returns the stubbed count
func (m *MockRecipeCatalog) UpdateStatusCascade(ctx context.Context, ids []uuid.UUID, status recipe.Status, reviewerID uuid.UUID, notes string) (int64, error) {
	args := m.Called(ctx, ids, status, reviewerID, notes)
	return args.Get(0).(int64), args.Error(1)
}

// Update saves a recipe
func (m *MockRecipeCatalog) Update(ctx context.Context, r *recipe.Recipe) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

// FindByID finds a recipe by ID
func (m *MockRecipeCatalog) FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recipe.Recipe), args.Error(1)
}

// FindByIDs finds recipes by IDs
func (m *MockRecipeCatalog) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*recipe.Recipe, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*recipe.Recipe), args.Error(1)
}

// ListByStatus lists recipes
func (m *MockRecipeCatalog) ListByStatus(ctx context.Context, filter outbound.RecipeFilter) ([]*recipe.Recipe, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*recipe.Recipe), args.Get(1).(int64), args.Error(2)
}

// MockPlanRepository provides a mock implementation of PlanRepository
type MockPlanRepository struct {
	mock.Mock
}

// Create saves a plan
func (m *MockPlanRepository) Create(ctx context.Context, p *plan.Plan) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// FindByID finds a plan by ID
func (m *MockPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*plan.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plan.Plan), args.Error(1)
}

// FindByUser finds the plans of a user
func (m *MockPlanRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*plan.Plan, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*plan.Plan), args.Error(1)
}

// List lists plans
func (m *MockPlanRepository) List(ctx context.Context, offset, limit int) ([]*plan.Plan, int64, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*plan.Plan), args.Get(1).(int64), args.Error(2)
}

// SetReviewStatus changes the status of a plan
func (m *MockPlanRepository) SetReviewStatus(ctx context.Context, id uuid.UUID, from, to plan.Status, reviewerID uuid.UUID, notes string) error {
	args := m.Called(ctx, id, from, to, reviewerID, notes)
	return args.Error(0)
}

// ApproveWithCascade approves a plan and its recipes
func (m *MockPlanRepository) ApproveWithCascade(ctx context.Context, id uuid.UUID, reviewerID uuid.UUID, notes string, recipeIDs []uuid.UUID) (int64, error) {
	args := m.Called(ctx, id, reviewerID, notes, recipeIDs)
	return args.Get(0).(int64), args.Error(1)
}

// MockSampleCache provides a mock implementation of SampleCache
type MockSampleCache struct {
	mock.Mock
}

// GetSample returns the stubbed sample
func (m *MockSampleCache) GetSample(ctx context.Context, limit int) ([]recipe.Summary, bool, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]recipe.Summary), args.Bool(1), args.Error(2)
}

// SetSample stores a sample
func (m *MockSampleCache) SetSample(ctx context.Context, limit int, sample []recipe.Summary) error {
	args := m.Called(ctx, limit, sample)
	return args.Error(0)
}

// Invalidate drops cached samples
func (m *MockSampleCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockTextModel provides a mock implementation of TextModel
type MockTextModel struct {
	mock.Mock
	name string
}

// NewMockTextModel creates a named mock model
func NewMockTextModel(name string) *MockTextModel {
	return &MockTextModel{name: name}
}

// Name identifies the provider
func (m *MockTextModel) Name() string { return m.name }

// Generate returns the stubbed text
func (m *MockTextModel) Generate(ctx context.Context, req outbound.ModelRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// HealthCheck returns the stubbed error
func (m *MockTextModel) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close is a no-op
func (m *MockTextModel) Close() error { return nil }

// RecordingPublisher collects published events
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []shared.DomainEvent
}

// Publish records the events
func (p *RecordingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, events...)
	return nil
}

// Names lists the recorded event names in order
func (p *RecordingPublisher) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.Events))
	for _, e := range p.Events {
		names = append(names, e.EventName())
	}
	return names
}

// NopMetrics discards every observation
type NopMetrics struct{}

func (NopMetrics) ObserveModelCall(string, string, time.Duration) {}
func (NopMetrics) ObserveGeneration(string, time.Duration)        {}
func (NopMetrics) AddDraftsCreated(int)                           {}
func (NopMetrics) ObserveModeration(string, string)               {}
func (NopMetrics) AddCascadePromotions(int64)                     {}
