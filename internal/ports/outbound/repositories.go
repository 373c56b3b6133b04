// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the pipeline uses to reach stores and models
package outbound

import (
	"context"

	"github.com/google/uuid"
	"github.com/nutriplan/planner/internal/domain/plan"
	"github.com/nutriplan/planner/internal/domain/profile"
	"github.com/nutriplan/planner/internal/domain/recipe"
	"github.com/nutriplan/planner/internal/domain/shared"
)

// ProfileSupplier provides the read-only nutritional profile of a consumer
type ProfileSupplier interface {
	// GetProfile returns profile.ErrProfileNotFound for unknown users.
	GetProfile(ctx context.Context, userID uuid.UUID) (*profile.Snapshot, error)
}

// RecipeCatalog is the shared recipe store
type RecipeCatalog interface {
	// Resolution
	FindByTitles(ctx context.Context, titles []string) ([]*recipe.Recipe, error)
	FindApprovedSample(ctx context.Context, limit int) ([]*recipe.Recipe, error)
	CreateDraft(ctx context.Context, r *recipe.Recipe) error

	// Moderation
	UpdateStatusCascade(ctx context.Context, ids []uuid.UUID, status recipe.Status, reviewerID uuid.UUID, notes string) (int64, error)
	Update(ctx context.Context, r *recipe.Recipe) error

	// Lookups return a nil recipe and no error when nothing matches
	FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*recipe.Recipe, error)
	ListByStatus(ctx context.Context, filter RecipeFilter) ([]*recipe.Recipe, int64, error)
}

// RecipeOrder selects the ordering of a recipe listing
type RecipeOrder string

const (
	OrderNewest   RecipeOrder = "newest"
	OrderKcalAsc  RecipeOrder = "kcal_asc"
	OrderKcalDesc RecipeOrder = "kcal_desc"
)

// RecipeFilter narrows a recipe listing. Statuses wins over ExcludeStatus
// when both are set.
type RecipeFilter struct {
	Statuses      []recipe.Status
	ExcludeStatus recipe.Status
	OrderBy       RecipeOrder
	Offset        int
	Limit         int
}

// PlanRepository persists plans
type PlanRepository interface {
	// Create writes the plan with all its days and meals as one unit.
	Create(ctx context.Context, p *plan.Plan) error
	FindByID(ctx context.Context, id uuid.UUID) (*plan.Plan, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*plan.Plan, error)
	List(ctx context.Context, offset, limit int) ([]*plan.Plan, int64, error)

	// SetReviewStatus moves a plan from one status to another, failing with
	// plan.ErrInvalidStatusTransition if it is no longer in the expected one.
	SetReviewStatus(ctx context.Context, id uuid.UUID, from, to plan.Status, reviewerID uuid.UUID, notes string) error

	// ApproveWithCascade approves a pending plan and promotes the draft or
	// pending recipes among recipeIDs in the same transaction. It returns
	// the number of recipes promoted.
	ApproveWithCascade(ctx context.Context, id uuid.UUID, reviewerID uuid.UUID, notes string, recipeIDs []uuid.UUID) (int64, error)
}

// SampleCache caches the approved style sample used to bias prompts
type SampleCache interface {
	GetSample(ctx context.Context, limit int) ([]recipe.Summary, bool, error)
	SetSample(ctx context.Context, limit int, sample []recipe.Summary) error
	Invalidate(ctx context.Context) error
}

// EventPublisher hands drained domain events to whoever listens
type EventPublisher interface {
	Publish(ctx context.Context, events ...shared.DomainEvent) error
}
