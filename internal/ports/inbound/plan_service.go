// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the use cases the CLI and any future transport layer drive
package inbound

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nutriplan/planner/internal/domain/plan"
	"github.com/nutriplan/planner/internal/domain/recipe"
)

// PlanService generates plans and reads them back
type PlanService interface {
	// Commands
	GeneratePlan(ctx context.Context, cmd GeneratePlanCommand) (*PlanDTO, error)

	// Queries
	GetPlan(ctx context.Context, planID uuid.UUID) (*PlanDTO, error)
	ListMyPlans(ctx context.Context, userID uuid.UUID) ([]*PlanDTO, error)
	ListAllPlans(ctx context.Context, params PaginationParams) (*PlanList, error)
}

// ModerationService reviews plans and recipes
type ModerationService interface {
	// Plan review
	ApprovePlan(ctx context.Context, cmd ReviewPlanCommand) (*PlanDTO, error)
	RejectPlan(ctx context.Context, cmd ReviewPlanCommand) (*PlanDTO, error)

	// Recipe review
	ListPendingRecipes(ctx context.Context, query PendingRecipesQuery) (*RecipeList, error)
	ReviewRecipe(ctx context.Context, cmd ReviewRecipeCommand) (*RecipeDTO, error)
	SubmitRecipe(ctx context.Context, recipeID uuid.UUID) (*RecipeDTO, error)
}

// Command objects

// GeneratePlanCommand asks for a new plan for one consumer
type GeneratePlanCommand struct {
	UserID      uuid.UUID      `validate:"required"`
	Preferences map[string]any `validate:"omitempty"`
}

// ReviewPlanCommand approves or rejects a plan
type ReviewPlanCommand struct {
	PlanID     uuid.UUID `validate:"required"`
	ReviewerID uuid.UUID `validate:"required"`
	Notes      string    `validate:"max=2000"`
}

// Recipe review actions
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// ReviewRecipeCommand moderates a single recipe
type ReviewRecipeCommand struct {
	RecipeID   uuid.UUID `validate:"required"`
	ReviewerID uuid.UUID `validate:"required"`
	Action     string    `validate:"required,oneof=approve reject"`
	Notes      string    `validate:"max=2000"`
}

// Query objects

// PaginationParams for paginated queries
type PaginationParams struct {
	Page  int
	Limit int
}

// PendingRecipesQuery lists recipes that still need a reviewer. Out of range
// pages and limits are clamped rather than refused.
type PendingRecipesQuery struct {
	Page  int
	Limit int
	Sort  string
}

// Response DTOs

// PlanDTO is a plan with its suggested recipes expanded. SuggestedRecipes
// lines up with SuggestedRecipeIDs; an entry is nil when its recipe is gone.
type PlanDTO struct {
	ID                 uuid.UUID         `json:"id"`
	UserID             uuid.UUID         `json:"userId"`
	PersonLabel        string            `json:"nombre_persona"`
	Meta               plan.Meta         `json:"meta"`
	Days               []plan.Day        `json:"dias"`
	SuggestedRecipeIDs []uuid.UUID       `json:"suggestedRecipeIds"`
	SuggestedRecipes   []*recipe.Summary `json:"suggestedRecipes"`
	Source             plan.Source       `json:"source"`
	Status             plan.Status       `json:"status"`
	ReviewerID         *uuid.UUID        `json:"nutriReviewer"`
	ReviewerNotes      string            `json:"reviewerNotes"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}

// PlanList is one page of plans
type PlanList struct {
	Plans []*PlanDTO `json:"data"`
	Total int64      `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
}

// RecipeDTO is the full view of a catalog recipe
type RecipeDTO struct {
	ID            uuid.UUID           `json:"id"`
	Title         string              `json:"title"`
	Summary       string              `json:"summary"`
	Description   string              `json:"description"`
	Kcal          float64             `json:"kcal"`
	PrepTimeMin   int                 `json:"prepTimeMin"`
	Servings      int                 `json:"servings"`
	Tags          []string            `json:"tags"`
	Diets         []string            `json:"diets"`
	Categories    []string            `json:"categories"`
	ImageURL      string              `json:"imageUrl"`
	ImagePrompt   string              `json:"imagePrompt"`
	Ingredients   []recipe.Ingredient `json:"ingredients"`
	Steps         []string            `json:"steps"`
	Local         bool                `json:"local"`
	Source        recipe.Source       `json:"source"`
	AuthorID      uuid.UUID           `json:"author"`
	Status        recipe.Status       `json:"status"`
	ReviewerID    *uuid.UUID          `json:"nutriReviewer"`
	ReviewerNotes string              `json:"reviewerNotes"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// RecipeList is one page of recipes
type RecipeList struct {
	Recipes []*RecipeDTO `json:"data"`
	Total   int64        `json:"total"`
	Page    int          `json:"page"`
	Limit   int          `json:"limit"`
}
