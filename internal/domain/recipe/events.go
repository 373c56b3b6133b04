package recipe

import (
	"time"

	"github.com/google/uuid"
)

// RecipeDraftedEvent is raised when a recipe enters the catalog as a draft
type RecipeDraftedEvent struct {
	RecipeID  uuid.UUID
	AuthorID  uuid.UUID
	Title     string
	Source    Source
	CreatedAt time.Time
}

func (e RecipeDraftedEvent) EventName() string {
	return "recipe.drafted"
}

func (e RecipeDraftedEvent) OccurredAt() time.Time {
	return e.CreatedAt
}

// RecipeSubmittedEvent is raised when a draft is queued for review
type RecipeSubmittedEvent struct {
	RecipeID    uuid.UUID
	SubmittedAt time.Time
}

func (e RecipeSubmittedEvent) EventName() string {
	return "recipe.submitted"
}

func (e RecipeSubmittedEvent) OccurredAt() time.Time {
	return e.SubmittedAt
}

// RecipeReviewedEvent is raised when a reviewer approves or rejects a recipe
type RecipeReviewedEvent struct {
	RecipeID   uuid.UUID
	ReviewerID uuid.UUID
	From       Status
	To         Status
	ReviewedAt time.Time
}

func (e RecipeReviewedEvent) EventName() string {
	return "recipe.reviewed"
}

func (e RecipeReviewedEvent) OccurredAt() time.Time {
	return e.ReviewedAt
}
