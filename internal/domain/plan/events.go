package plan

import (
	"time"

	"github.com/google/uuid"
)

// PlanGeneratedEvent is raised when a machine-authored plan is assembled
type PlanGeneratedEvent struct {
	PlanID      uuid.UUID
	UserID      uuid.UUID
	Days        int
	Suggestions int
	CreatedAt   time.Time
}

func (e PlanGeneratedEvent) EventName() string {
	return "plan.generated"
}

func (e PlanGeneratedEvent) OccurredAt() time.Time {
	return e.CreatedAt
}

// PlanApprovedEvent is raised when a reviewer approves a plan. RecipeIDs are
// the recipes the approval cascades to.
type PlanApprovedEvent struct {
	PlanID     uuid.UUID
	ReviewerID uuid.UUID
	Notes      string
	RecipeIDs  []uuid.UUID
	ApprovedAt time.Time
}

func (e PlanApprovedEvent) EventName() string {
	return "plan.approved"
}

func (e PlanApprovedEvent) OccurredAt() time.Time {
	return e.ApprovedAt
}

// PlanRejectedEvent is raised when a reviewer rejects a plan
type PlanRejectedEvent struct {
	PlanID     uuid.UUID
	ReviewerID uuid.UUID
	Notes      string
	RejectedAt time.Time
}

func (e PlanRejectedEvent) EventName() string {
	return "plan.rejected"
}

func (e PlanRejectedEvent) OccurredAt() time.Time {
	return e.RejectedAt
}
