// Package plan contains the meal plan aggregate, the parsed model payload it
// is assembled from, and the plan review state machine.
package plan

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nutriplan/planner/internal/domain/shared"
)

// Plan is a week of meals generated for one consumer. It owns its days and
// meals and only references recipes, which live in the catalog.
type Plan struct {
	shared.EventRecorder

	id          uuid.UUID
	userID      uuid.UUID
	personLabel string
	meta        Meta
	days        []Day
	suggested   []uuid.UUID
	source      Source

	status        Status
	reviewerID    *uuid.UUID
	reviewerNotes string

	createdAt time.Time
	updatedAt time.Time
}

// New creates a machine-authored plan awaiting review. The suggested-recipe
// set is derived from the meals in first-seen order.
func New(userID uuid.UUID, personLabel string, meta Meta, days []Day) (*Plan, error) {
	if strings.TrimSpace(personLabel) == "" {
		return nil, ErrPersonLabelRequired
	}
	if meta.Allergies == nil {
		meta.Allergies = []string{}
	}
	if days == nil {
		days = []Day{}
	}

	now := time.Now().UTC()
	p := &Plan{
		id:          uuid.New(),
		userID:      userID,
		personLabel: personLabel,
		meta:        meta,
		days:        days,
		suggested:   DistinctRecipeIDs(days),
		source:      SourceMachine,
		status:      StatusPendingReview,
		createdAt:   now,
		updatedAt:   now,
	}

	p.Record(PlanGeneratedEvent{
		PlanID:      p.id,
		UserID:      userID,
		Days:        len(days),
		Suggestions: len(p.suggested),
		CreatedAt:   now,
	})
	return p, nil
}

// DistinctRecipeIDs lists every recipe referenced by the meals once, in the
// order first referenced.
func DistinctRecipeIDs(days []Day) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	ids := []uuid.UUID{}
	for _, day := range days {
		for _, meal := range day.Meals {
			if meal.RecipeID == nil {
				continue
			}
			if _, ok := seen[*meal.RecipeID]; ok {
				continue
			}
			seen[*meal.RecipeID] = struct{}{}
			ids = append(ids, *meal.RecipeID)
		}
	}
	return ids
}

// Snapshot is the persisted state of a plan
type Snapshot struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	PersonLabel        string
	Meta               Meta
	Days               []Day
	SuggestedRecipeIDs []uuid.UUID
	Source             Source
	Status             Status
	ReviewerID         *uuid.UUID
	ReviewerNotes      string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Restore rebuilds a plan from storage without raising events
func Restore(s Snapshot) *Plan {
	return &Plan{
		id:            s.ID,
		userID:        s.UserID,
		personLabel:   s.PersonLabel,
		meta:          s.Meta,
		days:          s.Days,
		suggested:     s.SuggestedRecipeIDs,
		source:        s.Source,
		status:        s.Status,
		reviewerID:    s.ReviewerID,
		reviewerNotes: s.ReviewerNotes,
		createdAt:     s.CreatedAt,
		updatedAt:     s.UpdatedAt,
	}
}

// Snapshot exports the plan state for storage
func (p *Plan) Snapshot() Snapshot {
	return Snapshot{
		ID:                 p.id,
		UserID:             p.userID,
		PersonLabel:        p.personLabel,
		Meta:               p.meta,
		Days:               p.days,
		SuggestedRecipeIDs: p.suggested,
		Source:             p.source,
		Status:             p.status,
		ReviewerID:         p.reviewerID,
		ReviewerNotes:      p.reviewerNotes,
		CreatedAt:          p.createdAt,
		UpdatedAt:          p.updatedAt,
	}
}

func (p *Plan) ID() uuid.UUID { return p.id }
func (p *Plan) UserID() uuid.UUID { return p.userID }
func (p *Plan) PersonLabel() string { return p.personLabel }
func (p *Plan) Meta() Meta { return p.meta }
func (p *Plan) Days() []Day { return p.days }
func (p *Plan) SuggestedRecipeIDs() []uuid.UUID { return p.suggested }
func (p *Plan) Source() Source { return p.source }
func (p *Plan) Status() Status { return p.status }
func (p *Plan) ReviewerID() *uuid.UUID { return p.reviewerID }
func (p *Plan) ReviewerNotes() string { return p.reviewerNotes }
func (p *Plan) CreatedAt() time.Time { return p.createdAt }
func (p *Plan) UpdatedAt() time.Time { return p.updatedAt }

// Approve moves a pending plan to approved and returns the recipes the
// approval must cascade to.
func (p *Plan) Approve(reviewerID uuid.UUID, notes string) ([]uuid.UUID, error) {
	if reviewerID == uuid.Nil {
		return nil, ErrReviewerRequired
	}
	switch p.status {
	case StatusPendingReview:
	case StatusApproved:
		return nil, ErrPlanAlreadyApproved
	default:
		return nil, ErrInvalidStatusTransition
	}

	p.setReview(StatusApproved, reviewerID, notes)
	cascade := append([]uuid.UUID(nil), p.suggested...)

	p.Record(PlanApprovedEvent{
		PlanID:     p.id,
		ReviewerID: reviewerID,
		Notes:      notes,
		RecipeIDs:  cascade,
		ApprovedAt: p.updatedAt,
	})
	return cascade, nil
}

// Reject moves a pending plan to rejected. Referenced recipes are left as they are.
func (p *Plan) Reject(reviewerID uuid.UUID, notes string) error {
	if reviewerID == uuid.Nil {
		return ErrReviewerRequired
	}
	switch p.status {
	case StatusPendingReview:
	case StatusRejected:
		return ErrPlanAlreadyRejected
	default:
		return ErrInvalidStatusTransition
	}

	p.setReview(StatusRejected, reviewerID, notes)
	p.Record(PlanRejectedEvent{
		PlanID:     p.id,
		ReviewerID: reviewerID,
		Notes:      notes,
		RejectedAt: p.updatedAt,
	})
	return nil
}

// Activate marks an approved plan as the consumer's active plan. Nothing in
// the generation pipeline calls this.
func (p *Plan) Activate() error {
	if p.status != StatusApproved {
		return ErrInvalidStatusTransition
	}
	p.status = StatusActive
	p.updatedAt = time.Now().UTC()
	return nil
}

func (p *Plan) setReview(status Status, reviewerID uuid.UUID, notes string) {
	p.status = status
	p.reviewerID = &reviewerID
	p.reviewerNotes = notes
	p.updatedAt = time.Now().UTC()
}
