// Package recipe contains the catalog recipe aggregate and its review state machine.
package recipe

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nutriplan/planner/internal/domain/shared"
)

// Recipe is a catalog entry. Machine-authored recipes enter as drafts and
// only become visible to style samples once a reviewer approves them.
type Recipe struct {
	shared.EventRecorder

	id       uuid.UUID
	fields   Fields
	source   Source
	authorID uuid.UUID

	status        Status
	reviewerID    *uuid.UUID
	reviewerNotes string

	createdAt time.Time
	updatedAt time.Time
}

// NewDraft creates a recipe in draft status
func NewDraft(fields Fields, source Source, authorID uuid.UUID) (*Recipe, error) {
	if err := validateFields(&fields); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	r := &Recipe{
		id:        uuid.New(),
		fields:    fields,
		source:    source,
		authorID:  authorID,
		status:    StatusDraft,
		createdAt: now,
		updatedAt: now,
	}

	r.Record(RecipeDraftedEvent{
		RecipeID:  r.id,
		AuthorID:  authorID,
		Title:     fields.Title,
		Source:    source,
		CreatedAt: now,
	})

	return r, nil
}

// Snapshot is the persisted state of a recipe
type Snapshot struct {
	ID            uuid.UUID
	Fields        Fields
	Source        Source
	AuthorID      uuid.UUID
	Status        Status
	ReviewerID    *uuid.UUID
	ReviewerNotes string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Restore rebuilds a recipe from storage without raising events
func Restore(s Snapshot) *Recipe {
	return &Recipe{
		id:            s.ID,
		fields:        s.Fields,
		source:        s.Source,
		authorID:      s.AuthorID,
		status:        s.Status,
		reviewerID:    s.ReviewerID,
		reviewerNotes: s.ReviewerNotes,
		createdAt:     s.CreatedAt,
		updatedAt:     s.UpdatedAt,
	}
}

// Snapshot exports the recipe state for storage
func (r *Recipe) Snapshot() Snapshot {
	return Snapshot{
		ID:            r.id,
		Fields:        r.fields,
		Source:        r.source,
		AuthorID:      r.authorID,
		Status:        r.status,
		ReviewerID:    r.reviewerID,
		ReviewerNotes: r.reviewerNotes,
		CreatedAt:     r.createdAt,
		UpdatedAt:     r.updatedAt,
	}
}

func (r *Recipe) ID() uuid.UUID { return r.id }
func (r *Recipe) Title() string { return r.fields.Title }
func (r *Recipe) Fields() Fields { return r.fields }
func (r *Recipe) Source() Source { return r.source }
func (r *Recipe) AuthorID() uuid.UUID { return r.authorID }
func (r *Recipe) Status() Status { return r.status }
func (r *Recipe) ReviewerID() *uuid.UUID { return r.reviewerID }
func (r *Recipe) ReviewerNotes() string { return r.reviewerNotes }
func (r *Recipe) CreatedAt() time.Time { return r.createdAt }
func (r *Recipe) UpdatedAt() time.Time { return r.updatedAt }

// Summary returns the compact projection of the recipe
func (r *Recipe) Summary() Summary {
	return Summary{
		ID:       r.id,
		Title:    r.fields.Title,
		Kcal:     r.fields.Kcal,
		ImageURL: r.fields.ImageURL,
		Status:   r.status,
	}
}

// Submit moves a draft into the review queue
func (r *Recipe) Submit() error {
	if r.status != StatusDraft {
		return ErrInvalidStatusTransition
	}

	r.status = StatusPending
	r.updatedAt = time.Now().UTC()
	r.Record(RecipeSubmittedEvent{RecipeID: r.id, SubmittedAt: r.updatedAt})
	return nil
}

// Approve marks a draft or pending recipe as approved
func (r *Recipe) Approve(reviewerID uuid.UUID, notes string) error {
	return r.review(StatusApproved, reviewerID, notes)
}

// Reject marks a draft or pending recipe as rejected
func (r *Recipe) Reject(reviewerID uuid.UUID, notes string) error {
	return r.review(StatusRejected, reviewerID, notes)
}

func (r *Recipe) review(to Status, reviewerID uuid.UUID, notes string) error {
	if reviewerID == uuid.Nil {
		return ErrReviewerRequired
	}
	if !r.status.IsReviewable() {
		return ErrInvalidStatusTransition
	}

	from := r.status
	r.status = to
	r.reviewerID = &reviewerID
	r.reviewerNotes = notes
	r.updatedAt = time.Now().UTC()

	r.Record(RecipeReviewedEvent{
		RecipeID:   r.id,
		ReviewerID: reviewerID,
		From:       from,
		To:         to,
		ReviewedAt: r.updatedAt,
	})
	return nil
}

func validateFields(f *Fields) error {
	if strings.TrimSpace(f.Title) == "" {
		return ErrTitleRequired
	}
	if len(f.Title) > 255 {
		return ErrTitleTooLong
	}
	if f.Servings < 0 {
		return ErrInvalidServings
	}
	if f.Servings == 0 {
		f.Servings = 1
	}
	return nil
}
