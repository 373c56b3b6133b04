package recipe

import (
	"github.com/google/uuid"
)

// Status is the moderation state of a recipe
type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// IsReviewable reports whether a recipe in this status may still be approved or rejected.
func (s Status) IsReviewable() bool {
	return s == StatusDraft || s == StatusPending
}

// ReviewableStatuses lists the statuses promoted by a plan approval cascade.
func ReviewableStatuses() []Status {
	return []Status{StatusDraft, StatusPending}
}

// Source tells who authored a recipe
type Source string

const (
	SourceMachine Source = "ai"
	SourceHuman   Source = "human"
)

// Ingredient is one normalized ingredient line. Quantity is nil when the
// author gave no usable number.
type Ingredient struct {
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity"`
	Unit     string   `json:"unit"`
}

// Fields carries the content of a recipe independent of its lifecycle.
type Fields struct {
	Title       string
	Summary     string
	Description string
	Kcal        float64
	PrepTimeMin int
	Servings    int
	Tags        []string
	Diets       []string
	Categories  []string
	ImageURL    string
	ImagePrompt string
	Ingredients []Ingredient
	Steps       []string
	Local       bool
}

// Summary is the compact projection used for style samples and plan read-back.
type Summary struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Kcal     float64   `json:"kcal"`
	ImageURL string    `json:"imageUrl"`
	Status   Status    `json:"status"`
}
