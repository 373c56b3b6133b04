package plan

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Status is the review state of a plan
type Status string

const (
	StatusPendingReview Status = "pending_review"
	StatusApproved      Status = "approved"
	StatusRejected      Status = "rejected"
	StatusActive        Status = "active"
)

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusPendingReview, StatusApproved, StatusRejected, StatusActive:
		return true
	}
	return false
}

// Source tells who authored a plan
type Source string

const (
	SourceMachine Source = "ai"
	SourceHuman   Source = "human"
)

// DefaultMealType labels meals the model left untyped
const DefaultMealType = "Comida"

// Meta is the metadata block the model returns with a plan
type Meta struct {
	Goal          string   `json:"objetivo"`
	Diet          string   `json:"dieta"`
	DailyCalories float64  `json:"calorias_diarias_recomendadas"`
	Allergies     []string `json:"alergias"`
}

// Day is one day of a plan
type Day struct {
	Number int    `json:"dia"`
	Meals  []Meal `json:"comidas"`
}

// Meal is one resolved slot of a day. RecipeID is nil when the dish could
// not be tied to the catalog. Inline keeps the dish object the model wrote,
// if it wrote one instead of a catalog title.
type Meal struct {
	Type        string          `json:"nombre"`
	Calories    float64         `json:"calorias_aprox"`
	RecipeID    *uuid.UUID      `json:"recetaId"`
	RecipeTitle string          `json:"recetaTitle"`
	Inline      json.RawMessage `json:"receta"`
}
