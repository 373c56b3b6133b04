// Package profile defines the consumer snapshot the planner generates for.
package profile

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

// DefaultLocale applies when the consumer never chose one
const DefaultLocale = "es-MX"

// ErrProfileNotFound is returned when no consumer matches an ID
var ErrProfileNotFound = errors.New("profile not found")

// Snapshot is the read-only nutritional profile of a consumer
type Snapshot struct {
	UserID               uuid.UUID
	Name                 string
	BirthDate            *time.Time
	WeightKg             *float64
	HeightCm             *float64
	ActivityLevel        string
	Diets                []string
	Allergies            []string
	Dislikes             []string
	FavouriteIngredients []string
	Goal                 string
	TargetWeightKg       *float64
	Locale               string
}

// Persona is the profile as it is shown to the model. Missing values stay nil
// so they render as JSON null.
type Persona struct {
	Name                 string     `json:"name"`
	BirthDate            *time.Time `json:"birthDate"`
	Age                  *int       `json:"age"`
	WeightKg             *float64   `json:"weightKg"`
	HeightCm             *float64   `json:"heightCm"`
	ActivityLevel        *string    `json:"activityLevel"`
	Diets                []string   `json:"diets"`
	Allergies            []string   `json:"allergies"`
	Dislikes             []string   `json:"dislikes"`
	FavouriteIngredients []string   `json:"favouriteIngredients"`
	Goal                 *string    `json:"goal"`
	TargetWeightKg       *float64   `json:"targetWeightKg"`
	Locale               string     `json:"locale"`
}

// Persona projects the snapshot for prompting, deriving age at the given instant.
func (s Snapshot) Persona(now time.Time) Persona {
	p := Persona{
		Name:                 s.Name,
		BirthDate:            s.BirthDate,
		Age:                  AgeAt(s.BirthDate, now),
		WeightKg:             s.WeightKg,
		HeightCm:             s.HeightCm,
		ActivityLevel:        optional(s.ActivityLevel),
		Diets:                nonNil(s.Diets),
		Allergies:            nonNil(s.Allergies),
		Dislikes:             nonNil(s.Dislikes),
		FavouriteIngredients: nonNil(s.FavouriteIngredients),
		Goal:                 optional(s.Goal),
		TargetWeightKg:       s.TargetWeightKg,
		Locale:               s.Locale,
	}
	if p.Locale == "" {
		p.Locale = DefaultLocale
	}
	return p
}

// AgeAt returns whole years between birth and now using 365.25-day years.
func AgeAt(birth *time.Time, now time.Time) *int {
	if birth == nil {
		return nil
	}
	years := int(math.Floor(now.Sub(*birth).Hours() / (365.25 * 24)))
	return &years
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
