// Package gorm provides GORM model definitions and repositories for the
// catalog, plans and consumer profiles
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nutriplan/planner/internal/domain/plan"
	"github.com/nutriplan/planner/internal/domain/recipe"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserModel is a consumer with the nutritional profile plans are built from
type UserModel struct {
	ID                   uuid.UUID   `gorm:"type:char(36);primaryKey"`
	Email                string      `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name                 string      `gorm:"type:varchar(255);not null"`
	Role                 string      `gorm:"type:varchar(20);default:'user'"`
	ActivityLevel        string      `gorm:"type:varchar(50)"`
	Goal                 string      `gorm:"type:varchar(255)"`
	Diets                StringSlice `gorm:"type:json"`
	Allergies            StringSlice `gorm:"type:json"`
	Dislikes             StringSlice `gorm:"type:json"`
	FavouriteIngredients StringSlice `gorm:"type:json"`
	Locale               string      `gorm:"type:varchar(10)"`
	BirthDate            *time.Time
	WeightKg             *float64
	HeightCm             *float64
	TargetWeightKg       *float64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// RecipeModel is a catalog recipe
type RecipeModel struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey"`
	Title       string    `gorm:"type:varchar(255);not null;index"`
	Summary     string    `gorm:"type:text"`
	Description string    `gorm:"type:text"`
	Kcal        float64   `gorm:"default:0;index"`
	PrepTimeMin int       `gorm:"column:prep_time_min;default:0"`
	Servings    int       `gorm:"default:1"`

	Tags        StringSlice                            `gorm:"type:json"`
	Diets       StringSlice                            `gorm:"type:json"`
	Categories  StringSlice                            `gorm:"type:json"`
	Ingredients datatypes.JSONSlice[recipe.Ingredient] `gorm:"type:json"`
	Steps       StringSlice                            `gorm:"type:json"`
	ImageURL    string                                 `gorm:"column:image_url;type:text"`
	ImagePrompt string                                 `gorm:"type:text"`
	Local       bool                                   `gorm:"default:false"`

	Source        string     `gorm:"type:varchar(10);not null;default:'human'"`
	AuthorID      uuid.UUID  `gorm:"type:char(36);not null;index"`
	Status        string     `gorm:"type:varchar(20);not null;default:'draft';index"`
	ReviewerID    *uuid.UUID `gorm:"type:char(36)"`
	ReviewerNotes string     `gorm:"type:text"`
	CreatedAt     time.Time  `gorm:"index"`
	UpdatedAt     time.Time
}

// PlanModel is a stored meal plan. Days, meals and suggestions are owned rows.
type PlanModel struct {
	ID            uuid.UUID                     `gorm:"type:char(36);primaryKey"`
	UserID        uuid.UUID                     `gorm:"type:char(36);not null;index"`
	PersonLabel   string                        `gorm:"type:varchar(255);not null"`
	Meta          datatypes.JSONType[plan.Meta] `gorm:"type:json"`
	Source        string                        `gorm:"type:varchar(10);not null;default:'ai'"`
	Status        string                        `gorm:"type:varchar(20);not null;default:'pending_review';index"`
	ReviewerID    *uuid.UUID                    `gorm:"type:char(36)"`
	ReviewerNotes string                        `gorm:"type:text"`
	CreatedAt     time.Time                     `gorm:"index"`
	UpdatedAt     time.Time

	// Relationships
	Days        []PlanDayModel        `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE"`
	Suggestions []PlanSuggestionModel `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE"`
}

// PlanDayModel is one day of a plan
type PlanDayModel struct {
	ID       uuid.UUID `gorm:"type:char(36);primaryKey"`
	PlanID   uuid.UUID `gorm:"type:char(36);not null;index"`
	Position int       `gorm:"not null"`
	Number   int       `gorm:"not null;default:0"`

	Meals []PlanMealModel `gorm:"foreignKey:DayID;constraint:OnDelete:CASCADE"`
}

// PlanMealModel is one meal slot. RecipeID must point at an existing recipe.
type PlanMealModel struct {
	ID          uuid.UUID      `gorm:"type:char(36);primaryKey"`
	DayID       uuid.UUID      `gorm:"type:char(36);not null;index"`
	Position    int            `gorm:"not null"`
	Type        string         `gorm:"type:varchar(50);not null"`
	Calories    float64        `gorm:"default:0"`
	RecipeID    *uuid.UUID     `gorm:"type:char(36);index"`
	RecipeTitle string         `gorm:"type:varchar(255)"`
	Inline      datatypes.JSON `gorm:"type:json"`

	Recipe *RecipeModel `gorm:"foreignKey:RecipeID;constraint:OnDelete:SET NULL"`
}

// PlanSuggestionModel links a plan to a recipe it suggests, in first-seen order
type PlanSuggestionModel struct {
	PlanID   uuid.UUID `gorm:"type:char(36);primaryKey"`
	RecipeID uuid.UUID `gorm:"type:char(36);primaryKey"`
	Position int       `gorm:"not null"`

	Recipe *RecipeModel `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

// StringSlice custom type for handling string slices in JSON
type StringSlice []string

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}
}

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	return string(b), err
}

// BeforeCreate hook for UserModel
func (u *UserModel) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for RecipeModel
func (r *RecipeModel) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for PlanModel
func (p *PlanModel) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for PlanDayModel
func (d *PlanDayModel) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for PlanMealModel
func (m *PlanMealModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// TableName methods for custom table names
func (UserModel) TableName() string {
	return "users"
}

func (RecipeModel) TableName() string {
	return "recipes"
}

func (PlanModel) TableName() string {
	return "plans"
}

func (PlanDayModel) TableName() string {
	return "plan_days"
}

func (PlanMealModel) TableName() string {
	return "plan_meals"
}

func (PlanSuggestionModel) TableName() string {
	return "plan_suggestions"
}

// AllModels lists every model in dependency order for auto-migration
func AllModels() []interface{} {
	return []interface{}{
		&UserModel{},
		&RecipeModel{},
		&PlanModel{},
		&PlanDayModel{},
		&PlanMealModel{},
		&PlanSuggestionModel{},
	}
}
