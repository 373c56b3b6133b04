// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"encoding/json"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/nutriplan/planner/internal/domain/plan"
	"github.com/nutriplan/planner/internal/domain/profile"
	"github.com/nutriplan/planner/internal/domain/recipe"
)

// RecipeBuilder provides a fluent interface for building test recipes in any status
type RecipeBuilder struct {
	id        uuid.UUID
	fields    recipe.Fields
	source    recipe.Source
	authorID  uuid.UUID
	status    recipe.Status
	createdAt time.Time
}

// NewRecipeBuilder creates a new recipe builder with fake content
func NewRecipeBuilder() *RecipeBuilder {
	faker := gofakeit.New(time.Now().UnixNano())
	grams := float64(faker.IntRange(50, 400))

	return &RecipeBuilder{
		id: uuid.New(),
		fields: recipe.Fields{
			Title:       faker.Dessert() + " " + faker.Word(),
			Summary:     faker.Sentence(8),
			Kcal:        float64(faker.IntRange(150, 900)),
			PrepTimeMin: faker.IntRange(5, 60),
			Servings:    faker.IntRange(1, 4),
			Tags:        []string{faker.Adjective()},
			Ingredients: []recipe.Ingredient{{Name: faker.Fruit(), Quantity: &grams, Unit: "g"}},
			Steps:       []string{faker.Sentence(6), faker.Sentence(6)},
		},
		source:    recipe.SourceHuman,
		authorID:  uuid.New(),
		status:    recipe.StatusApproved,
		createdAt: time.Now().UTC(),
	}
}

// WithID sets the recipe ID
func (rb *RecipeBuilder) WithID(id uuid.UUID) *RecipeBuilder {
	rb.id = id
	return rb
}

// WithTitle sets the recipe title
func (rb *RecipeBuilder) WithTitle(title string) *RecipeBuilder {
	rb.fields.Title = title
	return rb
}

// WithKcal sets the calorie value
func (rb *RecipeBuilder) WithKcal(kcal float64) *RecipeBuilder {
	rb.fields.Kcal = kcal
	return rb
}

// WithStatus sets the review status
func (rb *RecipeBuilder) WithStatus(status recipe.Status) *RecipeBuilder {
	rb.status = status
	return rb
}

// WithAuthor sets the recipe author
func (rb *RecipeBuilder) WithAuthor(authorID uuid.UUID) *RecipeBuilder {
	rb.authorID = authorID
	return rb
}

// WithCreatedAt sets the creation time
func (rb *RecipeBuilder) WithCreatedAt(t time.Time) *RecipeBuilder {
	rb.createdAt = t
	return rb
}

// AsMachineAuthored marks the recipe as produced by plan generation
func (rb *RecipeBuilder) AsMachineAuthored() *RecipeBuilder {
	rb.source = recipe.SourceMachine
	return rb
}

// Build constructs the recipe
func (rb *RecipeBuilder) Build() *recipe.Recipe {
	return recipe.Restore(recipe.Snapshot{
		ID:        rb.id,
		Fields:    rb.fields,
		Source:    rb.source,
		AuthorID:  rb.authorID,
		Status:    rb.status,
		CreatedAt: rb.createdAt,
		UpdatedAt: rb.createdAt,
	})
}

// NewProfile creates a consumer profile with fake values
func NewProfile(userID uuid.UUID) *profile.Snapshot {
	faker := gofakeit.New(time.Now().UnixNano())
	birth := faker.DateRange(time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2004, 1, 1, 0, 0, 0, 0, time.UTC))
	weight := float64(faker.IntRange(50, 110))
	height := float64(faker.IntRange(150, 195))

	return &profile.Snapshot{
		UserID:               userID,
		Name:                 faker.FirstName(),
		BirthDate:            &birth,
		WeightKg:             &weight,
		HeightCm:             &height,
		ActivityLevel:        "moderate",
		Diets:                []string{"mediterranea"},
		Allergies:            []string{"cacahuate"},
		Dislikes:             []string{"cilantro"},
		FavouriteIngredients: []string{"aguacate", "frijol"},
		Goal:                 "mantener peso",
		Locale:               profile.DefaultLocale,
	}
}

// NewPendingPlan creates a plan awaiting review whose meals reference recipeIDs in order
func NewPendingPlan(userID uuid.UUID, recipeIDs ...uuid.UUID) *plan.Plan {
	meals := make([]plan.Meal, 0, len(recipeIDs))
	for i := range recipeIDs {
		id := recipeIDs[i]
		meals = append(meals, plan.Meal{Type: "Comida", Calories: 500, RecipeID: &id, RecipeTitle: "Receta"})
	}

	p, err := plan.New(userID, "Ana", plan.Meta{}, []plan.Day{{Number: 1, Meals: meals}})
	if err != nil {
		panic(err)
	}
	p.PullEvents()
	return p
}

// ModelMeal describes one meal of a fake model answer
type ModelMeal struct {
	Type     string
	Calories float64
	Dish     any
}

// ModelPlanJSON renders a model answer with one day per entry of days
func ModelPlanJSON(person string, days ...[]ModelMeal) string {
	type meal struct {
		Tipo          string  `json:"tipo"`
		CaloriasAprox float64 `json:"calorias_aprox"`
		Receta        any     `json:"receta"`
	}
	type day struct {
		Dia     int    `json:"dia"`
		Comidas []meal `json:"comidas"`
	}

	out := struct {
		NombrePersona string         `json:"nombre_persona"`
		Meta          map[string]any `json:"meta"`
		Dias          []day          `json:"dias"`
	}{
		NombrePersona: person,
		Meta:          map[string]any{"objetivo": "mantener", "dieta": "omnivora", "calorias_diarias_recomendadas": 2000, "alergias": []string{}},
		Dias:          []day{},
	}
	for i, meals := range days {
		d := day{Dia: i + 1, Comidas: []meal{}}
		for _, m := range meals {
			d.Comidas = append(d.Comidas, meal{Tipo: m.Type, CaloriasAprox: m.Calories, Receta: m.Dish})
		}
		out.Dias = append(out.Dias, d)
	}

	b, err := json.Marshal(out)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// InlineDish is an inline recipe object as the model writes it
func InlineDish(title string, ingredients ...string) map[string]any {
	items := make([]map[string]any, 0, len(ingredients))
	for _, name := range ingredients {
		items = append(items, map[string]any{"name": name, "quantity": 100, "unit": "g"})
	}
	return map[string]any{
		"title":       title,
		"summary":     "Generada para la prueba",
		"kcal":        350,
		"prepTimeMin": 10,
		"servings":    1,
		"ingredients": items,
		"steps":       []string{"Mezclar", "Servir"},
	}
}
