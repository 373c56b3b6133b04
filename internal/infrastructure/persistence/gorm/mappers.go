// Package gorm provides mapping between domain entities and GORM models
package gorm

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/nutriplan/planner/internal/domain/plan"
	"github.com/nutriplan/planner/internal/domain/profile"
	"github.com/nutriplan/planner/internal/domain/recipe"
	"gorm.io/datatypes"
)

// RecipeToModel converts a domain recipe to a GORM model
func RecipeToModel(r *recipe.Recipe) *RecipeModel {
	s := r.Snapshot()
	f := s.Fields

	ingredients := f.Ingredients
	if ingredients == nil {
		ingredients = []recipe.Ingredient{}
	}

	return &RecipeModel{
		ID:            s.ID,
		Title:         f.Title,
		Summary:       f.Summary,
		Description:   f.Description,
		Kcal:          f.Kcal,
		PrepTimeMin:   f.PrepTimeMin,
		Servings:      f.Servings,
		Tags:          StringSlice(f.Tags),
		Diets:         StringSlice(f.Diets),
		Categories:    StringSlice(f.Categories),
		Ingredients:   datatypes.NewJSONSlice(ingredients),
		Steps:         StringSlice(f.Steps),
		ImageURL:      f.ImageURL,
		ImagePrompt:   f.ImagePrompt,
		Local:         f.Local,
		Source:        string(s.Source),
		AuthorID:      s.AuthorID,
		Status:        string(s.Status),
		ReviewerID:    s.ReviewerID,
		ReviewerNotes: s.ReviewerNotes,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// ModelToRecipe converts a GORM model to a domain recipe
func ModelToRecipe(model *RecipeModel) *recipe.Recipe {
	ingredients := []recipe.Ingredient(model.Ingredients)
	if ingredients == nil {
		ingredients = []recipe.Ingredient{}
	}

	return recipe.Restore(recipe.Snapshot{
		ID: model.ID,
		Fields: recipe.Fields{
			Title:       model.Title,
			Summary:     model.Summary,
			Description: model.Description,
			Kcal:        model.Kcal,
			PrepTimeMin: model.PrepTimeMin,
			Servings:    model.Servings,
			Tags:        nonNil(model.Tags),
			Diets:       nonNil(model.Diets),
			Categories:  nonNil(model.Categories),
			ImageURL:    model.ImageURL,
			ImagePrompt: model.ImagePrompt,
			Ingredients: ingredients,
			Steps:       nonNil(model.Steps),
			Local:       model.Local,
		},
		Source:        recipe.Source(model.Source),
		AuthorID:      model.AuthorID,
		Status:        recipe.Status(model.Status),
		ReviewerID:    model.ReviewerID,
		ReviewerNotes: model.ReviewerNotes,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	})
}

// ModelsToRecipes converts a result set, keeping its order
func ModelsToRecipes(models []RecipeModel) []*recipe.Recipe {
	recipes := make([]*recipe.Recipe, 0, len(models))
	for i := range models {
		recipes = append(recipes, ModelToRecipe(&models[i]))
	}
	return recipes
}

// PlanToModel converts a domain plan to a GORM model with its days, meals
// and suggestions. Row IDs are assigned here so the whole tree can be
// written in one statement batch.
func PlanToModel(p *plan.Plan) *PlanModel {
	s := p.Snapshot()

	model := &PlanModel{
		ID:            s.ID,
		UserID:        s.UserID,
		PersonLabel:   s.PersonLabel,
		Meta:          datatypes.NewJSONType(s.Meta),
		Source:        string(s.Source),
		Status:        string(s.Status),
		ReviewerID:    s.ReviewerID,
		ReviewerNotes: s.ReviewerNotes,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
		Days:          make([]PlanDayModel, 0, len(s.Days)),
		Suggestions:   make([]PlanSuggestionModel, 0, len(s.SuggestedRecipeIDs)),
	}

	for i, day := range s.Days {
		dayModel := PlanDayModel{
			ID:       uuid.New(),
			PlanID:   s.ID,
			Position: i,
			Number:   day.Number,
			Meals:    make([]PlanMealModel, 0, len(day.Meals)),
		}
		for j, meal := range day.Meals {
			var inline datatypes.JSON
			if len(meal.Inline) > 0 {
				inline = datatypes.JSON(meal.Inline)
			}
			dayModel.Meals = append(dayModel.Meals, PlanMealModel{
				ID:          uuid.New(),
				DayID:       dayModel.ID,
				Position:    j,
				Type:        meal.Type,
				Calories:    meal.Calories,
				RecipeID:    meal.RecipeID,
				RecipeTitle: meal.RecipeTitle,
				Inline:      inline,
			})
		}
		model.Days = append(model.Days, dayModel)
	}

	for i, id := range s.SuggestedRecipeIDs {
		model.Suggestions = append(model.Suggestions, PlanSuggestionModel{
			PlanID:   s.ID,
			RecipeID: id,
			Position: i,
		})
	}

	return model
}

// ModelToPlan converts a GORM model to a domain plan. Days, meals and
// suggestions are expected to be preloaded in position order.
func ModelToPlan(model *PlanModel) *plan.Plan {
	meta := model.Meta.Data()
	if meta.Allergies == nil {
		meta.Allergies = []string{}
	}

	days := make([]plan.Day, 0, len(model.Days))
	for _, d := range model.Days {
		meals := make([]plan.Meal, 0, len(d.Meals))
		for _, m := range d.Meals {
			var inline json.RawMessage
			if len(m.Inline) > 0 {
				inline = json.RawMessage(m.Inline)
			}
			meals = append(meals, plan.Meal{
				Type:        m.Type,
				Calories:    m.Calories,
				RecipeID:    m.RecipeID,
				RecipeTitle: m.RecipeTitle,
				Inline:      inline,
			})
		}
		days = append(days, plan.Day{Number: d.Number, Meals: meals})
	}

	suggested := make([]uuid.UUID, 0, len(model.Suggestions))
	for _, sg := range model.Suggestions {
		suggested = append(suggested, sg.RecipeID)
	}

	return plan.Restore(plan.Snapshot{
		ID:                 model.ID,
		UserID:             model.UserID,
		PersonLabel:        model.PersonLabel,
		Meta:               meta,
		Days:               days,
		SuggestedRecipeIDs: suggested,
		Source:             plan.Source(model.Source),
		Status:             plan.Status(model.Status),
		ReviewerID:         model.ReviewerID,
		ReviewerNotes:      model.ReviewerNotes,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	})
}

// ModelToProfile converts a stored consumer to the profile snapshot the
// prompt is built from
func ModelToProfile(model *UserModel) *profile.Snapshot {
	locale := model.Locale
	if locale == "" {
		locale = profile.DefaultLocale
	}

	return &profile.Snapshot{
		UserID:               model.ID,
		Name:                 model.Name,
		BirthDate:            model.BirthDate,
		WeightKg:             model.WeightKg,
		HeightCm:             model.HeightCm,
		ActivityLevel:        model.ActivityLevel,
		Diets:                nonNil(model.Diets),
		Allergies:            nonNil(model.Allergies),
		Dislikes:             nonNil(model.Dislikes),
		FavouriteIngredients: nonNil(model.FavouriteIngredients),
		Goal:                 model.Goal,
		TargetWeightKg:       model.TargetWeightKg,
		Locale:               locale,
	}
}

// ProfileToModel converts a profile snapshot to a storable consumer row
func ProfileToModel(s *profile.Snapshot, email string) *UserModel {
	return &UserModel{
		ID:                   s.UserID,
		Email:                email,
		Name:                 s.Name,
		Role:                 "user",
		ActivityLevel:        s.ActivityLevel,
		Goal:                 s.Goal,
		Diets:                StringSlice(s.Diets),
		Allergies:            StringSlice(s.Allergies),
		Dislikes:             StringSlice(s.Dislikes),
		FavouriteIngredients: StringSlice(s.FavouriteIngredients),
		Locale:               s.Locale,
		BirthDate:            s.BirthDate,
		WeightKg:             s.WeightKg,
		HeightCm:             s.HeightCm,
		TargetWeightKg:       s.TargetWeightKg,
	}
}

func nonNil(s StringSlice) []string {
	if s == nil {
		return []string{}
	}
	return []string(s)
}
