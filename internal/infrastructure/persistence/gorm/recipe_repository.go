// Package gorm provides GORM-based repository implementations
package gorm

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nutriplan/planner/internal/domain/recipe"
	"github.com/nutriplan/planner/internal/ports/outbound"
	"gorm.io/gorm"
)

// RecipeRepository implements the recipe catalog using GORM
type RecipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new recipe repository
func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

var _ outbound.RecipeCatalog = (*RecipeRepository)(nil)

// FindByTitles returns every recipe whose title exactly equals one of titles,
// oldest first. Matching is case-sensitive.
func (r *RecipeRepository) FindByTitles(ctx context.Context, titles []string) ([]*recipe.Recipe, error) {
	if len(titles) == 0 {
		return []*recipe.Recipe{}, nil
	}

	var models []RecipeModel
	result := r.db.WithContext(ctx).
		Where("title IN ?", titles).
		Order("created_at ASC").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	return ModelsToRecipes(models), nil
}

// FindApprovedSample returns the newest approved recipes
func (r *RecipeRepository) FindApprovedSample(ctx context.Context, limit int) ([]*recipe.Recipe, error) {
	var models []RecipeModel
	result := r.db.WithContext(ctx).
		Where("status = ?", string(recipe.StatusApproved)).
		Order("created_at DESC").
		Limit(limit).
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	return ModelsToRecipes(models), nil
}

// CreateDraft stores a new recipe
func (r *RecipeRepository) CreateDraft(ctx context.Context, rec *recipe.Recipe) error {
	return r.db.WithContext(ctx).Create(RecipeToModel(rec)).Error
}

// UpdateStatusCascade moves the draft or pending recipes among ids to status.
// Recipes already approved or rejected are left alone. It returns the number
// of rows changed.
func (r *RecipeRepository) UpdateStatusCascade(ctx context.Context, ids []uuid.UUID, status recipe.Status, reviewerID uuid.UUID, notes string) (int64, error) {
	return updateStatusCascade(r.db.WithContext(ctx), ids, status, reviewerID, notes)
}

func updateStatusCascade(tx *gorm.DB, ids []uuid.UUID, status recipe.Status, reviewerID uuid.UUID, notes string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result := tx.Model(&RecipeModel{}).
		Where("id IN ? AND status IN ?", ids, statusStrings(recipe.ReviewableStatuses())).
		Updates(map[string]interface{}{
			"status":         string(status),
			"reviewer_id":    reviewerID,
			"reviewer_notes": notes,
			"updated_at":     time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Update writes every mutable column of an existing recipe
func (r *RecipeRepository) Update(ctx context.Context, rec *recipe.Recipe) error {
	model := RecipeToModel(rec)

	result := r.db.WithContext(ctx).
		Model(&RecipeModel{}).
		Where("id = ?", model.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return recipe.ErrRecipeNotFound
	}

	return nil
}

// FindByID finds a recipe by ID
func (r *RecipeRepository) FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	var model RecipeModel

	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}

	return ModelToRecipe(&model), nil
}

// FindByIDs finds recipes by multiple IDs. Unknown IDs are skipped.
func (r *RecipeRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*recipe.Recipe, error) {
	if len(ids) == 0 {
		return []*recipe.Recipe{}, nil
	}

	var models []RecipeModel
	result := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	return ModelsToRecipes(models), nil
}

// ListByStatus pages through recipes matching filter
func (r *RecipeRepository) ListByStatus(ctx context.Context, filter outbound.RecipeFilter) ([]*recipe.Recipe, int64, error) {
	byStatus := func(db *gorm.DB) *gorm.DB {
		switch {
		case len(filter.Statuses) > 0:
			return db.Where("status IN ?", statusStrings(filter.Statuses))
		case filter.ExcludeStatus != "":
			return db.Where("status <> ?", string(filter.ExcludeStatus))
		default:
			return db
		}
	}

	// Count total
	var total int64
	if err := r.db.WithContext(ctx).Model(&RecipeModel{}).Scopes(byStatus).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []RecipeModel
	result := r.db.WithContext(ctx).
		Scopes(byStatus).
		Order(orderClause(filter.OrderBy)).
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&models)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return ModelsToRecipes(models), total, nil
}

func orderClause(order outbound.RecipeOrder) string {
	switch order {
	case outbound.OrderKcalAsc:
		return "kcal ASC, created_at DESC"
	case outbound.OrderKcalDesc:
		return "kcal DESC, created_at DESC"
	default:
		return "created_at DESC"
	}
}

func statusStrings(statuses []recipe.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
