package gorm

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nutriplan/planner/internal/domain/plan"
	"github.com/nutriplan/planner/internal/domain/recipe"
	"github.com/nutriplan/planner/internal/ports/outbound"
	"gorm.io/gorm"
)

// PlanRepository implements the plan store using GORM
type PlanRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

var _ outbound.PlanRepository = (*PlanRepository)(nil)

// Create writes the plan, its days, meals and suggestions in one transaction.
// A meal pointing at a recipe that does not exist fails the whole write.
func (r *PlanRepository) Create(ctx context.Context, p *plan.Plan) error {
	model := PlanToModel(p)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(model).Error
	})
}

// FindByID finds a plan by ID with its days and meals
func (r *PlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*plan.Plan, error) {
	var model PlanModel

	result := r.withTree(r.db.WithContext(ctx)).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}

	return ModelToPlan(&model), nil
}

// FindByUser returns every plan of a consumer, newest first
func (r *PlanRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*plan.Plan, error) {
	var models []PlanModel

	result := r.withTree(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	return modelsToPlans(models), nil
}

// List pages through all plans, newest first
func (r *PlanRepository) List(ctx context.Context, offset, limit int) ([]*plan.Plan, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&PlanModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []PlanModel
	result := r.withTree(r.db.WithContext(ctx)).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return modelsToPlans(models), total, nil
}

// SetReviewStatus moves a plan between review states
func (r *PlanRepository) SetReviewStatus(ctx context.Context, id uuid.UUID, from, to plan.Status, reviewerID uuid.UUID, notes string) error {
	return setReviewStatus(r.db.WithContext(ctx), id, from, to, reviewerID, notes)
}

// ApproveWithCascade approves a pending plan and promotes its reviewable
// recipes. Either both writes land or neither does.
func (r *PlanRepository) ApproveWithCascade(ctx context.Context, id uuid.UUID, reviewerID uuid.UUID, notes string, recipeIDs []uuid.UUID) (int64, error) {
	var promoted int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := setReviewStatus(tx, id, plan.StatusPendingReview, plan.StatusApproved, reviewerID, notes); err != nil {
			return err
		}

		n, err := updateStatusCascade(tx, recipeIDs, recipe.StatusApproved, reviewerID, notes)
		if err != nil {
			return err
		}
		promoted = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	return promoted, nil
}

// setReviewStatus is a compare-and-set on the status column
func setReviewStatus(tx *gorm.DB, id uuid.UUID, from, to plan.Status, reviewerID uuid.UUID, notes string) error {
	result := tx.Model(&PlanModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]interface{}{
			"status":         string(to),
			"reviewer_id":    reviewerID,
			"reviewer_notes": notes,
			"updated_at":     time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := tx.Model(&PlanModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return plan.ErrPlanNotFound
	}
	return plan.ErrInvalidStatusTransition
}

func (r *PlanRepository) withTree(db *gorm.DB) *gorm.DB {
	byPosition := func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}
	return db.
		Preload("Days", byPosition).
		Preload("Days.Meals", byPosition).
		Preload("Suggestions", byPosition)
}

func modelsToPlans(models []PlanModel) []*plan.Plan {
	plans := make([]*plan.Plan, 0, len(models))
	for i := range models {
		plans = append(plans, ModelToPlan(&models[i]))
	}
	return plans
}
