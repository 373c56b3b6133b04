// Package moderation provides the application layer for reviewing plans and
// recipes. Approving a plan promotes every draft or pending recipe it
// suggests in the same transaction.
package moderation

import (
	"context"
	stderrors "errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	planapp "github.com/nutriplan/planner/internal/application/plan"
	"github.com/nutriplan/planner/internal/domain/plan"
	"github.com/nutriplan/planner/internal/domain/recipe"
	"github.com/nutriplan/planner/internal/domain/shared"
	"github.com/nutriplan/planner/internal/ports/inbound"
	"github.com/nutriplan/planner/internal/ports/outbound"
	"github.com/nutriplan/planner/pkg/errors"
	"go.uber.org/zap"
)

// Listing bounds for the pending recipe queue
const (
	DefaultPendingLimit = 12
	MaxPendingLimit     = 200
)

// Service implements inbound.ModerationService
type Service struct {
	plans       outbound.PlanRepository
	catalog     outbound.RecipeCatalog
	sampleCache outbound.SampleCache
	presenter   *planapp.Presenter
	events      outbound.EventPublisher
	metrics     outbound.PipelineMetrics
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewService creates the moderation service. sampleCache may be nil.
func NewService(
	plans outbound.PlanRepository,
	catalog outbound.RecipeCatalog,
	sampleCache outbound.SampleCache,
	events outbound.EventPublisher,
	metrics outbound.PipelineMetrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		plans:       plans,
		catalog:     catalog,
		sampleCache: sampleCache,
		presenter:   planapp.NewPresenter(catalog),
		events:      events,
		metrics:     metrics,
		validate:    validator.New(),
		logger:      logger.Named("moderation-service"),
	}
}

var _ inbound.ModerationService = (*Service)(nil)

// ApprovePlan approves a pending plan and cascades the approval to its
// suggested recipes. A second approval is a conflict and writes nothing.
func (s *Service) ApprovePlan(ctx context.Context, cmd inbound.ReviewPlanCommand) (*inbound.PlanDTO, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	p, err := s.loadPlan(ctx, cmd.PlanID)
	if err != nil {
		return nil, err
	}

	cascade, err := p.Approve(cmd.ReviewerID, cmd.Notes)
	if err != nil {
		return nil, s.fail("approve_plan", planError(err))
	}

	promoted, err := s.plans.ApproveWithCascade(ctx, p.ID(), cmd.ReviewerID, cmd.Notes, cascade)
	if err != nil {
		if isPlanConflict(err) {
			return nil, s.fail("approve_plan", planError(err))
		}
		return nil, s.fail("approve_plan", errors.NewPersistenceError("approve plan", err))
	}
	s.observe("approve_plan", nil)
	if s.metrics != nil {
		s.metrics.AddCascadePromotions(promoted)
	}

	if promoted > 0 {
		s.invalidateSample(ctx)
	}
	s.publish(ctx, p.PullEvents())

	s.logger.Info("Plan approved",
		zap.String("plan_id", p.ID().String()),
		zap.String("reviewer_id", cmd.ReviewerID.String()),
		zap.Int("suggested", len(cascade)),
		zap.Int64("promoted", promoted),
	)

	return s.presenter.Present(ctx, p)
}

// RejectPlan rejects a pending plan. Suggested recipes keep their status.
func (s *Service) RejectPlan(ctx context.Context, cmd inbound.ReviewPlanCommand) (*inbound.PlanDTO, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	p, err := s.loadPlan(ctx, cmd.PlanID)
	if err != nil {
		return nil, err
	}

	if err := p.Reject(cmd.ReviewerID, cmd.Notes); err != nil {
		return nil, s.fail("reject_plan", planError(err))
	}

	err = s.plans.SetReviewStatus(ctx, p.ID(), plan.StatusPendingReview, plan.StatusRejected, cmd.ReviewerID, cmd.Notes)
	if err != nil {
		if isPlanConflict(err) {
			return nil, s.fail("reject_plan", planError(err))
		}
		return nil, s.fail("reject_plan", errors.NewPersistenceError("reject plan", err))
	}
	s.observe("reject_plan", nil)
	s.publish(ctx, p.PullEvents())

	s.logger.Info("Plan rejected",
		zap.String("plan_id", p.ID().String()),
		zap.String("reviewer_id", cmd.ReviewerID.String()),
	)

	return s.presenter.Present(ctx, p)
}

// ListPendingRecipes pages through recipes that are not yet approved.
// Pages below one and limits outside [1, MaxPendingLimit] are clamped.
func (s *Service) ListPendingRecipes(ctx context.Context, query inbound.PendingRecipesQuery) (*inbound.RecipeList, error) {
	page, limit := ClampPage(query.Page, query.Limit)

	recipes, total, err := s.catalog.ListByStatus(ctx, outbound.RecipeFilter{
		ExcludeStatus: recipe.StatusApproved,
		OrderBy:       SortOrder(query.Sort),
		Offset:        (page - 1) * limit,
		Limit:         limit,
	})
	if err != nil {
		return nil, errors.NewPersistenceError("list pending recipes", err)
	}

	dtos := make([]*inbound.RecipeDTO, 0, len(recipes))
	for _, r := range recipes {
		dtos = append(dtos, RecipeToDTO(r))
	}

	return &inbound.RecipeList{
		Recipes: dtos,
		Total:   total,
		Page:    page,
		Limit:   limit,
	}, nil
}

// ReviewRecipe approves or rejects one draft or pending recipe
func (s *Service) ReviewRecipe(ctx context.Context, cmd inbound.ReviewRecipeCommand) (*inbound.RecipeDTO, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	r, err := s.loadRecipe(ctx, cmd.RecipeID)
	if err != nil {
		return nil, err
	}

	if cmd.Action == inbound.ActionApprove {
		err = r.Approve(cmd.ReviewerID, cmd.Notes)
	} else {
		err = r.Reject(cmd.ReviewerID, cmd.Notes)
	}
	if err != nil {
		return nil, s.fail("review_recipe", recipeError(err))
	}

	if err := s.catalog.Update(ctx, r); err != nil {
		return nil, s.fail("review_recipe", errors.NewPersistenceError("update recipe", err))
	}
	s.observe("review_recipe", nil)

	if r.Status() == recipe.StatusApproved {
		s.invalidateSample(ctx)
	}
	s.publish(ctx, r.PullEvents())

	s.logger.Info("Recipe reviewed",
		zap.String("recipe_id", r.ID().String()),
		zap.String("reviewer_id", cmd.ReviewerID.String()),
		zap.String("status", string(r.Status())),
	)

	return RecipeToDTO(r), nil
}

// SubmitRecipe moves a draft into the review queue
func (s *Service) SubmitRecipe(ctx context.Context, recipeID uuid.UUID) (*inbound.RecipeDTO, error) {
	r, err := s.loadRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	if err := r.Submit(); err != nil {
		return nil, recipeError(err)
	}
	if err := s.catalog.Update(ctx, r); err != nil {
		return nil, errors.NewPersistenceError("update recipe", err)
	}
	s.publish(ctx, r.PullEvents())

	return RecipeToDTO(r), nil
}

// ClampPage normalizes paging input for the pending queue
func ClampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit == 0:
		limit = DefaultPendingLimit
	case limit < 1:
		limit = 1
	case limit > MaxPendingLimit:
		limit = MaxPendingLimit
	}
	return page, limit
}

// SortOrder maps a sort key to a listing order. Unknown keys sort newest first.
func SortOrder(key string) outbound.RecipeOrder {
	switch outbound.RecipeOrder(key) {
	case outbound.OrderKcalAsc:
		return outbound.OrderKcalAsc
	case outbound.OrderKcalDesc:
		return outbound.OrderKcalDesc
	default:
		return outbound.OrderNewest
	}
}

// RecipeToDTO converts a recipe to its full view
func RecipeToDTO(r *recipe.Recipe) *inbound.RecipeDTO {
	s := r.Snapshot()
	f := s.Fields
	return &inbound.RecipeDTO{
		ID:            s.ID,
		Title:         f.Title,
		Summary:       f.Summary,
		Description:   f.Description,
		Kcal:          f.Kcal,
		PrepTimeMin:   f.PrepTimeMin,
		Servings:      f.Servings,
		Tags:          f.Tags,
		Diets:         f.Diets,
		Categories:    f.Categories,
		ImageURL:      f.ImageURL,
		ImagePrompt:   f.ImagePrompt,
		Ingredients:   f.Ingredients,
		Steps:         f.Steps,
		Local:         f.Local,
		Source:        s.Source,
		AuthorID:      s.AuthorID,
		Status:        s.Status,
		ReviewerID:    s.ReviewerID,
		ReviewerNotes: s.ReviewerNotes,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func (s *Service) loadPlan(ctx context.Context, id uuid.UUID) (*plan.Plan, error) {
	p, err := s.plans.FindByID(ctx, id)
	if err != nil {
		return nil, errors.NewPersistenceError("find plan", err)
	}
	if p == nil {
		return nil, errors.NewNotFoundError("Plan", id.String())
	}
	return p, nil
}

func (s *Service) loadRecipe(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	r, err := s.catalog.FindByID(ctx, id)
	if err != nil {
		return nil, errors.NewPersistenceError("find recipe", err)
	}
	if r == nil {
		return nil, errors.NewNotFoundError("Recipe", id.String())
	}
	return r, nil
}

func (s *Service) invalidateSample(ctx context.Context) {
	if s.sampleCache == nil {
		return
	}
	if err := s.sampleCache.Invalidate(ctx); err != nil {
		s.logger.Warn("Failed to invalidate style sample cache", zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish events", zap.Int("count", len(events)), zap.Error(err))
	}
}

func (s *Service) observe(action string, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = string(errors.GetCode(err))
	}
	s.metrics.ObserveModeration(action, outcome)
}

// fail records a failed moderation action and hands err back
func (s *Service) fail(action string, err error) error {
	s.observe(action, err)
	return err
}

func isPlanConflict(err error) bool {
	return stderrors.Is(err, plan.ErrPlanAlreadyApproved) ||
		stderrors.Is(err, plan.ErrPlanAlreadyRejected) ||
		stderrors.Is(err, plan.ErrInvalidStatusTransition)
}

// planError maps plan domain errors to application errors
func planError(err error) error {
	switch {
	case isPlanConflict(err):
		return errors.NewConflictError(err.Error()).WithCause(err)
	case stderrors.Is(err, plan.ErrReviewerRequired):
		return errors.NewValidationError(err.Error())
	default:
		return err
	}
}

// recipeError maps recipe domain errors to application errors
func recipeError(err error) error {
	switch {
	case stderrors.Is(err, recipe.ErrInvalidStatusTransition):
		return errors.NewConflictError(err.Error()).WithCause(err)
	case stderrors.Is(err, recipe.ErrReviewerRequired):
		return errors.NewValidationError(err.Error())
	default:
		return err
	}
}
