// Package plan provides the application layer for meal plan generation.
// It runs the pipeline from profile to stored plan: compile the prompt,
// invoke the model, parse the answer, resolve dishes against the catalog,
// assemble the plan and persist it for review.
package plan

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nutriplan/planner/internal/application/ai"
	"github.com/nutriplan/planner/internal/application/prompt"
	"github.com/nutriplan/planner/internal/domain/profile"
	"github.com/nutriplan/planner/internal/domain/recipe"
	"github.com/nutriplan/planner/internal/domain/shared"
	"github.com/nutriplan/planner/internal/ports/inbound"
	"github.com/nutriplan/planner/internal/ports/outbound"
	"github.com/nutriplan/planner/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

var tracer = otel.Tracer("github.com/nutriplan/planner/internal/application/plan")

// ModelInvoker sends a prompt to the text model chain
type ModelInvoker interface {
	Invoke(ctx context.Context, prompt string, cfg ai.Config) (string, error)
}

// Options tunes plan generation
type Options struct {
	Model      ai.Config
	SampleSize int
}

// Service implements inbound.PlanService
type Service struct {
	profiles    outbound.ProfileSupplier
	catalog     outbound.RecipeCatalog
	plans       outbound.PlanRepository
	sampleCache outbound.SampleCache
	model       ModelInvoker
	compiler    *prompt.Compiler
	resolver    *Resolver
	presenter   *Presenter
	events      outbound.EventPublisher
	metrics     outbound.PipelineMetrics
	validate    *validator.Validate
	opts        Options
	logger      *zap.Logger
}

// NewService creates the plan service. sampleCache may be nil.
func NewService(
	profiles outbound.ProfileSupplier,
	catalog outbound.RecipeCatalog,
	plans outbound.PlanRepository,
	sampleCache outbound.SampleCache,
	model ModelInvoker,
	compiler *prompt.Compiler,
	events outbound.EventPublisher,
	metrics outbound.PipelineMetrics,
	opts Options,
	logger *zap.Logger,
) *Service {
	if opts.SampleSize <= 0 || opts.SampleSize > prompt.MaxSample {
		opts.SampleSize = prompt.MaxSample
	}

	return &Service{
		profiles:    profiles,
		catalog:     catalog,
		plans:       plans,
		sampleCache: sampleCache,
		model:       model,
		compiler:    compiler,
		resolver:    NewResolver(catalog, logger),
		presenter:   NewPresenter(catalog),
		events:      events,
		metrics:     metrics,
		validate:    validator.New(),
		opts:        opts,
		logger:      logger.Named("plan-service"),
	}
}

var _ inbound.PlanService = (*Service)(nil)

// GeneratePlan runs the whole pipeline for one consumer. Nothing is stored
// unless the model answer parses and passes the schema check; drafts written
// before a later failure are kept.
func (s *Service) GeneratePlan(ctx context.Context, cmd inbound.GeneratePlanCommand) (dto *inbound.PlanDTO, err error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	started := time.Now()
	ctx, span := tracer.Start(ctx, "plan.Generate")
	span.SetAttributes(attribute.String("plan.user_id", cmd.UserID.String()))
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = string(errors.GetCode(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		if s.metrics != nil {
			s.metrics.ObserveGeneration(outcome, time.Since(started))
		}
		span.End()
	}()

	s.logger.Info("Generating plan", zap.String("user_id", cmd.UserID.String()))

	snapshot, sample, err := s.gatherInputs(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	promptText, err := s.compiler.Compile(*snapshot, cmd.Preferences, sample)
	if err != nil {
		return nil, errors.NewInternalError("failed to compile prompt").WithCause(err)
	}

	text, err := s.model.Invoke(ctx, promptText, s.opts.Model)
	if err != nil {
		return nil, err
	}

	payload, err := Parse(text)
	if err != nil {
		s.logger.Warn("Model answer rejected",
			zap.String("user_id", cmd.UserID.String()),
			zap.Int("response_chars", len(text)),
			zap.Error(err),
		)
		return nil, err
	}

	resolution, err := s.resolver.Resolve(ctx, cmd.UserID, payload)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.AddDraftsCreated(len(resolution.Drafts))
	}

	p, err := Assemble(cmd.UserID, payload, resolution)
	if err != nil {
		return nil, errors.Wrap(err, "failed to assemble plan")
	}

	if err := s.plans.Create(ctx, p); err != nil {
		s.logger.Error("Plan write failed after drafts were created",
			zap.String("user_id", cmd.UserID.String()),
			zap.Int("orphaned_drafts", len(resolution.Drafts)),
			zap.Error(err),
		)
		return nil, errors.NewPersistenceError("create plan", err)
	}

	events := []shared.DomainEvent{}
	for _, draft := range resolution.Drafts {
		events = append(events, draft.PullEvents()...)
	}
	events = append(events, p.PullEvents()...)
	s.publish(ctx, events)

	counts := resolution.Counts()
	span.SetAttributes(
		attribute.String("plan.id", p.ID().String()),
		attribute.Int("plan.days", len(p.Days())),
		attribute.Int("plan.drafts", len(resolution.Drafts)),
	)
	s.logger.Info("Plan generated",
		zap.String("plan_id", p.ID().String()),
		zap.String("user_id", cmd.UserID.String()),
		zap.Int("days", len(p.Days())),
		zap.Int("matched", counts[DecisionMatched]),
		zap.Int("drafted", counts[DecisionDrafted]),
		zap.Int("title_only", counts[DecisionTitleOnly]),
		zap.Int("unresolved", counts[DecisionUnresolved]),
		zap.Duration("elapsed", time.Since(started)),
	)

	return s.presenter.Present(ctx, p)
}

// gatherInputs loads the profile and the style sample concurrently
func (s *Service) gatherInputs(ctx context.Context, userID uuid.UUID) (*profile.Snapshot, []recipe.Summary, error) {
	var (
		snapshot *profile.Snapshot
		sample   []recipe.Summary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.profiles.GetProfile(gctx, userID)
		if stderrors.Is(err, profile.ErrProfileNotFound) || (err == nil && p == nil) {
			return errors.NewNotFoundError("Profile", userID.String())
		}
		if err != nil {
			return errors.NewPersistenceError("load profile", err)
		}
		snapshot = p
		return nil
	})
	g.Go(func() error {
		var err error
		sample, err = s.styleSample(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return snapshot, sample, nil
}

// styleSample returns up to SampleSize approved recipes, served from the
// cache when possible. Cache failures fall through to the catalog.
func (s *Service) styleSample(ctx context.Context) ([]recipe.Summary, error) {
	limit := s.opts.SampleSize

	if s.sampleCache != nil {
		cached, ok, err := s.sampleCache.GetSample(ctx, limit)
		if err != nil {
			s.logger.Warn("Sample cache read failed", zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	recipes, err := s.catalog.FindApprovedSample(ctx, limit)
	if err != nil {
		return nil, errors.NewPersistenceError("load style sample", err)
	}
	sample := make([]recipe.Summary, 0, len(recipes))
	for _, r := range recipes {
		sample = append(sample, r.Summary())
	}

	if s.sampleCache != nil {
		if err := s.sampleCache.SetSample(ctx, limit, sample); err != nil {
			s.logger.Warn("Sample cache write failed", zap.Error(err))
		}
	}
	return sample, nil
}

// GetPlan returns one plan with its suggested recipes expanded
func (s *Service) GetPlan(ctx context.Context, planID uuid.UUID) (*inbound.PlanDTO, error) {
	p, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		return nil, errors.NewPersistenceError("find plan", err)
	}
	if p == nil {
		return nil, errors.NewNotFoundError("Plan", planID.String())
	}
	return s.presenter.Present(ctx, p)
}

// ListMyPlans returns every plan of one consumer, newest first
func (s *Service) ListMyPlans(ctx context.Context, userID uuid.UUID) ([]*inbound.PlanDTO, error) {
	if userID == uuid.Nil {
		return nil, errors.NewValidationError("user ID is required")
	}

	plans, err := s.plans.FindByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewPersistenceError("list user plans", err)
	}
	return s.presenter.PresentAll(ctx, plans)
}

// ListAllPlans returns one page of plans across all consumers
func (s *Service) ListAllPlans(ctx context.Context, params inbound.PaginationParams) (*inbound.PlanList, error) {
	page, limit := params.Page, params.Limit
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	plans, total, err := s.plans.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, errors.NewPersistenceError("list plans", err)
	}
	dtos, err := s.presenter.PresentAll(ctx, plans)
	if err != nil {
		return nil, err
	}

	return &inbound.PlanList{
		Plans: dtos,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

func (s *Service) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}
