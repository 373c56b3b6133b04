package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nutriplan/planner/internal/ports/inbound"
	"github.com/nutriplan/planner/pkg/errors"
)

func parseGenerate(fs *flag.FlagSet, args []string) (action, error) {
	user := fs.String("user", "", "Consumer ID (required)")
	prefs := fs.String("prefs", "", "Preferences as a JSON object, e.g. '{\"dias\":3}'")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	userID, err := requireID("user", *user)
	if err != nil {
		return nil, err
	}
	preferences, err := parsePreferences(*prefs)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, svc *services) (any, error) {
		if svc.cfg.AI.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, svc.cfg.AI.Timeout)
			defer cancel()
		}
		return svc.plans.GeneratePlan(ctx, inbound.GeneratePlanCommand{
			UserID:      userID,
			Preferences: preferences,
		})
	}, nil
}

func parsePlans(fs *flag.FlagSet, args []string) (action, error) {
	user := fs.String("user", "", "Consumer ID")
	all := fs.Bool("all", false, "List every plan, newest first")
	page := fs.Int("page", 1, "Page number with -all")
	limit := fs.Int("limit", 0, "Page size with -all")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *all == (*user != "") {
		return nil, errors.NewValidationError("exactly one of -user or -all is required")
	}

	if *all {
		return func(ctx context.Context, svc *services) (any, error) {
			return svc.plans.ListAllPlans(ctx, inbound.PaginationParams{Page: *page, Limit: *limit})
		}, nil
	}

	userID, err := requireID("user", *user)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, svc *services) (any, error) {
		return svc.plans.ListMyPlans(ctx, userID)
	}, nil
}

func parsePlan(fs *flag.FlagSet, args []string) (action, error) {
	id := fs.String("id", "", "Plan ID (required)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	planID, err := requireID("id", *id)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, svc *services) (any, error) {
		return svc.plans.GetPlan(ctx, planID)
	}, nil
}

func parseReview(approve bool) func(fs *flag.FlagSet, args []string) (action, error) {
	return func(fs *flag.FlagSet, args []string) (action, error) {
		id := fs.String("id", "", "Plan ID (required)")
		reviewer := fs.String("reviewer", "", "Reviewer ID (required)")
		notes := fs.String("notes", "", "Reviewer notes")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}

		planID, err := requireID("id", *id)
		if err != nil {
			return nil, err
		}
		reviewerID, err := requireID("reviewer", *reviewer)
		if err != nil {
			return nil, err
		}

		cmd := inbound.ReviewPlanCommand{PlanID: planID, ReviewerID: reviewerID, Notes: *notes}
		return func(ctx context.Context, svc *services) (any, error) {
			if approve {
				return svc.moderation.ApprovePlan(ctx, cmd)
			}
			return svc.moderation.RejectPlan(ctx, cmd)
		}, nil
	}
}

func parsePending(fs *flag.FlagSet, args []string) (action, error) {
	page := fs.Int("page", 1, "Page number")
	limit := fs.Int("limit", 0, "Page size (default 12, at most 200)")
	sort := fs.String("sort", "newest", "Sort order: newest, kcal_asc, kcal_desc")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	query := inbound.PendingRecipesQuery{Page: *page, Limit: *limit, Sort: *sort}
	return func(ctx context.Context, svc *services) (any, error) {
		return svc.moderation.ListPendingRecipes(ctx, query)
	}, nil
}

func parseRecipeReview(fs *flag.FlagSet, args []string) (action, error) {
	id := fs.String("id", "", "Recipe ID (required)")
	act := fs.String("action", "", "approve or reject (required)")
	reviewer := fs.String("reviewer", "", "Reviewer ID (required)")
	notes := fs.String("notes", "", "Reviewer notes")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	recipeID, err := requireID("id", *id)
	if err != nil {
		return nil, err
	}
	reviewerID, err := requireID("reviewer", *reviewer)
	if err != nil {
		return nil, err
	}

	cmd := inbound.ReviewRecipeCommand{
		RecipeID:   recipeID,
		ReviewerID: reviewerID,
		Action:     strings.ToLower(*act),
		Notes:      *notes,
	}
	return func(ctx context.Context, svc *services) (any, error) {
		return svc.moderation.ReviewRecipe(ctx, cmd)
	}, nil
}

func parseRecipeSubmit(fs *flag.FlagSet, args []string) (action, error) {
	id := fs.String("id", "", "Recipe ID (required)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	recipeID, err := requireID("id", *id)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, svc *services) (any, error) {
		return svc.moderation.SubmitRecipe(ctx, recipeID)
	}, nil
}

func requireID(flagName, value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, errors.NewValidationError(fmt.Sprintf("-%s is required", flagName))
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, errors.NewValidationError(fmt.Sprintf("-%s is not a valid ID: %v", flagName, err))
	}
	return id, nil
}

func parsePreferences(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var prefs map[string]any
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("-prefs must be a JSON object: %v", err))
	}
	return prefs, nil
}
