package plan

import (
	"context"

	"github.com/google/uuid"
	"github.com/nutriplan/planner/internal/domain/plan"
	"github.com/nutriplan/planner/internal/domain/recipe"
	"github.com/nutriplan/planner/internal/ports/inbound"
	"github.com/nutriplan/planner/internal/ports/outbound"
	"github.com/nutriplan/planner/pkg/errors"
)

// Presenter expands plans into their read-back view
type Presenter struct {
	catalog outbound.RecipeCatalog
}

// NewPresenter creates a presenter backed by the recipe catalog
func NewPresenter(catalog outbound.RecipeCatalog) *Presenter {
	return &Presenter{catalog: catalog}
}

// Present expands one plan
func (p *Presenter) Present(ctx context.Context, pl *plan.Plan) (*inbound.PlanDTO, error) {
	dtos, err := p.PresentAll(ctx, []*plan.Plan{pl})
	if err != nil {
		return nil, err
	}
	return dtos[0], nil
}

// PresentAll expands several plans with a single catalog read. Suggested
// recipes that no longer exist show up as nil entries.
func (p *Presenter) PresentAll(ctx context.Context, plans []*plan.Plan) ([]*inbound.PlanDTO, error) {
	seen := make(map[uuid.UUID]struct{})
	ids := []uuid.UUID{}
	for _, pl := range plans {
		for _, id := range pl.SuggestedRecipeIDs() {
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	byID := make(map[uuid.UUID]recipe.Summary, len(ids))
	if len(ids) > 0 {
		found, err := p.catalog.FindByIDs(ctx, ids)
		if err != nil {
			return nil, errors.NewPersistenceError("load suggested recipes", err)
		}
		for _, r := range found {
			byID[r.ID()] = r.Summary()
		}
	}

	dtos := make([]*inbound.PlanDTO, 0, len(plans))
	for _, pl := range plans {
		dtos = append(dtos, toDTO(pl, byID))
	}
	return dtos, nil
}

func toDTO(pl *plan.Plan, byID map[uuid.UUID]recipe.Summary) *inbound.PlanDTO {
	s := pl.Snapshot()

	suggested := make([]*recipe.Summary, 0, len(s.SuggestedRecipeIDs))
	for _, id := range s.SuggestedRecipeIDs {
		if summary, ok := byID[id]; ok {
			summary := summary
			suggested = append(suggested, &summary)
		} else {
			suggested = append(suggested, nil)
		}
	}

	return &inbound.PlanDTO{
		ID:                 s.ID,
		UserID:             s.UserID,
		PersonLabel:        s.PersonLabel,
		Meta:               s.Meta,
		Days:               s.Days,
		SuggestedRecipeIDs: s.SuggestedRecipeIDs,
		SuggestedRecipes:   suggested,
		Source:             s.Source,
		Status:             s.Status,
		ReviewerID:         s.ReviewerID,
		ReviewerNotes:      s.ReviewerNotes,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}
