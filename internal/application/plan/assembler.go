package plan

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/nutriplan/planner/internal/domain/plan"
)

// Assemble builds the plan aggregate from a validated payload and its
// resolution. Every meal reference must be one the resolution confirmed.
func Assemble(userID uuid.UUID, payload *plan.Payload, res *Resolution) (*plan.Plan, error) {
	if len(res.Meals) != len(payload.Days) {
		return nil, fmt.Errorf("resolution covers %d days, payload has %d", len(res.Meals), len(payload.Days))
	}

	days := make([]plan.Day, 0, len(payload.Days))
	for i, d := range payload.Days {
		if len(res.Meals[i]) != len(d.Meals) {
			return nil, fmt.Errorf("resolution covers %d meals on day %d, payload has %d", len(res.Meals[i]), i+1, len(d.Meals))
		}

		meals := make([]plan.Meal, 0, len(d.Meals))
		for j, m := range d.Meals {
			resolved := res.Meals[i][j]
			if resolved.RecipeID != nil {
				if _, ok := res.Known[*resolved.RecipeID]; !ok {
					return nil, fmt.Errorf("%w: %s", plan.ErrDanglingRecipeReference, resolved.RecipeID)
				}
			}

			meals = append(meals, plan.Meal{
				Type:        m.Type,
				Calories:    m.Calories,
				RecipeID:    resolved.RecipeID,
				RecipeTitle: resolved.Title,
				Inline:      resolved.Inline,
			})
		}
		days = append(days, plan.Day{Number: d.Index, Meals: meals})
	}

	return plan.New(userID, payload.PersonLabel, payload.Meta, days)
}
