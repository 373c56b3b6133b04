package plan

import (
	"context"
	"encoding/json"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/nutriplan/planner/internal/domain/plan"
	"github.com/nutriplan/planner/internal/domain/recipe"
	"github.com/nutriplan/planner/internal/ports/outbound"
	"github.com/nutriplan/planner/pkg/errors"
	"go.uber.org/zap"
)

// DefaultDraftTitle names drafts the model left untitled
const DefaultDraftTitle = "Receta generada"

const maxTitleBytes = 255

// Decision records how one meal's dish was resolved
type Decision int

const (
	DecisionUnresolved Decision = iota
	DecisionMatched
	DecisionDrafted
	DecisionTitleOnly
)

func (d Decision) String() string {
	switch d {
	case DecisionMatched:
		return "matched"
	case DecisionDrafted:
		return "drafted"
	case DecisionTitleOnly:
		return "title_only"
	default:
		return "unresolved"
	}
}

// MealResolution is the outcome for one meal slot
type MealResolution struct {
	Decision Decision
	RecipeID *uuid.UUID
	Title    string
	Inline   json.RawMessage
}

// Resolution is the outcome for a whole payload. Meals is indexed like the
// payload's days and meals. Known holds every recipe ID confirmed by the
// catalog during this resolution, matched or freshly drafted.
type Resolution struct {
	Meals  [][]MealResolution
	Known  map[uuid.UUID]struct{}
	Drafts []*recipe.Recipe
}

// Counts tallies the decisions
func (r *Resolution) Counts() map[Decision]int {
	counts := make(map[Decision]int)
	for _, day := range r.Meals {
		for _, m := range day {
			counts[m.Decision]++
		}
	}
	return counts
}

// Resolver ties dish references to catalog recipes, drafting new recipes
// for inline dishes.
type Resolver struct {
	catalog outbound.RecipeCatalog
	logger  *zap.Logger
}

// NewResolver creates a resolver
func NewResolver(catalog outbound.RecipeCatalog, logger *zap.Logger) *Resolver {
	return &Resolver{
		catalog: catalog,
		logger:  logger.Named("recipe-resolver"),
	}
}

// Resolve looks every referenced title up in one batch, then walks the meals
// in order. Bare titles bind to a match or stay as plain titles; inline
// dishes always become drafts authored by authorID. A failed draft write
// aborts the whole resolution.
func (r *Resolver) Resolve(ctx context.Context, authorID uuid.UUID, payload *plan.Payload) (*Resolution, error) {
	byTitle, err := r.lookup(ctx, payload)
	if err != nil {
		return nil, err
	}

	res := &Resolution{
		Meals:  make([][]MealResolution, len(payload.Days)),
		Known:  make(map[uuid.UUID]struct{}),
		Drafts: []*recipe.Recipe{},
	}

	for i, day := range payload.Days {
		res.Meals[i] = make([]MealResolution, len(day.Meals))
		for j, meal := range day.Meals {
			dish := meal.Dish

			switch dish.Kind {
			case plan.DishTitleOnly:
				if id, ok := byTitle[dish.Title]; ok {
					id := id
					res.Meals[i][j] = MealResolution{Decision: DecisionMatched, RecipeID: &id, Title: dish.Title}
					res.Known[id] = struct{}{}
				} else {
					res.Meals[i][j] = MealResolution{Decision: DecisionTitleOnly, Title: dish.Title}
				}

			case plan.DishInline:
				draft, err := recipe.NewDraft(DraftFields(dish.Object), recipe.SourceMachine, authorID)
				if err != nil {
					return nil, errors.NewPersistenceError("build recipe draft", err)
				}
				if err := r.catalog.CreateDraft(ctx, draft); err != nil {
					r.logger.Error("Failed to store recipe draft",
						zap.String("title", draft.Title()),
						zap.Int("drafts_already_stored", len(res.Drafts)),
						zap.Error(err),
					)
					return nil, errors.NewPersistenceError("store recipe draft", err)
				}
				id := draft.ID()
				res.Meals[i][j] = MealResolution{Decision: DecisionDrafted, RecipeID: &id, Title: draft.Title(), Inline: dish.Raw}
				res.Known[id] = struct{}{}
				res.Drafts = append(res.Drafts, draft)

			default:
				unresolved := MealResolution{Decision: DecisionUnresolved}
				if dish.Object != nil {
					unresolved.Inline = dish.Raw
				}
				res.Meals[i][j] = unresolved
			}
		}
	}

	counts := res.Counts()
	r.logger.Debug("Resolved dishes",
		zap.Int("matched", counts[DecisionMatched]),
		zap.Int("drafted", counts[DecisionDrafted]),
		zap.Int("title_only", counts[DecisionTitleOnly]),
		zap.Int("unresolved", counts[DecisionUnresolved]),
	)
	return res, nil
}

// lookup maps every referenced title to a catalog recipe ID. Matching is
// exact; when several recipes share a title the newest one wins.
func (r *Resolver) lookup(ctx context.Context, payload *plan.Payload) (map[string]uuid.UUID, error) {
	seen := make(map[string]struct{})
	titles := []string{}
	for _, day := range payload.Days {
		for _, meal := range day.Meals {
			title := meal.Dish.Title
			if meal.Dish.Kind == plan.DishUnresolved || title == "" {
				continue
			}
			if _, dup := seen[title]; dup {
				continue
			}
			seen[title] = struct{}{}
			titles = append(titles, title)
		}
	}

	byTitle := make(map[string]uuid.UUID)
	if len(titles) == 0 {
		return byTitle, nil
	}

	found, err := r.catalog.FindByTitles(ctx, titles)
	if err != nil {
		return nil, errors.NewPersistenceError("look up recipes by title", err)
	}

	newest := make(map[string]*recipe.Recipe)
	for _, rec := range found {
		if cur, ok := newest[rec.Title()]; !ok || rec.CreatedAt().After(cur.CreatedAt()) {
			newest[rec.Title()] = rec
		}
	}
	for title, rec := range newest {
		byTitle[title] = rec.ID()
	}
	return byTitle, nil
}

// DraftFields normalizes an inline dish object into recipe content.
func DraftFields(obj plan.Object) recipe.Fields {
	f := recipe.Fields{
		Title:       obj.String("title"),
		Summary:     obj.String("summary", "description"),
		Description: obj.String("description", "summary"),
		ImageURL:    obj.String("imageUrl"),
		ImagePrompt: obj.String("imagePrompt"),
		Tags:        stringsOrEmpty(obj.Strings("tags")),
		Diets:       stringsOrEmpty(obj.Strings("diets")),
		Categories:  stringsOrEmpty(obj.Strings("categories")),
		Ingredients: ingredients(obj["ingredients"]),
		Steps:       steps(obj["steps"]),
		Servings:    1,
	}
	if strings.TrimSpace(f.Title) == "" {
		f.Title = DefaultDraftTitle
	}
	if len(f.Title) > maxTitleBytes {
		f.Title = truncate(f.Title, maxTitleBytes)
	}
	if kcal, ok := obj.Coerce("kcal"); ok && kcal > 0 {
		f.Kcal = kcal
	}
	if mins, ok := obj.Coerce("prepTimeMin"); ok && mins > 0 {
		f.PrepTimeMin = int(math.Round(mins))
	} else if mins, ok := obj.Coerce("durationMin"); ok && mins > 0 {
		f.PrepTimeMin = int(math.Round(mins))
	}
	if servings, ok := obj.Coerce("servings"); ok && servings >= 1 {
		f.Servings = int(math.Round(servings))
	}
	return f
}

func ingredients(raw json.RawMessage) []recipe.Ingredient {
	out := []recipe.Ingredient{}
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return out
	}

	for _, item := range items {
		var name string
		if json.Unmarshal(item, &name) == nil {
			out = append(out, recipe.Ingredient{Name: strings.TrimSpace(name)})
			continue
		}
		obj, ok := plan.AsObject(item)
		if !ok {
			continue
		}

		ing := recipe.Ingredient{
			Name: obj.String("name", "ingredient"),
			Unit: obj.String("unit"),
		}
		if q, ok := quantity(obj); ok {
			ing.Quantity = &q
		}
		out = append(out, ing)
	}
	return out
}

// quantity reads quantity, then amount. A present but unparsable value
// yields no quantity rather than falling through to amount.
func quantity(obj plan.Object) (float64, bool) {
	for _, key := range []string{"quantity", "amount"} {
		raw, ok := obj[key]
		if !ok || strings.TrimSpace(string(raw)) == "null" {
			continue
		}
		return plan.CoerceNumber(raw)
	}
	return 0, false
}

func steps(raw json.RawMessage) []string {
	out := []string{}

	var text string
	if json.Unmarshal(raw, &text) == nil {
		for _, line := range strings.Split(text, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
		return out
	}

	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return out
	}
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) == nil {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	cut := 0
	for i := range s {
		if i > n {
			break
		}
		cut = i
	}
	if len(s) <= n {
		return s
	}
	return s[:cut]
}

func stringsOrEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
