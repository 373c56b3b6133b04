package prompt

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nutriplan/planner/internal/domain/profile"
	"github.com/nutriplan/planner/internal/domain/recipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func sampleProfile() profile.Snapshot {
	birth := time.Date(1990, 6, 3, 0, 0, 0, 0, time.UTC)
	weight := 62.5
	return profile.Snapshot{
		UserID:               uuid.New(),
		Name:                 "Ana",
		BirthDate:            &birth,
		WeightKg:             &weight,
		Allergies:            []string{"cacahuate"},
		Dislikes:             []string{"cilantro"},
		FavouriteIngredients: []string{"aguacate"},
		Goal:                 "perder peso",
	}
}

func TestCompile(t *testing.T) {
	compiler := NewCompilerAt(fixedClock)

	t.Run("IncludesSchemaAndRules", func(t *testing.T) {
		out, err := compiler.Compile(sampleProfile(), nil, nil)
		require.NoError(t, err)

		for _, want := range []string{
			`"nombre_persona"`,
			`"calorias_diarias_recomendadas"`,
			`"calorias_aprox"`,
			`"ingredients"`,
			"Genera 7 días con 3 comidas por día (Desayuno/Almuerzo/Cena)",
			"Merienda es opcional",
			"favouriteIngredients",
			"allergies o dislikes",
			"únicamente JSON válido",
		} {
			assert.Contains(t, out, want)
		}
	})

	t.Run("RendersPersonaWithNulls", func(t *testing.T) {
		out, err := compiler.Compile(sampleProfile(), nil, nil)
		require.NoError(t, err)

		assert.Contains(t, out, `"age": 33`)
		assert.Contains(t, out, `"heightCm": null`)
		assert.Contains(t, out, `"activityLevel": null`)
		assert.Contains(t, out, `"allergies": [`)
		assert.Contains(t, out, `"locale": "es-MX"`)
		assert.Contains(t, out, "Preferencias explícitas: {}")
		assert.Contains(t, out, "Recetas de ejemplo (resumen): []")
	})

	t.Run("IsDeterministic", func(t *testing.T) {
		snapshot := sampleProfile()
		prefs := map[string]any{"zeta": 1, "alpha": []string{"x"}, "mid": "<sin sal>"}
		sample := []recipe.Summary{{Title: "Lentil Soup", Kcal: 320}}

		first, err := compiler.Compile(snapshot, prefs, sample)
		require.NoError(t, err)
		second, err := compiler.Compile(snapshot, prefs, sample)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Less(t, strings.Index(first, `"alpha"`), strings.Index(first, `"zeta"`))
		assert.Contains(t, first, `"<sin sal>"`)
	})

	t.Run("CapsStyleSample", func(t *testing.T) {
		sample := make([]recipe.Summary, 0, 40)
		for i := 0; i < 40; i++ {
			sample = append(sample, recipe.Summary{Title: fmt.Sprintf("Receta %02d", i), Kcal: float64(100 + i)})
		}

		out, err := compiler.Compile(sampleProfile(), nil, sample)
		require.NoError(t, err)

		assert.Contains(t, out, `{"title":"Receta 29","kcal":129}`)
		assert.NotContains(t, out, "Receta 30")
	})
}
