// Package prompt turns a consumer profile into the text prompt sent to the
// generation model.
package prompt

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/nutriplan/planner/internal/domain/profile"
	"github.com/nutriplan/planner/internal/domain/recipe"
)

// MaxSample is the most approved recipes shown to the model as a style hint
const MaxSample = 30

const (
	planDays     = 7
	optionalMeal = "Merienda"
)

var requiredMeals = []string{"Desayuno", "Almuerzo", "Cena"}

//go:embed templates/plan_prompt.tmpl
var templateFS embed.FS

var planTemplate = template.Must(
	template.New("plan_prompt.tmpl").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(templateFS, "templates/plan_prompt.tmpl"),
)

// Compiler renders plan prompts. It has no side effects; given the same
// inputs and clock it always produces the same text.
type Compiler struct {
	now func() time.Time
}

// NewCompiler creates a compiler that derives ages from the wall clock
func NewCompiler() *Compiler {
	return &Compiler{now: time.Now}
}

// NewCompilerAt creates a compiler with a fixed clock
func NewCompilerAt(now func() time.Time) *Compiler {
	return &Compiler{now: now}
}

type sampleEntry struct {
	Title string  `json:"title"`
	Kcal  float64 `json:"kcal"`
}

type templateData struct {
	Days          int
	RequiredMeals []string
	OptionalMeal  string
	Persona       string
	Preferences   string
	Sample        string
}

// Compile builds the prompt for one generation. Only the first MaxSample
// entries of sample are used.
func (c *Compiler) Compile(snapshot profile.Snapshot, prefs map[string]any, sample []recipe.Summary) (string, error) {
	persona, err := marshal(snapshot.Persona(c.now()), "  ")
	if err != nil {
		return "", fmt.Errorf("encode persona: %w", err)
	}

	if prefs == nil {
		prefs = map[string]any{}
	}
	preferences, err := marshal(prefs, "  ")
	if err != nil {
		return "", fmt.Errorf("encode preferences: %w", err)
	}

	if len(sample) > MaxSample {
		sample = sample[:MaxSample]
	}
	entries := make([]sampleEntry, 0, len(sample))
	for _, s := range sample {
		entries = append(entries, sampleEntry{Title: s.Title, Kcal: s.Kcal})
	}
	styleSample, err := marshal(entries, "")
	if err != nil {
		return "", fmt.Errorf("encode style sample: %w", err)
	}

	var buf bytes.Buffer
	err = planTemplate.Execute(&buf, templateData{
		Days:          planDays,
		RequiredMeals: requiredMeals,
		OptionalMeal:  optionalMeal,
		Persona:       persona,
		Preferences:   preferences,
		Sample:        styleSample,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	return strings.TrimSpace(buf.String()), nil
}

// marshal encodes v without HTML escaping so titles reach the model as written
func marshal(v any, indent string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
