package plan

import (
	"bytes"
	"encoding/json"
)

// Payload is a model answer that passed the schema check. Only the person
// label and the day list are guaranteed; everything inside is best effort.
type Payload struct {
	PersonLabel string
	Meta        Meta
	Days        []DayPayload
}

// DayPayload is one parsed day
type DayPayload struct {
	Index int
	Meals []MealPayload
}

// MealPayload is one parsed meal slot
type MealPayload struct {
	Type     string
	Calories float64
	Dish     DishRef
}

// DishKind tags the shape of a dish reference
type DishKind int

const (
	// DishUnresolved is anything that is neither a title nor a usable object.
	DishUnresolved DishKind = iota
	// DishTitleOnly is a bare title string.
	DishTitleOnly
	// DishInline is an object carrying a title, ingredients or steps.
	DishInline
)

func (k DishKind) String() string {
	switch k {
	case DishTitleOnly:
		return "title_only"
	case DishInline:
		return "inline"
	default:
		return "unresolved"
	}
}

// DishRef is the dish a meal points at, exactly as the model wrote it.
type DishRef struct {
	Kind   DishKind
	Title  string
	Object Object
	Raw    json.RawMessage
}

// UnmarshalJSON classifies any JSON value into a dish reference. It never
// fails on well-formed input.
func (d *DishRef) UnmarshalJSON(b []byte) error {
	*d = ClassifyDish(b)
	return nil
}

// ClassifyDish builds the tagged dish reference for a raw meal `receta` value.
func ClassifyDish(raw json.RawMessage) DishRef {
	raw = bytes.TrimSpace(raw)
	ref := DishRef{Kind: DishUnresolved, Raw: append(json.RawMessage(nil), raw...)}
	if len(raw) == 0 {
		return ref
	}

	switch raw[0] {
	case '"':
		var title string
		if json.Unmarshal(raw, &title) == nil {
			ref.Kind = DishTitleOnly
			ref.Title = title
		}
	case '{':
		obj, ok := AsObject(raw)
		if !ok {
			return ref
		}
		ref.Object = obj
		ref.Title = obj.String("title")
		if ref.Title != "" || obj.Has("ingredients") || obj.Has("steps") {
			ref.Kind = DishInline
		}
	}
	return ref
}

// UnmarshalJSON reads a meal leniently
func (m *MealPayload) UnmarshalJSON(b []byte) error {
	*m = MealPayload{Type: DefaultMealType}

	obj, ok := AsObject(b)
	if !ok {
		return nil
	}
	if t := obj.String("tipo", "nombre"); t != "" {
		m.Type = t
	}
	if kcal, ok := obj.Number("calorias_aprox"); ok {
		m.Calories = kcal
	} else if kcal, ok := obj.Coerce("calorias"); ok {
		m.Calories = kcal
	}
	if raw, ok := obj["receta"]; ok {
		m.Dish = ClassifyDish(raw)
	}
	return nil
}

// UnmarshalJSON reads a day leniently
func (d *DayPayload) UnmarshalJSON(b []byte) error {
	*d = DayPayload{Meals: []MealPayload{}}

	obj, ok := AsObject(b)
	if !ok {
		return nil
	}
	if idx, ok := obj.Coerce("dia"); ok {
		d.Index = int(idx)
	}
	if raw, ok := obj["comidas"]; ok {
		var meals []MealPayload
		if json.Unmarshal(raw, &meals) == nil && meals != nil {
			d.Meals = meals
		}
	}
	return nil
}

// DecodeMeta reads the metadata block, defaulting every missing field.
func DecodeMeta(raw json.RawMessage) Meta {
	meta := Meta{Allergies: []string{}}

	obj, ok := AsObject(raw)
	if !ok {
		return meta
	}
	meta.Goal = obj.String("objetivo")
	meta.Diet = obj.String("dieta")
	if kcal, ok := obj.Coerce("calorias_diarias_recomendadas"); ok {
		meta.DailyCalories = kcal
	}
	if allergies := obj.Strings("alergias"); allergies != nil {
		meta.Allergies = allergies
	}
	return meta
}
