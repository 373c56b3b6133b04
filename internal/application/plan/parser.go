package plan

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/nutriplan/planner/internal/domain/plan"
	apperrors "github.com/nutriplan/planner/pkg/errors"
)

var errNoObject = errors.New("no balanced JSON object found in model output")

// Parse extracts the plan payload from raw model text. The whole text is
// decoded first; failing that, the first balanced top-level object in it.
// A decoded value without a person label or a day list is rejected whole.
func Parse(text string) (*plan.Payload, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return nil, apperrors.NewUnparsableOutputError(err)
	}

	root, ok := plan.AsObject(raw)
	if !ok {
		return nil, apperrors.NewSchemaMismatchError("top-level object")
	}

	var person string
	if err := json.Unmarshal(root["nombre_persona"], &person); err != nil || strings.TrimSpace(person) == "" {
		return nil, apperrors.NewSchemaMismatchError("nombre_persona")
	}

	var days []plan.DayPayload
	if !isArray(root["dias"]) {
		return nil, apperrors.NewSchemaMismatchError("dias")
	}
	if err := json.Unmarshal(root["dias"], &days); err != nil {
		return nil, apperrors.NewSchemaMismatchError("dias").WithCause(err)
	}

	return &plan.Payload{
		PersonLabel: person,
		Meta:        plan.DecodeMeta(root["meta"]),
		Days:        days,
	}, nil
}

func extractJSON(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)
	if json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed), nil
	}

	span, ok := firstObjectSpan(trimmed)
	if !ok {
		return nil, errNoObject
	}
	if !json.Valid([]byte(span)) {
		var probe any
		err := json.Unmarshal([]byte(span), &probe)
		return nil, err
	}
	return json.RawMessage(span), nil
}

// firstObjectSpan returns the first balanced {...} span, ignoring braces
// inside string literals.
func firstObjectSpan(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

func isArray(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "[")
}
