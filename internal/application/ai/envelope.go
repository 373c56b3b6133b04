package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nutriplan/planner/internal/ports/outbound"
)

type envelope map[string]json.RawMessage

// ExtractText normalizes a raw model response body to its text. It accepts
// a bare JSON string, nested text accessors, output blocks, candidate lists
// and choice lists. Anything else is outbound.ErrUnrecognizedEnvelope.
func ExtractText(body []byte) (string, error) {
	var direct string
	if err := json.Unmarshal(body, &direct); err == nil {
		return direct, nil
	}

	env, ok := asEnvelope(body)
	if !ok {
		return "", fmt.Errorf("%w: body is not a JSON object or string", outbound.ErrUnrecognizedEnvelope)
	}
	if data, ok := asEnvelope(env["data"]); ok {
		env = data
	}

	if text, ok := env.fromAccessors(); ok {
		return text, nil
	}
	if text, ok := env.fromOutput(); ok {
		return text, nil
	}
	if text, ok := env.fromCandidates(); ok {
		return text, nil
	}
	if text, ok := env.fromChoices(); ok {
		return text, nil
	}

	return "", outbound.ErrUnrecognizedEnvelope
}

func (e envelope) fromAccessors() (string, bool) {
	if resp, ok := asEnvelope(e["response"]); ok {
		if text, ok := resp.str("text"); ok {
			return text, true
		}
	}
	if text, ok := e.str("response"); ok {
		return text, true
	}
	for _, key := range []string{"outputText", "text", "generated_text"} {
		if text, ok := e.str(key); ok {
			return text, true
		}
	}
	if msg, ok := asEnvelope(e["message"]); ok {
		if text, ok := msg.str("content"); ok {
			return text, true
		}
	}
	return "", false
}

func (e envelope) fromOutput() (string, bool) {
	first, ok := firstElement(e["output"])
	if !ok {
		return "", false
	}

	var blocks []json.RawMessage
	if json.Unmarshal(first["content"], &blocks) == nil && blocks != nil {
		parts := make([]string, 0, len(blocks))
		for _, block := range blocks {
			var s string
			if json.Unmarshal(block, &s) == nil {
				parts = append(parts, s)
				continue
			}
			if obj, ok := asEnvelope(block); ok {
				if text, ok := obj.str("text"); ok {
					parts = append(parts, text)
					continue
				}
			}
			parts = append(parts, "")
		}
		return strings.TrimSpace(strings.Join(parts, "\n")), true
	}
	if text, ok := first.str("content"); ok {
		return text, true
	}
	return first.str("text")
}

func (e envelope) fromCandidates() (string, bool) {
	first, ok := firstElement(e["candidates"])
	if !ok {
		return "", false
	}

	if content, ok := asEnvelope(first["content"]); ok {
		var parts []envelope
		if json.Unmarshal(content["parts"], &parts) == nil && len(parts) > 0 {
			var b strings.Builder
			for _, part := range parts {
				text, _ := part.str("text")
				b.WriteString(text)
			}
			return b.String(), true
		}
	}
	for _, key := range []string{"output", "content", "text", "message", "delta"} {
		if text, ok := first.str(key); ok {
			return text, true
		}
	}
	return "", false
}

func (e envelope) fromChoices() (string, bool) {
	first, ok := firstElement(e["choices"])
	if !ok {
		return "", false
	}
	if text, ok := first.str("text"); ok {
		return text, true
	}
	if msg, ok := asEnvelope(first["message"]); ok {
		return msg.str("content")
	}
	return "", false
}

func (e envelope) str(key string) (string, bool) {
	raw, ok := e[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func asEnvelope(raw json.RawMessage) (envelope, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false
	}
	return env, true
}

func firstElement(raw json.RawMessage) (envelope, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
		return nil, false
	}
	return asEnvelope(items[0])
}
