package llm

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"
	"github.com/rs/zerolog/log"
)

// ExtractJSONObject returns the first balanced brace-delimited span in
// raw, tolerating string literals and escapes. Model answers routinely
// wrap the object in prose or code fences.
func ExtractJSONObject(raw string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(raw); i++ {
		c := raw[i]

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
			if start >= 0 {
				inString = true
			}
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start >= 0 {
				depth--
				if depth == 0 {
					return raw[start : i+1], true
				}
			}
		}
	}

	return "", false
}

// DecodeObject extracts the first JSON object from a raw model answer
// and unmarshals it into target, falling back to jsonrepair when the
// span is not valid JSON as-is. It returns whether a repair was applied.
func DecodeObject(raw string, target any) (bool, error) {
	span, ok := ExtractJSONObject(raw)
	if !ok {
		return false, fmt.Errorf("no JSON object found in model response")
	}

	if err := json.Unmarshal([]byte(span), target); err == nil {
		return false, nil
	}

	repaired, err := jsonrepair.JSONRepair(span)
	if err != nil {
		return false, fmt.Errorf("JSON repair failed: %w", err)
	}

	if err := json.Unmarshal([]byte(repaired), target); err != nil {
		return true, fmt.Errorf("JSON parsing failed after repair: %w", err)
	}

	log.Debug().
		Int("original_bytes", len(span)).
		Int("repaired_bytes", len(repaired)).
		Msg("model response required JSON repair")
	return true, nil
}
