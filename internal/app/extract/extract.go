// Package extract recovers a single JSON object from free-form model output
// that may wrap it in prose or markdown code fences.
package extract

import (
	"encoding/json"
	"strings"
)

const (
	fence     = "```"
	jsonFence = "```json"
)

// Strategy looks for a candidate JSON payload in text.
type Strategy func(text string) (string, bool)

// DefaultStrategies is the order in which JSON tries candidates.
var DefaultStrategies = []Strategy{
	FencedJSON,
	FencedBlock,
	BalancedBraces,
}

// JSON returns the first candidate produced by DefaultStrategies that parses
// as a JSON object.
func JSON(text string) (string, bool) {
	return Chain(DefaultStrategies...)(text)
}

// Chain composes strategies with first-success semantics. A candidate that
// does not parse as a JSON object (arrays and scalars included) does not
// count as a success.
func Chain(strategies ...Strategy) Strategy {
	return func(text string) (string, bool) {
		for _, s := range strategies {
			candidate, ok := s(text)
			if !ok {
				continue
			}
			if isObject(candidate) {
				return candidate, true
			}
		}
		return "", false
	}
}

func isObject(candidate string) bool {
	var obj map[string]json.RawMessage
	return json.Unmarshal([]byte(candidate), &obj) == nil && obj != nil
}

// FencedJSON returns the trimmed content of the first block tagged ```json.
func FencedJSON(text string) (string, bool) {
	open := strings.Index(text, jsonFence)
	if open == -1 {
		return "", false
	}
	start := open + len(jsonFence)

	end := strings.Index(text[start:], fence)
	if end == -1 {
		return "", false
	}
	return strings.TrimSpace(text[start : start+end]), true
}

// FencedBlock returns the trimmed content of the first fenced block when it
// looks like an object. The rest of the opening fence line (a language tag)
// is skipped.
func FencedBlock(text string) (string, bool) {
	open := strings.Index(text, fence)
	if open == -1 {
		return "", false
	}

	nl := strings.IndexByte(text[open:], '\n')
	if nl == -1 {
		return "", false
	}
	start := open + nl + 1

	end := strings.Index(text[start:], fence)
	if end == -1 {
		return "", false
	}

	candidate := strings.TrimSpace(text[start : start+end])
	if !strings.HasPrefix(candidate, "{") || !strings.HasSuffix(candidate, "}") {
		return "", false
	}
	return candidate, true
}

// BalancedBraces returns the substring from the first '{' to its matching
// '}'. Braces inside string literals are ignored. An unbalanced object
// yields no candidate.
func BalancedBraces(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
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
