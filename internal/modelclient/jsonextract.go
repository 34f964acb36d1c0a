package modelclient

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ExtractJSONObject finds the first balanced {...} region in text and
// returns it verbatim. Model responses routinely wrap JSON in prose or
// markdown fences; this scans for the first brace and tracks nesting depth
// (ignoring braces inside string literals) rather than assuming the whole
// response is JSON.
func ExtractJSONObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object found in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// inside a string literal, braces don't affect nesting
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				candidate := text[start : i+1]
				if !gjson.Valid(candidate) {
					return "", fmt.Errorf("extracted region is not valid JSON")
				}
				return candidate, nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object in response")
}

// Get is a thin gjson.Get passthrough, kept here so callers only import
// modelclient for response parsing rather than reaching for gjson directly.
func Get(json, path string) gjson.Result {
	return gjson.Get(json, path)
}
