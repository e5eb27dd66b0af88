package agents

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile(`(?s)^\s*` + "```" + `(?:json|JSON)?\s*\n?(.*?)\n?\s*` + "```" + `\s*$`)

// cleanMarkdownFences robustly removes markdown code fences from a
// model response
func cleanMarkdownFences(s string) string {
	s = strings.TrimSpace(s)

	if matches := fencePattern.FindStringSubmatch(s); len(matches) > 1 {
		s = matches[1]
	}

	// Fallback: simple prefix/suffix trimming
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}

// decodeJSONResponse parses a model response into out, stripping fences
// first and, failing a direct parse, retrying on the outermost JSON
// object found in the text.
func decodeJSONResponse(response string, out interface{}) error {
	cleaned := cleanMarkdownFences(response)

	if err := json.Unmarshal([]byte(cleaned), out); err == nil {
		return nil
	}

	// Lenient retry: models sometimes wrap the JSON in prose
	start := strings.IndexAny(cleaned, "{[")
	if start < 0 {
		return fmt.Errorf("response contains no JSON payload")
	}
	end := strings.LastIndexAny(cleaned, "}]")
	if end <= start {
		return fmt.Errorf("response contains no complete JSON payload")
	}

	if err := json.Unmarshal([]byte(cleaned[start:end+1]), out); err != nil {
		return fmt.Errorf("failed to parse response as JSON: %w", err)
	}

	return nil
}
