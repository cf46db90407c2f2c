package genai

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedJSONRegex = regexp.MustCompile("```json\\s*([\\s\\S]*?)```")

// ExtractJSON pulls the JSON document out of a model response. Models
// are instructed to answer inside a ```json fence, but occasionally
// return bare JSON; both are accepted. Anything else is a
// MalformedError.
func ExtractJSON(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)

	if match := fencedJSONRegex.FindStringSubmatch(trimmed); len(match) == 2 {
		candidate := strings.TrimSpace(match[1])
		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), nil
		}
		return nil, &MalformedError{Reason: "fenced block is not valid json"}
	}

	if json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed), nil
	}
	return nil, &MalformedError{Reason: "response contains no json document"}
}
