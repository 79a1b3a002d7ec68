package worker

import (
	"encoding/json"
	"strings"
)

// ExtractObject locates the single JSON object embedded in a worker's stdout.
// Workers log freely around their result, so everything before the first '{'
// and after the last '}' is ignored. This is a deliberate tolerance layer for
// a noisy process boundary, not a general JSON scanner.
//
// Failure modes: no brace pair found, or the bracketed span is not valid JSON.
func ExtractObject(text string) (json.RawMessage, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, &ParseError{Reason: "no JSON object found in output", Raw: text}
	}
	span := text[start : end+1]
	if !json.Valid([]byte(span)) {
		return nil, &ParseError{Reason: "embedded JSON does not parse", Raw: text}
	}
	return json.RawMessage(span), nil
}
