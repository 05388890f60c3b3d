package parsers

import (
	"encoding/json"
	"regexp"
	"strings"
)

// basic safety limit to avoid pathological inputs
const maxContentLen = 256 * 1024 // 256KB

var (
	thinkRe     = regexp.MustCompile(`(?s)<think>(.*?)</think>`)
	remainderRe = regexp.MustCompile(`(?s)</think>\s*(.*)$`)
)

// priorityKeys is the fixed order in which JSON envelope keys are checked.
// First match wins.
var priorityKeys = []string{"final_answer", "answer", "response", "content", "result", "output"}

// ParsedOutput is the result of splitting raw model text into its reasoning
// span and the actual response. Reasoning is empty when the text carried no
// thinking block.
type ParsedOutput struct {
	Reasoning string
	Response  string
}

// ParseOutput extracts a <think>...</think> reasoning span and unwraps JSON
// envelopes from raw model output. It never fails: on any parse problem the
// trimmed text stands as the response.
func ParseOutput(text string) ParsedOutput {
	if len(text) > maxContentLen {
		text = text[:maxContentLen]
	}

	var reasoning, response string
	if m := thinkRe.FindStringSubmatch(text); m != nil {
		reasoning = strings.TrimSpace(m[1])
		if r := remainderRe.FindStringSubmatch(text); r != nil {
			response = strings.TrimSpace(r[1])
		}
	} else {
		response = strings.TrimSpace(text)
	}

	return ParsedOutput{Reasoning: reasoning, Response: unwrapJSONEnvelope(response)}
}

// unwrapJSONEnvelope replaces a response that is a complete JSON object with
// the value of the first matching priority key, or the sole value of a
// single-key object. Arrays and multi-key objects without priority keys keep
// the original text, as does anything that fails to parse.
func unwrapJSONEnvelope(response string) string {
	looksObject := strings.HasPrefix(response, "{") && strings.HasSuffix(response, "}")
	looksArray := strings.HasPrefix(response, "[") && strings.HasSuffix(response, "]")
	if !looksObject && !looksArray {
		return response
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(response), &obj); err != nil {
		// arrays land here too: only objects are unwrapped
		return response
	}

	for _, key := range priorityKeys {
		if raw, ok := obj[key]; ok {
			return rawToString(raw)
		}
	}
	if len(obj) == 1 {
		for _, raw := range obj {
			return rawToString(raw)
		}
	}
	return response
}

// rawToString renders a JSON value as plain text: strings are unquoted, every
// other value keeps its compact JSON form so the substitution is deterministic.
func rawToString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// StripReasoning removes any thinking blocks and returns the trimmed rest,
// without JSON unwrapping. Used where the raw prose is wanted as-is.
func StripReasoning(text string) string {
	return strings.TrimSpace(thinkRe.ReplaceAllString(text, ""))
}
