package parsers

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/deepresearch-core-poc/server/internal/researcher/model"
)

var (
	numberedLineRe = regexp.MustCompile(`^\d+\.\s*(.*)$`)
	jsonSpanRe     = regexp.MustCompile(`(?s)\{.*\}`)
)

// ExtractQueryList parses a numbered markdown list ("1. text") into discrete
// query strings, one per matching line. Lines not matching the pattern are
// dropped.
func ExtractQueryList(text string) []string {
	var queries []string
	for _, line := range strings.Split(text, "\n") {
		m := numberedLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		if q := strings.TrimSpace(m[1]); q != "" {
			queries = append(queries, q)
		}
	}
	return queries
}

// FirstJSONObject returns the first {...} span in text, or the trimmed text
// itself when it already starts and ends with braces. ok is false when no
// object-shaped span exists.
func FirstJSONObject(text string) (span string, ok bool) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		return trimmed, true
	}
	if m := jsonSpanRe.FindString(text); m != "" {
		return m, true
	}
	return "", false
}

// ExtractVerdict pulls a QualityVerdict out of free-form checker output. The
// verdict invariant is enforced: a structurally valid JSON object that
// violates it is a parse failure, never silently accepted.
func ExtractVerdict(text string) (*model.QualityVerdict, error) {
	span, ok := FirstJSONObject(text)
	if !ok {
		return nil, fmt.Errorf("no JSON object in quality checker output")
	}
	var v model.QualityVerdict
	if err := json.Unmarshal([]byte(span), &v); err != nil {
		return nil, fmt.Errorf("decode quality verdict: %w", err)
	}
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("invalid quality verdict: %w", err)
	}
	return &v, nil
}
