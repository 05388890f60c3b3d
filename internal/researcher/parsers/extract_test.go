package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractQueryList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "numbered list",
			input: "1. What is entanglement?\n2. How is it measured?\n3. Why does it matter?",
			want:  []string{"What is entanglement?", "How is it measured?", "Why does it matter?"},
		},
		{
			name:  "non-matching lines dropped",
			input: "Here are the questions:\n1. First\nsome prose\n2. Second",
			want:  []string{"First", "Second"},
		},
		{
			name:  "indented lines still match",
			input: "  1. Indented question",
			want:  []string{"Indented question"},
		},
		{
			name:  "no matches",
			input: "no numbering at all",
			want:  nil,
		},
		{
			name:  "empty entries skipped",
			input: "1.\n2. Real question",
			want:  []string{"Real question"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractQueryList(tt.input))
		})
	}
}

func TestFirstJSONObject(t *testing.T) {
	span, ok := FirstJSONObject(`prefix {"a": 1} suffix`)
	require.True(t, ok)
	assert.Equal(t, `{"a": 1}`, span)

	span, ok = FirstJSONObject(`  {"pure": true}  `)
	require.True(t, ok)
	assert.Equal(t, `{"pure": true}`, span)

	_, ok = FirstJSONObject("no braces here")
	assert.False(t, ok)
}

func TestExtractVerdict(t *testing.T) {
	text := `Here is my assessment:
{"quality_score": 350, "is_accurate": true, "issues_found": "", "missing_elements": "", "citation_issues": "", "improvement_needed": false, "improvement_suggestions": ""}`

	v, err := ExtractVerdict(text)
	require.NoError(t, err)
	assert.Equal(t, 350, v.QualityScore)
	assert.True(t, v.IsAccurate)
}

func TestExtractVerdictInvariantViolation(t *testing.T) {
	// score below threshold but claims accurate
	_, err := ExtractVerdict(`{"quality_score": 200, "is_accurate": true, "improvement_needed": false}`)
	assert.Error(t, err)
}

func TestExtractVerdictNoJSON(t *testing.T) {
	_, err := ExtractVerdict("the model rambled without structure")
	assert.Error(t, err)
}
