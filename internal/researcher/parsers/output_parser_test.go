package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOutputReasoningSpan(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantReasoning string
		wantResponse  string
	}{
		{
			name:          "reasoning span with remainder",
			input:         "<think>weighing the options</think>\nThe answer is 42.",
			wantReasoning: "weighing the options",
			wantResponse:  "The answer is 42.",
		},
		{
			name:          "reasoning span with empty remainder",
			input:         "<think>only thinking, nothing else</think>",
			wantReasoning: "only thinking, nothing else",
			wantResponse:  "",
		},
		{
			name:          "no reasoning span",
			input:         "  plain answer text  ",
			wantReasoning: "",
			wantResponse:  "plain answer text",
		},
		{
			name:          "multiline reasoning",
			input:         "<think>line one\nline two</think>final",
			wantReasoning: "line one\nline two",
			wantResponse:  "final",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseOutput(tt.input)
			assert.Equal(t, tt.wantReasoning, got.Reasoning)
			assert.Equal(t, tt.wantResponse, got.Response)
		})
	}
}

func TestParseOutputJSONEnvelope(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "response key unwrapped",
			input: `{"response": "hello"}`,
			want:  "hello",
		},
		{
			name:  "final_answer wins over answer",
			input: `{"answer": "second", "final_answer": "first"}`,
			want:  "first",
		},
		{
			name:  "answer wins over content",
			input: `{"content": "lower", "answer": "higher"}`,
			want:  "higher",
		},
		{
			name:  "single non-priority key unwrapped",
			input: `{"verdict": "fine"}`,
			want:  "fine",
		},
		{
			name:  "multiple non-priority keys keep original",
			input: `{"alpha": 1, "beta": 2}`,
			want:  `{"alpha": 1, "beta": 2}`,
		},
		{
			name:  "array kept as-is",
			input: `["a", "b"]`,
			want:  `["a", "b"]`,
		},
		{
			name:  "malformed bracket-delimited text does not throw",
			input: `{this is not json}`,
			want:  `{this is not json}`,
		},
		{
			name:  "non-string priority value keeps compact json form",
			input: `{"result": {"nested": true}}`,
			want:  `{"nested": true}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseOutput(tt.input)
			assert.Equal(t, tt.want, got.Response)
		})
	}
}

func TestParseOutputEnvelopeAfterReasoning(t *testing.T) {
	got := ParseOutput("<think>deciding</think>\n{\"final_answer\": \"done\"}")
	assert.Equal(t, "deciding", got.Reasoning)
	assert.Equal(t, "done", got.Response)
}

func TestStripReasoning(t *testing.T) {
	assert.Equal(t, "kept", StripReasoning("<think>gone</think> kept"))
	assert.Equal(t, "no blocks here", StripReasoning("no blocks here"))
	assert.Equal(t, `{"response": "raw"}`, StripReasoning(`{"response": "raw"}`),
		"strip must not unwrap JSON")
}
