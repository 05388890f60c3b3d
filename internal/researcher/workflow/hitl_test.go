package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepresearch-core-poc/server/internal/researcher/model"
)

// fakeLLM replays scripted responses in call order and records every
// invocation's user prompt.
type fakeLLM struct {
	responses      []string
	structuredJSON string
	structuredErr  error
	invokeErr      error
	calls          []string
}

func (f *fakeLLM) Invoke(_ context.Context, _, _, userPrompt string) (string, error) {
	f.calls = append(f.calls, userPrompt)
	if f.invokeErr != nil {
		return "", f.invokeErr
	}
	if len(f.responses) == 0 {
		return "", errors.New("fakeLLM: no scripted response left")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func (f *fakeLLM) InvokeStructured(_ context.Context, _, _, userPrompt string, out any) error {
	f.calls = append(f.calls, userPrompt)
	if f.structuredErr != nil {
		return f.structuredErr
	}
	return json.Unmarshal([]byte(f.structuredJSON), out)
}

func testConfig() model.ResearchConfig {
	return model.ResearchConfig{
		ReportModel:          "report-model",
		SummarizationModel:   "summary-model",
		MaxSearchQueries:     5,
		EnableQualityChecker: true,
	}.WithDefaults()
}

func TestStartSessionDetectsLanguage(t *testing.T) {
	llm := &fakeLLM{structuredJSON: `{"language": "Thai"}`}
	r := NewRefiner(llm)

	s := r.StartSession(context.Background(), "s1", "what is quantum entanglement?", testConfig())

	assert.Equal(t, "Thai", s.DetectedLanguage)
	assert.Equal(t, PositionLanguageDetected, s.CurrentPosition)
}

func TestDetectLanguageDefaultsOnFailure(t *testing.T) {
	llm := &fakeLLM{structuredErr: errors.New("model unavailable")}
	r := NewRefiner(llm)

	s := r.StartSession(context.Background(), "s1", "hello", testConfig())

	assert.Equal(t, model.DefaultLanguage, s.DetectedLanguage)
}

func TestAnalyseFeedbackBlankShortCircuits(t *testing.T) {
	llm := &fakeLLM{}
	r := NewRefiner(llm)
	s := model.NewHitlSession("s1", "query", testConfig())
	s.AdditionalContext = "existing context"
	s.HumanFeedback = "   \n "

	err := r.AnalyseFeedback(context.Background(), s)

	require.NoError(t, err)
	assert.Equal(t, "No human feedback provided for analysis.", s.Analysis)
	assert.Equal(t, "existing context", s.AdditionalContext, "blank feedback must not touch the context")
	assert.Empty(t, llm.calls, "blank feedback must not invoke the model")
}

func TestRefinementContextAccumulates(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		"the user wants depth over breadth",
		"1. How deep?\n2. Which sources?\n3. What format?",
	}}
	r := NewRefiner(llm)
	s := model.NewHitlSession("s1", "query", testConfig())
	s.HumanFeedback = "please focus on recent results"

	require.NoError(t, r.AnalyseFeedback(context.Background(), s))
	require.NoError(t, r.GenerateFollowUpQuestions(context.Background(), s))

	assert.Contains(t, s.AdditionalContext, "Human Feedback Analysis:\nthe user wants depth over breadth")
	assert.Contains(t, s.AdditionalContext, "AI Follow-up Questions:\n1. How deep?")
	assert.Contains(t, s.AdditionalContext, "\n\n", "entries are separated")
}

func TestFinalizeOriginalQueryAlwaysFirst(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		"deep analysis of the conversation",
		"1. generated one\n2. generated two\n3. generated three",
	}}
	r := NewRefiner(llm)
	s := model.NewHitlSession("s1", "What is quantum entanglement?", testConfig())

	rs, err := r.Finalize(context.Background(), s)

	require.NoError(t, err)
	assert.Equal(t, "What is quantum entanglement?", rs.ResearchQueries[0])
	assert.Equal(t, []string{
		"What is quantum entanglement?",
		"generated one",
		"generated two",
		"generated three",
	}, rs.ResearchQueries)
	assert.Equal(t, "deep analysis of the conversation", rs.AdditionalContext)
	assert.Equal(t, string(StageRetrieve), rs.Stage)
}

func TestFinalizeTruncatesToMaxSearchQueries(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		"deep analysis",
		"1. one\n2. two\n3. three\n4. four\n5. five",
	}}
	cfg := testConfig()
	cfg.MaxSearchQueries = 3
	r := NewRefiner(llm)
	s := model.NewHitlSession("s1", "What is quantum entanglement?", cfg)

	rs, err := r.Finalize(context.Background(), s)

	require.NoError(t, err)
	require.Len(t, rs.ResearchQueries, 3, "1 original + at most 2 generated")
	assert.Equal(t, "What is quantum entanglement?", rs.ResearchQueries[0])
	assert.Equal(t, []string{"What is quantum entanglement?", "one", "two"}, rs.ResearchQueries)
}

func TestFinalizeStripsReasoningFromQuestions(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		"<think>pondering</think>distilled analysis",
		"<think>drafting</think>1. only question",
	}}
	r := NewRefiner(llm)
	s := model.NewHitlSession("s1", "query", testConfig())

	rs, err := r.Finalize(context.Background(), s)

	require.NoError(t, err)
	assert.Equal(t, "distilled analysis", rs.AdditionalContext)
	assert.Equal(t, []string{"query", "only question"}, rs.ResearchQueries)
}
