package model

import (
	"github.com/cloudwego/eino/schema"
)

// DefaultLanguage is used whenever language detection fails or has not run.
const DefaultLanguage = "English"

// HitlSession carries one research request through the human-in-the-loop
// refinement phase. Transitions are driven externally, one user turn at a
// time; the session is the only mutable state between turns.
//
// AdditionalContext is append-only during refinement: every analysis and every
// set of generated questions is appended with a label, building the running
// transcript. Finalization replaces it with the deep analysis before seeding
// the research session.
type HitlSession struct {
	ID                string         `json:"id"`
	UserQuery         string         `json:"user_query"` // immutable once set
	CurrentPosition   string         `json:"current_position"`
	DetectedLanguage  string         `json:"detected_language"`
	HumanFeedback     string         `json:"human_feedback"`      // latest reply, overwritten each turn
	Analysis          string         `json:"analysis"`            // derived, overwritten each turn
	FollowUpQuestions string         `json:"follow_up_questions"` // derived, overwritten each turn
	AdditionalContext string         `json:"additional_context"`
	ResearchQueries   []string       `json:"research_queries"` // populated once, at finalization
	Config            ResearchConfig `json:"config"`           // snapshot, immutable per session
}

// NewHitlSession creates a refinement session with the configuration
// snapshotted in.
func NewHitlSession(id, userQuery string, cfg ResearchConfig) *HitlSession {
	return &HitlSession{
		ID:               id,
		UserQuery:        userQuery,
		DetectedLanguage: DefaultLanguage,
		Config:           cfg.WithDefaults(),
	}
}

// Language returns the detected language, falling back to the default.
func (s *HitlSession) Language() string {
	if s.DetectedLanguage == "" {
		return DefaultLanguage
	}
	return s.DetectedLanguage
}

// RankedSummary is one flattened entry produced by the rerank stage. No
// scoring is applied; the ordering matches the declaration order of the
// research queries.
type RankedSummary struct {
	Summary string           `json:"summary"`
	Query   string           `json:"query"`
	Source  *schema.Document `json:"source"`
}

// ResearchSession carries one finalized research run through the execution
// workflow. The fields copied from the closing HitlSession are immutable; the
// remainder is mutated stage by stage until LinkedFinalAnswer is set, after
// which the session is complete.
type ResearchSession struct {
	ID                string                        `json:"id"`
	UserQuery         string                        `json:"user_query"`
	DetectedLanguage  string                        `json:"detected_language"`
	HumanFeedback     string                        `json:"human_feedback"`
	AdditionalContext string                        `json:"additional_context"`
	Stage             string                        `json:"stage"`
	ResearchQueries   []string                      `json:"research_queries"` // first element is always the original query
	RetrievedDocs     map[string][]*schema.Document `json:"retrieved_documents"`
	SearchSummaries   map[string][]*schema.Document `json:"search_summaries"`
	RankedSummaries   []RankedSummary               `json:"ranked_summaries"`
	InternetResult    string                        `json:"internet_result"` // empty unless web search ran
	FinalAnswer       string                        `json:"final_answer"`    // overwritten on each quality retry
	LinkedFinalAnswer string                        `json:"linked_final_answer"`
	QualityCheck      *QualityVerdict               `json:"quality_check"`
	ReflectionCount   int                           `json:"reflection_count"`
	Config            ResearchConfig                `json:"config"`
}

// Language returns the detected language, falling back to the default.
func (s *ResearchSession) Language() string {
	if s.DetectedLanguage == "" {
		return DefaultLanguage
	}
	return s.DetectedLanguage
}

// Complete reports whether the workflow has produced its final linked answer.
func (s *ResearchSession) Complete() bool {
	return s.LinkedFinalAnswer != ""
}
