package workflow

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	errx "github.com/deepresearch-core-poc/server/internal/core/error"
	"github.com/deepresearch-core-poc/server/internal/researcher/model"
	"github.com/deepresearch-core-poc/server/internal/researcher/parsers"
	"github.com/deepresearch-core-poc/server/internal/researcher/prompts"
	logx "github.com/deepresearch-core-poc/server/pkg/logger"
)

// Refinement positions recorded on the session after each externally driven
// turn.
const (
	PositionStarted           = "started"
	PositionLanguageDetected  = "detect_language"
	PositionFeedbackAnalysed  = "analyse_user_feedback"
	PositionQuestionsProposed = "generate_follow_up_questions"
	PositionFinalized         = "finalized"
)

// detectedLanguage is the single-field structured output of the language
// detection call.
type detectedLanguage struct {
	Language string `json:"language"`
}

func (d *detectedLanguage) Validate() error {
	if strings.TrimSpace(d.Language) == "" {
		return errx.New(nil, "language label is empty")
	}
	return nil
}

// Refiner drives the human-in-the-loop refinement phase. Each method is one
// turn; the caller persists the session between turns and decides when to
// finalize.
type Refiner struct {
	llm model.CompletionGateway
}

func NewRefiner(llm model.CompletionGateway) *Refiner {
	return &Refiner{llm: llm}
}

// StartSession creates the refinement session for an initial query and runs
// language detection on it.
func (r *Refiner) StartSession(ctx context.Context, id, userQuery string, cfg model.ResearchConfig) *model.HitlSession {
	s := model.NewHitlSession(id, userQuery, cfg)
	s.CurrentPosition = PositionStarted
	r.DetectLanguage(ctx, s)
	return s
}

// DetectLanguage asks the model for the query's language as a single-field
// structured value. Any failure falls back to the default language; this step
// never fails the session.
func (r *Refiner) DetectLanguage(ctx context.Context, s *model.HitlSession) {
	system, human, err := prompts.RenderLanguageDetector(ctx, s.UserQuery)
	if err == nil {
		var out detectedLanguage
		err = r.llm.InvokeStructured(ctx, s.Config.SummarizationModel, system, human, &out)
		if err == nil {
			s.DetectedLanguage = strings.TrimSpace(out.Language)
		}
	}
	if err != nil {
		logx.Warn().Err(err).Str("session_id", s.ID).Msg("Language detection failed, defaulting")
		s.DetectedLanguage = model.DefaultLanguage
	}
	s.CurrentPosition = PositionLanguageDetected
	logx.Debug().Str("session_id", s.ID).Str("language", s.DetectedLanguage).Msg("Language detected")
}

// AnalyseFeedback analyses the latest human reply against the initial query
// and appends the labeled analysis to the running context. Blank feedback
// short-circuits to a canned analysis and leaves the context untouched.
func (r *Refiner) AnalyseFeedback(ctx context.Context, s *model.HitlSession) error {
	if strings.TrimSpace(s.HumanFeedback) == "" {
		s.Analysis = "No human feedback provided for analysis."
		s.CurrentPosition = PositionFeedbackAnalysed
		return nil
	}

	system, human, err := prompts.RenderFeedbackAnalysis(ctx, s.Language(), s.UserQuery, s.HumanFeedback)
	if err != nil {
		return errx.WrapStage(PositionFeedbackAnalysed, err)
	}
	raw, err := r.llm.Invoke(ctx, s.Config.ReportModel, system, human)
	if err != nil {
		return errx.WrapStage(PositionFeedbackAnalysed, err)
	}

	s.Analysis = parsers.ParseOutput(raw).Response
	appendContext(s, "Human Feedback Analysis:\n"+s.Analysis)
	s.CurrentPosition = PositionFeedbackAnalysed
	return nil
}

// GenerateFollowUpQuestions produces the next set of clarification questions
// and appends them, labeled, to the running context. The exactly-3 and
// language constraints live in the prompt; the machine trusts the model.
func (r *Refiner) GenerateFollowUpQuestions(ctx context.Context, s *model.HitlSession) error {
	system, human, err := prompts.RenderFollowUpQuestions(ctx, s.Language(), s.UserQuery, s.Analysis)
	if err != nil {
		return errx.WrapStage(PositionQuestionsProposed, err)
	}
	raw, err := r.llm.Invoke(ctx, s.Config.ReportModel, system, human)
	if err != nil {
		return errx.WrapStage(PositionQuestionsProposed, err)
	}

	s.FollowUpQuestions = parsers.ParseOutput(raw).Response
	appendContext(s, "AI Follow-up Questions:\n"+s.FollowUpQuestions)
	s.CurrentPosition = PositionQuestionsProposed
	return nil
}

// Finalize closes the refinement phase: a deep analysis of the whole
// conversation, then knowledge-base search questions derived from it. The
// parsed questions are truncated so the total count (original query included)
// never exceeds the configured maximum, and the original query is always the
// first research query. The returned research session is seeded and ready for
// the execution workflow.
func (r *Refiner) Finalize(ctx context.Context, s *model.HitlSession) (*model.ResearchSession, error) {
	system, human, err := prompts.RenderDeepAnalysis(ctx, s.Language(), s.UserQuery, s.AdditionalContext, s.HumanFeedback)
	if err != nil {
		return nil, errx.WrapStage(PositionFinalized, err)
	}
	rawAnalysis, err := r.llm.Invoke(ctx, s.Config.ReportModel, system, human)
	if err != nil {
		return nil, errx.WrapStage(PositionFinalized, err)
	}
	deepAnalysis := parsers.ParseOutput(rawAnalysis).Response

	system, human, err = prompts.RenderKnowledgeBaseSearch(ctx, s.Language(), s.UserQuery, deepAnalysis)
	if err != nil {
		return nil, errx.WrapStage(PositionFinalized, err)
	}
	rawQuestions, err := r.llm.Invoke(ctx, s.Config.ReportModel, system, human)
	if err != nil {
		return nil, errx.WrapStage(PositionFinalized, err)
	}

	generated := parsers.ExtractQueryList(parsers.ParseOutput(rawQuestions).Response)
	maxGenerated := s.Config.MaxSearchQueries - 1
	if maxGenerated < 0 {
		maxGenerated = 0
	}
	if len(generated) > maxGenerated {
		generated = generated[:maxGenerated]
	}

	s.ResearchQueries = append([]string{s.UserQuery}, generated...)
	s.AdditionalContext = deepAnalysis
	s.CurrentPosition = PositionFinalized

	logx.Info().Str("session_id", s.ID).Int("query_count", len(s.ResearchQueries)).
		Msg("Refinement finalized")

	return &model.ResearchSession{
		ID:                s.ID,
		UserQuery:         s.UserQuery,
		DetectedLanguage:  s.DetectedLanguage,
		HumanFeedback:     s.HumanFeedback,
		AdditionalContext: s.AdditionalContext,
		Stage:             string(StageRetrieve),
		ResearchQueries:   s.ResearchQueries,
		RetrievedDocs:     make(map[string][]*schema.Document),
		SearchSummaries:   make(map[string][]*schema.Document),
		Config:            s.Config,
	}, nil
}

// appendContext grows the append-only refinement transcript.
func appendContext(s *model.HitlSession, labeled string) {
	if s.AdditionalContext != "" {
		s.AdditionalContext += "\n\n"
	}
	s.AdditionalContext += labeled
}
